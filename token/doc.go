// Package token issues and verifies the three credential kinds of the mesh:
// access, refresh, and service tokens. Each kind is signed with its own
// Ed25519 keypair so that compromising one verifier cannot forge another kind.
//
// # Validation semantics
//
// Validation is strictly boolean. A malformed, expired, wrong-kind, or
// wrong-signature token resolves to false — parse errors never escape this
// package through the Validate methods. Claims extraction (Parse*) is only
// meaningful after a successful validation.
//
// # What this package must NOT do
//
//   - Access Redis or any I/O.
//   - Import meshauth, session, refresh, or role.
//   - Persist tokens or hashes — stores own persistence.
package token
