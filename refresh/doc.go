// Package refresh provides the durable store of rotating refresh tokens,
// keyed by (user ID, device fingerprint) and persisted only as one-way
// hashes. Rotation replaces the stored hash wholesale, so at most one refresh
// token is ever active per device fingerprint.
//
// # Fingerprint binding
//
// A [Fingerprint] folds the caller's user agent and client city into a fixed
// digest. [Store.Matches] requires both the hash and the fingerprint key to
// line up; a fingerprint mismatch is indistinguishable from a missing record
// at this API surface. Suspicious-activity logging happens in the engine, not
// here.
//
// # What this package must NOT do
//
//   - Verify token signatures (that is the token service's job).
//   - Import meshauth, token, session, or role.
//   - Store plaintext refresh tokens.
package refresh
