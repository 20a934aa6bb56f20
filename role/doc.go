// Package role resolves role-based access to mesh capabilities. A capability
// is a (service, destination) pair; a role is a named, frozen set of granted
// pairs registered once at engine construction.
//
// # Fail-closed evaluation
//
// HasAccess denies on any structural problem — unknown role, empty request,
// or a service/destination arity mismatch — without inspecting contents.
//
// # What this package must NOT do
//
//   - Accept registrations after [Registry.Freeze].
//   - Import meshauth, token, session, or refresh.
package role
