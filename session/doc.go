// Package session provides the Redis-backed session store binding an opaque
// random session identifier to the access token currently considered valid.
// The session entry is the primary server-side revocation mechanism.
//
// # Self-healing semantics
//
// Missing or superseded entries are reported as "not valid", never as errors.
// Only Redis unavailability surfaces as an error, wrapped in
// [ErrRedisUnavailable]. All deletes are idempotent.
//
// # Architecture boundaries
//
// This package owns session persistence only. It does NOT interpret tokens,
// evaluate capabilities, or decide outcomes — those belong to the Engine.
//
// # What this package must NOT do
//
//   - Import meshauth, token, refresh, or role (no upward imports).
//   - Store anything beyond the sessionID <-> accessToken binding.
package session
