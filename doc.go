// Package meshauth provides the authentication and authorization decision
// engine for a microservice mesh: given whatever credentials a caller
// presents (access token, session identifier, refresh token) and a requested
// capability (target services + destinations), it classifies the caller,
// rotates credentials when required, and resolves role-based access — always
// terminating in one of six outcomes, never an error or panic.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build]. The Engine itself holds no mutable state; everything lives
// in the Redis-backed session and refresh stores.
//
// # Architecture boundaries
//
// meshauth is the public surface. It exposes [Engine], [Builder], [Config],
// the [Request]/[Result] decision contract, and the [Outcome] enum. Token
// signing lives in token/, session persistence in session/, refresh-token
// rotation in refresh/, and capability resolution in role/.
//
// # What this package must NOT do
//
//   - Expose Redis clients or store internals in its public API.
//   - Let an error or panic escape [Engine.Authorize]; every code path maps
//     to an [Outcome].
//   - Block a decision on best-effort cleanup — stale-credential revocation
//     is dispatched to a detached background worker.
package meshauth
