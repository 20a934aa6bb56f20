// Package internal contains helper utilities that are intentionally private to
// meshauth: secure random session identifiers and the hashing primitives shared
// by the session and refresh stores.
//
// # What this package must NOT do
//
//   - Export types that appear in the public meshauth API.
//   - Be imported by any package outside the meshauth module.
package internal
