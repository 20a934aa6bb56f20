package meshauth

import "errors"

var (
	// ErrEngineNotReady is an exported constant or variable used by the authorization engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrRoleUnknown is an exported constant or variable used by the authorization engine.
	ErrRoleUnknown = errors.New("role not registered")
	// ErrInvalidRequest is an exported constant or variable used by the authorization engine.
	ErrInvalidRequest = errors.New("invalid request")
)
