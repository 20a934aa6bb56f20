package role

import (
	"errors"
	"sync"
)

// Guest is the fixed role assigned to ephemeral guest identities.
const Guest = "GUEST"

// Grant is a single (service, destination) capability granted to a role.
type Grant struct {
	Service     string
	Destination string
}

// Registry maps role names to their granted capability sets. Roles are
// registered during engine construction and frozen before first use; after
// [Registry.Freeze] the registry is immutable and safe for concurrent reads.
type Registry struct {
	mu     sync.RWMutex
	grants map[string]map[Grant]struct{}
	frozen bool
}

// NewRegistry creates an empty role [Registry].
func NewRegistry() *Registry {
	return &Registry{
		grants: make(map[string]map[Grant]struct{}),
	}
}

// RegisterRole records the grants for the named role. Must be called before
// [Registry.Freeze]; duplicate role names and blank names or grant fields are
// rejected.
func (r *Registry) RegisterRole(name string, grants []Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.New("registry frozen")
	}
	if name == "" {
		return errors.New("role name cannot be empty")
	}
	if _, exists := r.grants[name]; exists {
		return errors.New("role already registered")
	}

	set := make(map[Grant]struct{}, len(grants))
	for _, g := range grants {
		if g.Service == "" || g.Destination == "" {
			return errors.New("grant service and destination cannot be empty")
		}
		set[g] = struct{}{}
	}

	r.grants[name] = set
	return nil
}

// Freeze makes the registry immutable. Safe to call more than once.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Has reports whether the named role is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.grants[name]
	return ok
}

// HasAccess reports whether role has been granted every requested
// (services[i], destinations[i]) pair. A length mismatch between the two
// lists fails closed without inspecting contents, as does an empty request
// or an unknown role.
func (r *Registry) HasAccess(role string, services, destinations []string) bool {
	if len(services) != len(destinations) || len(services) == 0 {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.grants[role]
	if !ok {
		return false
	}

	for i := range services {
		if _, granted := set[Grant{Service: services[i], Destination: destinations[i]}]; !granted {
			return false
		}
	}
	return true
}
