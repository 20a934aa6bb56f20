package role

import "testing"

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	r := NewRegistry()
	if err := r.RegisterRole("ADMIN", []Grant{
		{Service: "orders", Destination: "read"},
		{Service: "orders", Destination: "write"},
		{Service: "billing", Destination: "read"},
	}); err != nil {
		t.Fatalf("register ADMIN: %v", err)
	}
	if err := r.RegisterRole(Guest, []Grant{
		{Service: "catalog", Destination: "read"},
	}); err != nil {
		t.Fatalf("register GUEST: %v", err)
	}
	return r
}

func TestHasAccessGrantedPairs(t *testing.T) {
	r := newTestRegistry(t)
	r.Freeze()

	if !r.HasAccess("ADMIN", []string{"orders"}, []string{"read"}) {
		t.Fatal("single granted pair must be allowed")
	}
	if !r.HasAccess("ADMIN", []string{"orders", "billing"}, []string{"write", "read"}) {
		t.Fatal("multiple granted pairs must be allowed")
	}
	if r.HasAccess("ADMIN", []string{"billing"}, []string{"write"}) {
		t.Fatal("ungranted pair must be denied")
	}
	if r.HasAccess("ADMIN", []string{"orders", "billing"}, []string{"read", "write"}) {
		t.Fatal("one ungranted pair must deny the whole request")
	}
}

func TestHasAccessPairsMatchByIndex(t *testing.T) {
	r := newTestRegistry(t)
	r.Freeze()

	// (orders,read) and (billing,read) are granted, but swapping the
	// positions requests (orders,read)+(billing,read) vs (billing,write).
	if r.HasAccess("ADMIN", []string{"billing", "orders"}, []string{"write", "read"}) {
		t.Fatal("pairs are positional, not cross-matched")
	}
}

func TestHasAccessArityMismatchFailsClosed(t *testing.T) {
	r := newTestRegistry(t)
	r.Freeze()

	if r.HasAccess("ADMIN", []string{"orders", "billing"}, []string{"read"}) {
		t.Fatal("mismatched list lengths must be denied")
	}
	if r.HasAccess("ADMIN", nil, nil) {
		t.Fatal("empty capability lists must be denied")
	}
}

func TestHasAccessUnknownRoleDenied(t *testing.T) {
	r := newTestRegistry(t)
	r.Freeze()

	if r.HasAccess("AUDITOR", []string{"orders"}, []string{"read"}) {
		t.Fatal("unknown role must be denied")
	}
	if r.HasAccess("", []string{"orders"}, []string{"read"}) {
		t.Fatal("empty role must be denied")
	}
}

func TestGuestRoleGrants(t *testing.T) {
	r := newTestRegistry(t)
	r.Freeze()

	if !r.HasAccess(Guest, []string{"catalog"}, []string{"read"}) {
		t.Fatal("guest grant must be allowed")
	}
	if r.HasAccess(Guest, []string{"orders"}, []string{"read"}) {
		t.Fatal("guest must not inherit other roles' grants")
	}
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	r := NewRegistry()

	if err := r.RegisterRole("", nil); err == nil {
		t.Fatal("blank role name must be rejected")
	}
	if err := r.RegisterRole("A", []Grant{{Service: "", Destination: "read"}}); err == nil {
		t.Fatal("grant with empty service must be rejected")
	}
	if err := r.RegisterRole("A", nil); err != nil {
		t.Fatalf("register A: %v", err)
	}
	if err := r.RegisterRole("A", nil); err == nil {
		t.Fatal("duplicate role must be rejected")
	}

	r.Freeze()
	if err := r.RegisterRole("B", nil); err == nil {
		t.Fatal("registration after freeze must be rejected")
	}
}

func TestHas(t *testing.T) {
	r := newTestRegistry(t)
	r.Freeze()

	if !r.Has("ADMIN") || !r.Has(Guest) {
		t.Fatal("registered roles must be visible")
	}
	if r.Has("AUDITOR") {
		t.Fatal("unregistered role must not be visible")
	}
}
