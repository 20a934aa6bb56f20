package token

import (
	"testing"
	"time"
)

func newTestService(t *testing.T, cfg Config) *Service {
	t.Helper()

	if cfg.Access.Private == nil {
		access, err := GenerateKeypair()
		if err != nil {
			t.Fatalf("generate access keypair: %v", err)
		}
		cfg.Access = access
	}
	if cfg.Refresh.Private == nil {
		refresh, err := GenerateKeypair()
		if err != nil {
			t.Fatalf("generate refresh keypair: %v", err)
		}
		cfg.Refresh = refresh
	}
	if cfg.Service.Private == nil {
		service, err := GenerateKeypair()
		if err != nil {
			t.Fatalf("generate service keypair: %v", err)
		}
		cfg.Service = service
	}

	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return svc
}

func TestCreateAndValidateAccess(t *testing.T) {
	svc := newTestService(t, Config{Issuer: "meshauth-test"})

	tokenStr, err := svc.CreateAccess("u1", "ADMIN")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	if !svc.ValidateAccess(tokenStr) {
		t.Fatal("expected freshly created access token to validate")
	}

	claims, err := svc.ParseAccess(tokenStr)
	if err != nil {
		t.Fatalf("ParseAccess failed: %v", err)
	}
	if claims.Subject != "u1" {
		t.Fatalf("subject = %q, want u1", claims.Subject)
	}
	if claims.Role != "ADMIN" {
		t.Fatalf("role = %q, want ADMIN", claims.Role)
	}
}

func TestValidateRejectsCrossKindTokens(t *testing.T) {
	svc := newTestService(t, Config{})

	access, err := svc.CreateAccess("u1", "ADMIN")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}
	refresh, err := svc.CreateRefresh("u1", "ADMIN")
	if err != nil {
		t.Fatalf("CreateRefresh failed: %v", err)
	}

	if svc.ValidateRefresh(access) {
		t.Fatal("access token must not validate as refresh token")
	}
	if svc.ValidateService(access) {
		t.Fatal("access token must not validate as service token")
	}
	if svc.ValidateAccess(refresh) {
		t.Fatal("refresh token must not validate as access token")
	}
}

func TestValidateNeverPanicsOnGarbage(t *testing.T) {
	svc := newTestService(t, Config{})

	for _, input := range []string{"", "garbage", "a.b.c", "eyJhbGciOiJub25lIn0..", "   "} {
		if svc.ValidateAccess(input) {
			t.Fatalf("ValidateAccess(%q) = true, want false", input)
		}
		if svc.ValidateRefresh(input) {
			t.Fatalf("ValidateRefresh(%q) = true, want false", input)
		}
		if svc.ValidateService(input) {
			t.Fatalf("ValidateService(%q) = true, want false", input)
		}
	}
}

func TestSharedKeypairAcrossKindsRejected(t *testing.T) {
	shared, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	other, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}

	_, err = New(Config{Access: shared, Refresh: shared, Service: other})
	if err == nil {
		t.Fatal("expected shared access/refresh keypair to be rejected")
	}
}

func TestAccessTokenExpiresWithLeeway(t *testing.T) {
	now := time.Now()
	clock := now
	svc := newTestService(t, Config{
		AccessTTL: time.Hour,
		Clock:     func() time.Time { return clock },
	})

	tokenStr, err := svc.CreateAccess("u1", "ADMIN")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	clock = now.Add(time.Hour + 30*time.Second)
	if !svc.ValidateAccess(tokenStr) {
		t.Fatal("token within the 60s leeway must still validate")
	}

	clock = now.Add(time.Hour + 61*time.Second)
	if svc.ValidateAccess(tokenStr) {
		t.Fatal("token past TTL plus leeway must not validate")
	}
}

func TestServiceCallScope(t *testing.T) {
	svc := newTestService(t, Config{})

	tokenStr, err := svc.CreateService("u1", "ADMIN", []string{"orders", "billing"}, []string{"read", "write"})
	if err != nil {
		t.Fatalf("CreateService failed: %v", err)
	}

	if !svc.ValidateServiceCall(tokenStr, "orders", "read") {
		t.Fatal("granted pair must validate")
	}
	if !svc.ValidateServiceCall(tokenStr, "billing", "write") {
		t.Fatal("granted pair must validate")
	}
	if svc.ValidateServiceCall(tokenStr, "payments", "read") {
		t.Fatal("service outside scope must not validate")
	}
	if svc.ValidateServiceCall(tokenStr, "orders", "delete") {
		t.Fatal("destination outside scope must not validate")
	}

	claims, err := svc.ParseService(tokenStr)
	if err != nil {
		t.Fatalf("ParseService failed: %v", err)
	}
	if len(claims.Services) != 2 || len(claims.Destinations) != 2 {
		t.Fatalf("unexpected scope lists: %v / %v", claims.Services, claims.Destinations)
	}
}

func TestIssuerMismatchRejected(t *testing.T) {
	access, _ := GenerateKeypair()
	refresh, _ := GenerateKeypair()
	service, _ := GenerateKeypair()

	issuerA := newTestService(t, Config{
		Access: access, Refresh: refresh, Service: service,
		Issuer: "cluster-a",
	})
	issuerB := newTestService(t, Config{
		Access: access, Refresh: refresh, Service: service,
		Issuer: "cluster-b",
	})

	tokenStr, err := issuerA.CreateAccess("u1", "ADMIN")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	if issuerB.ValidateAccess(tokenStr) {
		t.Fatal("token from a different issuer must not validate")
	}
}

func TestUnverifiedSubject(t *testing.T) {
	svc := newTestService(t, Config{})

	tokenStr, err := svc.CreateRefresh("u7", "USER")
	if err != nil {
		t.Fatalf("CreateRefresh failed: %v", err)
	}

	if got := svc.UnverifiedSubject(tokenStr); got != "u7" {
		t.Fatalf("UnverifiedSubject = %q, want u7", got)
	}
	if got := svc.UnverifiedSubject("not-a-token"); got != "" {
		t.Fatalf("UnverifiedSubject on garbage = %q, want empty", got)
	}
}

func TestLeewayCapRejected(t *testing.T) {
	access, _ := GenerateKeypair()
	refresh, _ := GenerateKeypair()
	service, _ := GenerateKeypair()

	_, err := New(Config{
		Access: access, Refresh: refresh, Service: service,
		Leeway: 3 * time.Minute,
	})
	if err == nil {
		t.Fatal("expected leeway above two minutes to be rejected")
	}
}
