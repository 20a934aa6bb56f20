package token

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultAccessTTL  = 24 * time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
	defaultServiceTTL = 30 * time.Second
	defaultLeeway     = 60 * time.Second
)

// Keypair carries one Ed25519 keypair, either raw (32/64-byte) or PEM-encoded.
type Keypair struct {
	Private []byte
	Public  []byte
}

// Config defines a public type used by meshauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Access  Keypair
	Refresh Keypair
	Service Keypair

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ServiceTTL time.Duration

	Issuer string

	// Leeway is the clock-skew tolerance applied during verification.
	// Zero selects the 60s default; values above two minutes are rejected.
	Leeway time.Duration

	// Clock overrides the time source. Tests use it to simulate expiry.
	Clock func() time.Time
}

// Claims is the payload of access and refresh tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ServiceClaims is the payload of single-call service tokens. Services and
// Destinations scope the token to exactly the downstream calls it authorizes.
type ServiceClaims struct {
	Role         string   `json:"role"`
	Services     []string `json:"services"`
	Destinations []string `json:"destinations"`
	jwt.RegisteredClaims
}

type keyset struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
	ttl     time.Duration
}

// Service signs and verifies all three token kinds.
//
// Service instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Service struct {
	access  keyset
	refresh keyset
	service keyset
	issuer  string
	leeway  time.Duration
	now     func() time.Time
}

// New validates cfg and returns a ready [Service].
//
// New may return an error when input validation, dependency calls, or security checks fail.
func New(cfg Config) (*Service, error) {
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	if cfg.ServiceTTL == 0 {
		cfg.ServiceTTL = defaultServiceTTL
	}
	if cfg.AccessTTL < 0 || cfg.RefreshTTL < 0 || cfg.ServiceTTL < 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway == 0 {
		cfg.Leeway = defaultLeeway
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	access, err := newKeyset(cfg.Access, cfg.AccessTTL)
	if err != nil {
		return nil, errors.Join(errors.New("access keypair"), err)
	}
	refresh, err := newKeyset(cfg.Refresh, cfg.RefreshTTL)
	if err != nil {
		return nil, errors.Join(errors.New("refresh keypair"), err)
	}
	service, err := newKeyset(cfg.Service, cfg.ServiceTTL)
	if err != nil {
		return nil, errors.Join(errors.New("service keypair"), err)
	}

	// Shared keys across kinds would let one verifier accept another kind.
	if bytes.Equal(access.public, refresh.public) ||
		bytes.Equal(access.public, service.public) ||
		bytes.Equal(refresh.public, service.public) {
		return nil, errors.New("token kinds must not share keypairs")
	}

	return &Service{
		access:  access,
		refresh: refresh,
		service: service,
		issuer:  cfg.Issuer,
		leeway:  cfg.Leeway,
		now:     cfg.Clock,
	}, nil
}

// GenerateKeypair returns a fresh raw Ed25519 keypair, for bootstrap and tests.
func GenerateKeypair() (Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Keypair{}, err
	}
	return Keypair{Private: priv, Public: pub}, nil
}

func newKeyset(kp Keypair, ttl time.Duration) (keyset, error) {
	priv, err := parseEdPrivateKey(kp.Private)
	if err != nil {
		return keyset{}, err
	}
	pub, err := parseEdPublicKey(kp.Public)
	if err != nil {
		return keyset{}, err
	}
	return keyset{private: priv, public: pub, ttl: ttl}, nil
}

// AccessTTL returns the lifetime applied to newly signed access tokens.
func (s *Service) AccessTTL() time.Duration {
	return s.access.ttl
}

// RefreshTTL returns the lifetime applied to newly signed refresh tokens.
func (s *Service) RefreshTTL() time.Duration {
	return s.refresh.ttl
}

// CreateAccess signs a short-lived access token for userID with the given role.
func (s *Service) CreateAccess(userID, role string) (string, error) {
	return s.signUser(s.access, userID, role)
}

// CreateRefresh signs a long-lived refresh token for userID with the given role.
func (s *Service) CreateRefresh(userID, role string) (string, error) {
	return s.signUser(s.refresh, userID, role)
}

// CreateService signs a single-call service token scoped to exactly the
// requested (service, destination) capability lists.
func (s *Service) CreateService(userID, role string, services, destinations []string) (string, error) {
	now := s.now()
	claims := ServiceClaims{
		Role:         role,
		Services:     append([]string(nil), services...),
		Destinations: append([]string(nil), destinations...),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.service.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(s.service.private)
}

func (s *Service) signUser(ks keyset, userID, role string) (string, error) {
	now := s.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ks.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(ks.private)
}

// ValidateAccess reports whether tokenStr is a currently valid access token.
// It never returns an error: every failure mode resolves to false.
func (s *Service) ValidateAccess(tokenStr string) bool {
	var claims Claims
	return s.parse(s.access, tokenStr, &claims) == nil
}

// ValidateRefresh reports whether tokenStr is a currently valid refresh token.
func (s *Service) ValidateRefresh(tokenStr string) bool {
	var claims Claims
	return s.parse(s.refresh, tokenStr, &claims) == nil
}

// ValidateService reports whether tokenStr is a currently valid service token.
func (s *Service) ValidateService(tokenStr string) bool {
	var claims ServiceClaims
	return s.parse(s.service, tokenStr, &claims) == nil
}

// ValidateServiceCall reports whether tokenStr is a valid service token whose
// scope covers the given service and destination. Downstream services call
// this before acting, independent of the orchestration layer's own checks.
func (s *Service) ValidateServiceCall(tokenStr, service, destination string) bool {
	var claims ServiceClaims
	if err := s.parse(s.service, tokenStr, &claims); err != nil {
		return false
	}
	return containsString(claims.Services, service) && containsString(claims.Destinations, destination)
}

// ParseAccess returns the claims of a validated access token. It is intended
// to be called only after [Service.ValidateAccess] succeeded; it still returns
// an error defensively rather than panicking on a hostile payload.
func (s *Service) ParseAccess(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if err := s.parse(s.access, tokenStr, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefresh returns the claims of a validated refresh token.
func (s *Service) ParseRefresh(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if err := s.parse(s.refresh, tokenStr, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseService returns the claims of a validated service token.
func (s *Service) ParseService(tokenStr string) (*ServiceClaims, error) {
	claims := &ServiceClaims{}
	if err := s.parse(s.service, tokenStr, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// UnverifiedSubject extracts the subject claim without verifying the
// signature. The engine uses it solely to target best-effort revocation of
// refresh records behind tokens that failed validation; it must never feed an
// authorization decision.
func (s *Service) UnverifiedSubject(tokenStr string) string {
	if tokenStr == "" {
		return ""
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return ""
	}
	return claims.Subject
}

func (s *Service) parse(ks keyset, tokenStr string, claims jwt.Claims) error {
	if tokenStr == "" {
		return jwt.ErrTokenMalformed
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		options = append(options, jwt.WithIssuer(s.issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return ks.public, nil
	})
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return jwt.ErrTokenInvalidClaims
	}
	return nil
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	if len(key) == ed25519.SeedSize {
		return ed25519.NewKeyFromSeed(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
