package meshauth

import (
	"errors"
	"time"
)

// Config defines a public type used by meshauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Token   TokenConfig
	Session SessionConfig
	Refresh RefreshConfig
	Guest   GuestConfig
	Audit   AuditConfig
	Cleanup CleanupConfig
	Metrics MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig carries the per-kind Ed25519 keypairs and lifetimes. Keys may
// be raw (32/64-byte) or PEM-encoded; each kind must use a distinct keypair.
type TokenConfig struct {
	AccessPrivateKey  []byte
	AccessPublicKey   []byte
	RefreshPrivateKey []byte
	RefreshPublicKey  []byte
	ServicePrivateKey []byte
	ServicePublicKey  []byte

	AccessTTL  time.Duration // default 24h
	RefreshTTL time.Duration // default 7d
	ServiceTTL time.Duration // default 30s
	Leeway     time.Duration // default 60s, capped at 2m

	Issuer string
}

/*
====================================
STORE CONFIG
====================================
*/

// SessionConfig defines a public type used by meshauth APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	RedisPrefix string
}

// RefreshConfig defines a public type used by meshauth APIs.
//
// RefreshConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RefreshConfig struct {
	RedisPrefix string
}

/*
====================================
GUEST CONFIG
====================================
*/

// GuestConfig defines a public type used by meshauth APIs.
//
// GuestConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type GuestConfig struct {
	// IDPrefix is prepended to generated guest user IDs so downstream logs
	// can tell guests from registered users at a glance.
	IDPrefix string
}

/*
====================================
AUDIT / CLEANUP / METRICS CONFIG
====================================
*/

// AuditConfig defines a public type used by meshauth APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// CleanupConfig controls the detached worker that runs best-effort
// revocations off the request path.
type CleanupConfig struct {
	BufferSize int
	// TaskTimeout bounds each background deletion. Zero selects 5s.
	TaskTimeout time.Duration
}

// MetricsConfig defines a public type used by meshauth APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:  24 * time.Hour,
			RefreshTTL: 7 * 24 * time.Hour,
			ServiceTTL: 30 * time.Second,
			Leeway:     60 * time.Second,
		},
		Session: SessionConfig{
			RedisPrefix: "ms",
		},
		Refresh: RefreshConfig{
			RedisPrefix: "ms",
		},
		Guest: GuestConfig{
			IDPrefix: "guest-",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Cleanup: CleanupConfig{
			BufferSize:  256,
			TaskTimeout: 5 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the invariants that Build depends on.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
func (c Config) Validate() error {
	if c.Token.AccessTTL < 0 || c.Token.RefreshTTL < 0 || c.Token.ServiceTTL < 0 {
		return errors.New("token TTLs must not be negative")
	}
	if c.Token.ServiceTTL > c.Token.AccessTTL && c.Token.AccessTTL > 0 {
		return errors.New("service token TTL must not exceed access token TTL")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("token leeway out of range")
	}
	if c.Cleanup.BufferSize < 0 || c.Audit.BufferSize < 0 {
		return errors.New("buffer sizes must not be negative")
	}
	if c.Cleanup.TaskTimeout < 0 {
		return errors.New("cleanup task timeout must not be negative")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.AccessPrivateKey = cloneBytes(cfg.Token.AccessPrivateKey)
	out.Token.AccessPublicKey = cloneBytes(cfg.Token.AccessPublicKey)
	out.Token.RefreshPrivateKey = cloneBytes(cfg.Token.RefreshPrivateKey)
	out.Token.RefreshPublicKey = cloneBytes(cfg.Token.RefreshPublicKey)
	out.Token.ServicePrivateKey = cloneBytes(cfg.Token.ServicePrivateKey)
	out.Token.ServicePublicKey = cloneBytes(cfg.Token.ServicePublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
