package meshauth

import (
	"errors"

	"github.com/meshtrust/meshauth/refresh"
	"github.com/meshtrust/meshauth/role"
	"github.com/meshtrust/meshauth/session"
	"github.com/meshtrust/meshauth/token"
	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by meshauth APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	roles map[string][]role.Grant

	auditSink AuditSink

	built bool
}

// New returns a [Builder] seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration with a defensive copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the session and refresh stores.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithRoles sets the role table: role name to the capability grants that role
// may exercise.
func (b *Builder) WithRoles(r map[string][]role.Grant) *Builder {
	b.roles = r
	return b
}

// WithAuditSink sets the sink that receives audit events when auditing is
// enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles counter recording.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles latency histogram recording.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the accumulated configuration and returns a ready [Engine].
//
// Build may return an error when input validation, dependency calls, or security checks fail.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if len(b.roles) == 0 {
		return nil, errors.New("roles must be provided")
	}

	// -------- ROLE REGISTRY --------
	registry := role.NewRegistry()

	for roleName, grants := range b.roles {
		if err := registry.RegisterRole(roleName, grants); err != nil {
			return nil, err
		}
	}

	// Guests always exist as a role, even when the table grants them nothing.
	if !registry.Has(role.Guest) {
		if err := registry.RegisterRole(role.Guest, nil); err != nil {
			return nil, err
		}
	}

	registry.Freeze()

	// -------- TOKEN SERVICE --------
	tokens, err := token.New(token.Config{
		Access: token.Keypair{
			Private: cloneBytes(cfg.Token.AccessPrivateKey),
			Public:  cloneBytes(cfg.Token.AccessPublicKey),
		},
		Refresh: token.Keypair{
			Private: cloneBytes(cfg.Token.RefreshPrivateKey),
			Public:  cloneBytes(cfg.Token.RefreshPublicKey),
		},
		Service: token.Keypair{
			Private: cloneBytes(cfg.Token.ServicePrivateKey),
			Public:  cloneBytes(cfg.Token.ServicePublicKey),
		},
		AccessTTL:  cfg.Token.AccessTTL,
		RefreshTTL: cfg.Token.RefreshTTL,
		ServiceTTL: cfg.Token.ServiceTTL,
		Leeway:     cfg.Token.Leeway,
		Issuer:     cfg.Token.Issuer,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cfg,
		tokens:       tokens,
		roles:        registry,
		sessionStore: session.NewStore(b.redis, cfg.Session.RedisPrefix),
		refreshStore: refresh.NewStore(b.redis, cfg.Refresh.RedisPrefix),
	}

	engine.metrics = NewMetrics(cfg.Metrics)
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.cleanup = newCleanupDispatcher(cfg.Cleanup, engine.metrics)

	b.built = true

	return engine, nil
}
