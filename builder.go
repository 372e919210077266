package seedauth

import (
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	internalaudit "github.com/seedkit/seedauth/internal/audit"
	"github.com/seedkit/seedauth/internal/flows"
	"github.com/seedkit/seedauth/jwt"
	"github.com/seedkit/seedauth/permission"
	"github.com/seedkit/seedauth/session"
	"go.uber.org/zap"
)

// Builder assembles an Engine. A Builder can be built once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	roles     []string
	abilities []string

	directory UserDirectory
	logger    *zap.Logger
	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder configuration with a copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the session store backend. Any go-redis client, ring or cluster
// client works.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithDirectory sets the user directory consulted after the token checks.
// Without a directory every authorized request carries a nil identity and routes
// with requirements deny with ErrIdentityNotFound.
func (b *Builder) WithDirectory(dir UserDirectory) *Builder {
	b.directory = dir
	return b
}

// WithRoles declares the role names routes may reference. Declaring any role or
// ability enables Engine.CheckRoute.
func (b *Builder) WithRoles(names ...string) *Builder {
	b.roles = append(b.roles, names...)
	return b
}

// WithAbilities declares the ability names routes may reference.
func (b *Builder) WithAbilities(names ...string) *Builder {
	b.abilities = append(b.abilities, names...)
	return b
}

// WithLogger sets the engine logger. A nil logger, or none, means zap.NewNop.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the sink receiving audit events when auditing is enabled.
// Without a sink, events are logged through the engine logger.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled overrides Config.Metrics.Enabled.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms overrides Config.Metrics.EnableLatencyHistograms. It has no
// effect while metrics are disabled.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock replaces time.Now for token timestamps, ban checks and the renewal window.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// -------- NAME REGISTRY --------
	var registry *permission.Registry
	if len(b.roles) > 0 || len(b.abilities) > 0 {
		registry = permission.NewRegistry()
		if err := registry.Register(permission.KindRole, b.roles...); err != nil {
			return nil, err
		}
		if err := registry.Register(permission.KindAbility, b.abilities...); err != nil {
			return nil, err
		}
		registry.Freeze()
	}

	// -------- TOKEN CODEC --------
	codec, err := jwt.NewManager(jwt.Config{
		Secret:        cloneBytes(cfg.JWT.Secret),
		SigningMethod: jwt.SigningMethod(strings.ToUpper(cfg.JWT.Algorithm)),
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}
	codec = codec.WithClock(now)

	// -------- SESSION STORE --------
	store := session.NewStore(b.redis, cfg.Session.KeyPrefix)

	mode, err := cfg.Credential.resolverMode()
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cloneConfig(cfg),
		registry:     registry,
		codec:        codec,
		sessionStore: store,
		logger:       logger.Named("seedauth"),
		metrics:      NewMetrics(cfg.Metrics),
		now:          now,
	}

	sink := b.auditSink
	if sink == nil {
		sink = internalaudit.NewZapSink(logger)
	}
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		OnDrop: func(internalaudit.Event) {
			engine.metricInc(MetricAuditDropped)
		},
	}, sink, engine.logger)

	var directory flows.Directory
	if b.directory != nil {
		directory = b.directory
	}

	issue := flows.IssueDeps{
		Codec:        codec,
		SessionStore: store,
		AccessTTL:    cfg.JWT.AccessTokenTTL,
		RefreshTTL:   cfg.JWT.RefreshTokenTTL,
	}
	engine.flows = flows.New(flows.Deps{
		Authenticate: flows.AuthenticateDeps{
			Resolver:     credentialResolver(mode, cfg.Cookie),
			Codec:        codec,
			SessionStore: store,
			Directory:    directory,
			Now:          now,
		},
		Issue: issue,
		Refresh: flows.RefreshDeps{
			Issue:         issue,
			RenewalWindow: cfg.JWT.RenewalWindow,
			Now:           now,
		},
		Logout:        flows.LogoutDeps{SessionStore: store},
		Introspection: flows.IntrospectionDeps{Codec: codec, SessionStore: store},
	})

	b.built = true
	engine.logger.Info("engine built",
		zap.String("algorithm", cfg.JWT.Algorithm),
		zap.String("credential_mode", cfg.Credential.Mode),
		zap.Bool("directory", directory != nil),
		zap.Bool("audit", cfg.Audit.Enabled),
	)

	return engine, nil
}
