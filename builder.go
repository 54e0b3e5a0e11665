package goPortal

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goPortal/directory"
	"github.com/MrEthical07/goPortal/internal/seal"
	"github.com/MrEthical07/goPortal/mailer"
	"github.com/MrEthical07/goPortal/session"
	"github.com/MrEthical07/goPortal/token"
)

// Builder defines a public type used by goPortal APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  *redis.Client

	directory directory.Client
	mailer    mailer.Sender
	auditSink AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithDirectory describes the withdirectory operation and its observable behavior.
//
// WithDirectory may return an error when input validation, dependency calls, or security checks fail.
// WithDirectory does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithDirectory(client directory.Client) *Builder {
	b.directory = client
	return b
}

// WithMailer describes the withmailer operation and its observable behavior.
//
// WithMailer may return an error when input validation, dependency calls, or security checks fail.
// WithMailer does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMailer(sender mailer.Sender) *Builder {
	b.mailer = sender
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.directory == nil {
		return nil, errors.New("directory client required")
	}
	if b.mailer == nil {
		return nil, errors.New("mailer required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Snapshot.SealKey) == 0 {
		return nil, errors.New("Snapshot.SealKey required")
	}

	// -------- SESSION STORE --------
	store := session.NewStore(b.redis, cfg.Session.RedisPrefix, true)

	sealer, err := seal.New(cfg.Snapshot.SealKey, cfg.Snapshot.Namespace)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cloneConfig(cfg),
		sessionStore: store,
	}

	engine.directory = b.directory
	engine.mailer = b.mailer
	engine.challengeStore = newChallengeStore(b.redis, cfg.Challenge.RedisPrefix)
	engine.resendLimiter = newResendLimiter(b.redis, cfg.Challenge.RedisPrefix, cfg.Challenge.ResendCooldown)
	engine.trustStore = newTrustStore(b.redis, cfg.DeviceTrust.RedisPrefix)
	engine.recoveryStore = newRecoveryStore(b.redis, cfg.Recovery.RedisPrefix)
	engine.stagedStore = newStagedChangeStore(b.redis, cfg.ProfileUpdate.RedisPrefix)
	engine.snapshotStore = newSnapshotStore(b.redis, sealer, cfg.Snapshot.Namespace)
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	tm, err := token.NewManager(token.Config{
		TTL:           cfg.Token.TTL,
		SigningMethod: token.SigningMethod(cfg.Token.SigningMethod),
		PrivateKey:    cloneBytes(cfg.Token.PrivateKey),
		PublicKey:     cloneBytes(cfg.Token.PublicKey),
	})
	if err != nil {
		return nil, err
	}
	engine.tokenManager = tm

	b.built = true

	return engine, nil
}
