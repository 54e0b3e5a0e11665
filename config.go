package goPortal

import (
	"errors"
	"time"
)

// Config defines a public type used by goPortal APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Challenge     ChallengeConfig
	DeviceTrust   DeviceTrustConfig
	Session       SessionConfig
	Token         TokenConfig
	Recovery      RecoveryConfig
	ProfileUpdate ProfileUpdateConfig
	Snapshot      SnapshotConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
}

/*
====================================
CHALLENGE CONFIG
====================================
*/

// ChallengeConfig defines a public type used by goPortal APIs.
//
// ChallengeConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ChallengeConfig struct {
	OTPDigits      int
	ChallengeTTL   time.Duration
	MaxAttempts    int
	ResendCooldown time.Duration
	RedisPrefix    string
}

// DeviceTrustConfig defines a public type used by goPortal APIs.
//
// DeviceTrustConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type DeviceTrustConfig struct {
	Enabled     bool
	RedisPrefix string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by goPortal APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	RedisPrefix string
	IdleTimeout time.Duration
}

// TokenConfig defines a public type used by goPortal APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	TTL           time.Duration
}

// RecoveryConfig defines a public type used by goPortal APIs.
//
// RecoveryConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RecoveryConfig struct {
	Enabled           bool
	WizardTTL         time.Duration
	MinPasswordLength int
	NationalIDLength  int
	RedisPrefix       string
	SupportEmail      string
}

// ProfileUpdateConfig defines a public type used by goPortal APIs.
//
// ProfileUpdateConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ProfileUpdateConfig struct {
	Enabled          bool
	StagedTTL        time.Duration
	PhoneDigits      int
	AccountNumberMax int
	RedisPrefix      string
	AdminEmail       string
}

// SnapshotConfig controls the sealed principal snapshots the identity
// store persists across reloads. Namespace keys the Redis entries and
// scopes the derived sealing key; SealKey must be high-entropy secret
// material.
type SnapshotConfig struct {
	Namespace string
	SealKey   []byte
}

// AuditConfig defines a public type used by goPortal APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goPortal APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration: 6-digit codes valid
// for 10 minutes with 5 attempts and a 30s resend cooldown, device trust
// on, 30-minute idle sessions, and the original portal's validation
// bounds (12-digit national ID, 10-digit phone, 16-char account number).
func DefaultConfig() Config {
	return Config{
		Challenge: ChallengeConfig{
			OTPDigits:      6,
			ChallengeTTL:   10 * time.Minute,
			MaxAttempts:    5,
			ResendCooldown: 30 * time.Second,
			RedisPrefix:    "ppc",
		},
		DeviceTrust: DeviceTrustConfig{
			Enabled:     true,
			RedisPrefix: "ppt",
		},
		Session: SessionConfig{
			RedisPrefix: "pps",
			IdleTimeout: 30 * time.Minute,
		},
		Token: TokenConfig{
			SigningMethod: "ed25519",
			TTL:           12 * time.Hour,
		},
		Recovery: RecoveryConfig{
			Enabled:           true,
			WizardTTL:         15 * time.Minute,
			MinPasswordLength: 6,
			NationalIDLength:  12,
			RedisPrefix:       "ppr",
		},
		ProfileUpdate: ProfileUpdateConfig{
			Enabled:          true,
			StagedTTL:        30 * time.Minute,
			PhoneDigits:      10,
			AccountNumberMax: 16,
			RedisPrefix:      "ppu",
		},
		Snapshot: SnapshotConfig{
			Namespace: "portal",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c Config) Validate() error {
	if c.Challenge.OTPDigits < 6 || c.Challenge.OTPDigits > 10 {
		return errors.New("Challenge.OTPDigits must be between 6 and 10")
	}
	if c.Challenge.ChallengeTTL <= 0 {
		return errors.New("Challenge.ChallengeTTL must be positive")
	}
	if c.Challenge.MaxAttempts <= 0 {
		return errors.New("Challenge.MaxAttempts must be positive")
	}
	if c.Challenge.ResendCooldown < 0 {
		return errors.New("Challenge.ResendCooldown must not be negative")
	}
	if c.Session.IdleTimeout <= 0 {
		return errors.New("Session.IdleTimeout must be positive")
	}
	if c.Token.SigningMethod != "ed25519" && c.Token.SigningMethod != "hs256" {
		return errors.New("Token.SigningMethod must be ed25519 or hs256")
	}
	if c.Token.TTL <= 0 {
		return errors.New("Token.TTL must be positive")
	}
	if c.Recovery.Enabled {
		if c.Recovery.WizardTTL <= 0 {
			return errors.New("Recovery.WizardTTL must be positive")
		}
		if c.Recovery.MinPasswordLength <= 0 {
			return errors.New("Recovery.MinPasswordLength must be positive")
		}
		if c.Recovery.NationalIDLength <= 0 {
			return errors.New("Recovery.NationalIDLength must be positive")
		}
	}
	if c.ProfileUpdate.Enabled {
		if c.ProfileUpdate.StagedTTL <= 0 {
			return errors.New("ProfileUpdate.StagedTTL must be positive")
		}
		if c.ProfileUpdate.PhoneDigits <= 0 {
			return errors.New("ProfileUpdate.PhoneDigits must be positive")
		}
		if c.ProfileUpdate.AccountNumberMax <= 0 {
			return errors.New("ProfileUpdate.AccountNumberMax must be positive")
		}
	}
	if c.Snapshot.Namespace == "" {
		return errors.New("Snapshot.Namespace must not be empty")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	out.Snapshot.SealKey = cloneBytes(cfg.Snapshot.SealKey)
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
