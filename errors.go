package goPortal

import "errors"

var (
	// ErrNotFound is an exported constant or variable used by the portal engine.
	ErrNotFound = errors.New("account not found")
	// ErrAccountInactive is an exported constant or variable used by the portal engine.
	ErrAccountInactive = errors.New("account inactive")
	// ErrAuthMismatch is an exported constant or variable used by the portal engine.
	ErrAuthMismatch = errors.New("credential or code mismatch")
	// ErrChallengeAttempts is an exported constant or variable used by the portal engine.
	ErrChallengeAttempts = errors.New("challenge attempts exceeded")
	// ErrChallengeExpired is an exported constant or variable used by the portal engine.
	ErrChallengeExpired = errors.New("challenge expired")
	// ErrDelivery is an exported constant or variable used by the portal engine.
	ErrDelivery = errors.New("email delivery failed")
	// ErrCooldown is an exported constant or variable used by the portal engine.
	ErrCooldown = errors.New("resend attempted during cooldown")
	// ErrValidation is an exported constant or variable used by the portal engine.
	ErrValidation = errors.New("invalid input")
	// ErrNetwork is an exported constant or variable used by the portal engine.
	ErrNetwork = errors.New("portal backend unreachable")
	// ErrSchema is an exported constant or variable used by the portal engine.
	ErrSchema = errors.New("unexpected portal backend response shape")
	// ErrNoChanges is an exported constant or variable used by the portal engine.
	ErrNoChanges = errors.New("no profile changes detected")
	// ErrEmailProofRequired is an exported constant or variable used by the portal engine.
	ErrEmailProofRequired = errors.New("new email address not yet verified")
	// ErrNoStagedChange is an exported constant or variable used by the portal engine.
	ErrNoStagedChange = errors.New("no staged profile change")
	// ErrRecoveryFallback is an exported constant or variable used by the portal engine.
	ErrRecoveryFallback = errors.New("identity verification failed, manual recovery required")
	// ErrRecoveryNotFound is an exported constant or variable used by the portal engine.
	ErrRecoveryNotFound = errors.New("recovery session not found")
	// ErrRecoveryStage is an exported constant or variable used by the portal engine.
	ErrRecoveryStage = errors.New("operation not valid in current recovery stage")
	// ErrPasswordPolicy is an exported constant or variable used by the portal engine.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrSessionNotFound is an exported constant or variable used by the portal engine.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTokenInvalid is an exported constant or variable used by the portal engine.
	ErrTokenInvalid = errors.New("invalid portal token")
	// ErrStoreUnavailable is an exported constant or variable used by the portal engine.
	ErrStoreUnavailable = errors.New("challenge store unavailable")
	// ErrEngineNotReady is an exported constant or variable used by the portal engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
