package goPortal

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess             = "login_success"
	auditEventLoginFailure             = "login_failure"
	auditEventLoginChallengeRequired   = "login_challenge_required"
	auditEventLoginTrustedSkip         = "login_trusted_skip"
	auditEventChallengeIssued          = "challenge_issued"
	auditEventChallengeConfirm         = "challenge_confirm"
	auditEventChallengeResend          = "challenge_resend"
	auditEventSessionResumed           = "session_resumed"
	auditEventSessionExpired           = "session_expired"
	auditEventLogoutSession            = "logout_session"
	auditEventRecoveryStarted          = "recovery_started"
	auditEventRecoveryConfirm          = "recovery_confirm"
	auditEventRecoveryCompleted        = "recovery_completed"
	auditEventRecoveryTicketSubmitted  = "recovery_ticket_submitted"
	auditEventProfileUpdateStaged      = "profile_update_staged"
	auditEventProfileUpdateSubmitted   = "profile_update_submitted"
	auditEventPasswordChangeSuccess    = "password_change_success"
	auditEventPasswordChangeFailure    = "password_change_failure"
	auditEventTrustMarked              = "device_trust_marked"
	auditEventTrustCleared             = "device_trust_cleared"
	auditEventPresenceBeacon           = "presence_beacon"
)

// AuditErrorCode defines a public type used by goPortal APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrAuthMismatch      AuditErrorCode = "auth_mismatch"
	auditErrNotFound          AuditErrorCode = "not_found"
	auditErrAccountInactive   AuditErrorCode = "account_inactive"
	auditErrChallengeAttempts AuditErrorCode = "challenge_attempts_exceeded"
	auditErrChallengeExpired  AuditErrorCode = "challenge_expired"
	auditErrDelivery          AuditErrorCode = "delivery_failed"
	auditErrCooldown          AuditErrorCode = "resend_cooldown"
	auditErrValidation        AuditErrorCode = "validation_failed"
	auditErrNetwork           AuditErrorCode = "backend_unavailable"
	auditErrSchema            AuditErrorCode = "schema_mismatch"
	auditErrSessionNotFound   AuditErrorCode = "session_not_found"
	auditErrTokenInvalid      AuditErrorCode = "invalid_token"
	auditErrPasswordPolicy    AuditErrorCode = "password_policy"
	auditErrRecoveryMismatch  AuditErrorCode = "recovery_mismatch"
	auditErrRecoveryStage     AuditErrorCode = "recovery_stage"
	auditErrNoChanges         AuditErrorCode = "no_changes"
	auditErrInternal          AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	principalID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp:   time.Now().UTC(),
		EventType:   eventType,
		PrincipalID: principalID,
		SessionID:   sessionID,
		IP:          clientIPFromContext(ctx),
		Success:     success,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	// The metadata closure travels with the event and runs on the
	// dispatcher worker, never on the workflow path.
	e.audit.Emit(ctx, event, metadataBuilder)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrAuthMismatch):
		return auditErrAuthMismatch
	case errors.Is(err, ErrRecoveryNotFound):
		return auditErrRecoveryMismatch
	case errors.Is(err, ErrNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrAccountInactive):
		return auditErrAccountInactive
	case errors.Is(err, ErrChallengeAttempts):
		return auditErrChallengeAttempts
	case errors.Is(err, ErrChallengeExpired):
		return auditErrChallengeExpired
	case errors.Is(err, ErrDelivery):
		return auditErrDelivery
	case errors.Is(err, ErrCooldown):
		return auditErrCooldown
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrNetwork), errors.Is(err, ErrStoreUnavailable):
		return auditErrNetwork
	case errors.Is(err, ErrSchema):
		return auditErrSchema
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrTokenInvalid):
		return auditErrTokenInvalid
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrRecoveryFallback):
		return auditErrRecoveryMismatch
	case errors.Is(err, ErrRecoveryStage):
		return auditErrRecoveryStage
	case errors.Is(err, ErrNoChanges), errors.Is(err, ErrNoStagedChange):
		return auditErrNoChanges
	default:
		return auditErrInternal
	}
}
