package goPortal

import (
	"context"
)

// RequestPasswordChange describes the requestpasswordchange operation and its observable behavior.
//
// RequestPasswordChange may return an error when input validation, dependency calls, or security checks fail.
// RequestPasswordChange does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RequestPasswordChange(ctx context.Context, sessionID string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	principal, err := e.principalForSession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if principal.Email == "" {
		return "", ErrValidation
	}

	if err := e.issueChallenge(ctx, principal.UID, principal.Email, principal.Name, PurposePasswordChange); err != nil {
		return "", err
	}
	return maskEmail(principal.Email), nil
}

// ConfirmPasswordChange describes the confirmpasswordchange operation and its observable behavior.
//
// ConfirmPasswordChange may return an error when input validation, dependency calls, or security checks fail.
// ConfirmPasswordChange does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ConfirmPasswordChange(ctx context.Context, sessionID, code, newPassword, confirmPassword string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	principal, err := e.principalForSession(ctx, sessionID)
	if err != nil {
		return err
	}

	if _, err := e.verifyChallenge(ctx, principal.UID, PurposePasswordChange, code); err != nil {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, principal.UID, sessionID, err, nil)
		return err
	}

	if len(newPassword) < e.config.Recovery.MinPasswordLength || newPassword != confirmPassword {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, principal.UID, sessionID, ErrPasswordPolicy, nil)
		return ErrPasswordPolicy
	}

	if err := e.directory.UpdatePassword(ctx, principal.UID, newPassword); err != nil {
		mapped := mapDirectoryError(err)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, principal.UID, sessionID, mapped, nil)
		return mapped
	}

	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, principal.UID, sessionID, nil, nil)
	return nil
}
