package goPortal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goPortal/internal"
	"github.com/MrEthical07/goPortal/mailer"
)

// issueChallenge generates a fresh one-time code, persists its digest, and
// delivers it to targetEmail. The plaintext code never outlives this call.
// A failed delivery rolls back both the stored digest and the cooldown so
// the caller can retry immediately.
func (e *Engine) issueChallenge(
	ctx context.Context,
	principalID, targetEmail, displayName string,
	purpose Purpose,
) error {
	if remaining, err := e.resendLimiter.Reserve(ctx, principalID, purpose); err != nil {
		if errors.Is(err, errResendCoolingDown) {
			e.metricInc(MetricChallengeCooldownHit)
			return fmt.Errorf("%w: retry in %s", ErrCooldown, remaining.Round(time.Second))
		}
		return ErrStoreUnavailable
	}

	code, err := internal.NewOTP(e.config.Challenge.OTPDigits)
	if err != nil {
		_ = e.resendLimiter.Release(ctx, principalID, purpose)
		return err
	}

	record := &challengeRecord{
		PrincipalID: principalID,
		TargetEmail: targetEmail,
		SecretHash:  internal.HashCode(code),
		ExpiresAt:   time.Now().Add(e.config.Challenge.ChallengeTTL).Unix(),
		Purpose:     purpose,
	}
	if err := e.challengeStore.Save(ctx, record, e.config.Challenge.ChallengeTTL); err != nil {
		_ = e.resendLimiter.Release(ctx, principalID, purpose)
		return ErrStoreUnavailable
	}

	msg := mailer.Message{
		To:   targetEmail,
		Name: displayName,
		Body: fmt.Sprintf("Your verification code is %s. It expires in %d minutes.",
			code, int(e.config.Challenge.ChallengeTTL.Minutes())),
	}
	if err := e.mailer.Send(ctx, msg); err != nil {
		_ = e.challengeStore.Drop(ctx, principalID, purpose)
		_ = e.resendLimiter.Release(ctx, principalID, purpose)
		e.metricInc(MetricDeliveryFailure)
		e.emitAudit(ctx, auditEventChallengeIssued, false, principalID, "", ErrDelivery, func() map[string]string {
			return map[string]string{"purpose": purpose.String()}
		})
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	e.metricInc(MetricChallengeIssued)
	e.emitAudit(ctx, auditEventChallengeIssued, true, principalID, "", nil, func() map[string]string {
		return map[string]string{"purpose": purpose.String()}
	})
	return nil
}

// verifyChallenge consumes the active challenge for (principalID, purpose).
// A matching code atomically deletes the challenge; a wrong code burns one
// attempt and leaves the challenge live until the cap.
func (e *Engine) verifyChallenge(
	ctx context.Context,
	principalID string,
	purpose Purpose,
	code string,
) (*challengeRecord, error) {
	if code == "" || !internal.IsNumericString(code) || len(code) != e.config.Challenge.OTPDigits {
		e.metricInc(MetricChallengeFailure)
		return nil, ErrValidation
	}

	record, err := e.challengeStore.Consume(ctx, principalID, purpose, internal.HashCode(code), e.config.Challenge.MaxAttempts)
	if err != nil {
		switch {
		case errors.Is(err, errChallengeSecretMismatch):
			e.metricInc(MetricChallengeFailure)
			return nil, ErrAuthMismatch
		case errors.Is(err, errChallengeAttemptsExceeded):
			e.metricInc(MetricChallengeAttemptsExceeded)
			return nil, ErrChallengeAttempts
		case errors.Is(err, errChallengeNotFound), errors.Is(err, redis.Nil):
			e.metricInc(MetricChallengeExpired)
			return nil, ErrChallengeExpired
		default:
			return nil, ErrStoreUnavailable
		}
	}

	e.metricInc(MetricChallengeSuccess)
	return record, nil
}

// ResendChallenge describes the resendchallenge operation and its observable behavior.
//
// ResendChallenge may return an error when input validation, dependency calls, or security checks fail.
// ResendChallenge does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ResendChallenge(ctx context.Context, principalID string, purpose Purpose) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if principalID == "" || purpose >= purposeCount {
		return ErrValidation
	}

	record, err := e.challengeStore.Peek(ctx, principalID, purpose)
	if err != nil {
		if errors.Is(err, errChallengeNotFound) {
			return ErrChallengeExpired
		}
		return ErrStoreUnavailable
	}

	if err := e.issueChallenge(ctx, principalID, record.TargetEmail, "", purpose); err != nil {
		e.emitAudit(ctx, auditEventChallengeResend, false, principalID, "", err, func() map[string]string {
			return map[string]string{"purpose": purpose.String()}
		})
		return err
	}

	e.metricInc(MetricChallengeResent)
	e.emitAudit(ctx, auditEventChallengeResend, true, principalID, "", nil, func() map[string]string {
		return map[string]string{"purpose": purpose.String()}
	})
	return nil
}
