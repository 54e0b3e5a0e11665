package goPortal

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goPortal/directory"
	"github.com/MrEthical07/goPortal/internal"
	"github.com/MrEthical07/goPortal/session"
)

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if strings.TrimSpace(identifier) == "" || password == "" {
		e.metricInc(MetricLoginFailure)
		return nil, ErrValidation
	}

	result, err := e.directory.Login(ctx, identifier, password)
	if err != nil {
		mapped := mapDirectoryError(err)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identifier, "", mapped, nil)
		return nil, mapped
	}

	principal := principalFromAccount(result)
	if principal.Status != AccountActive {
		e.metricInc(MetricLoginInactive)
		e.emitAudit(ctx, auditEventLoginFailure, false, principal.UID, "", ErrAccountInactive, nil)
		return nil, ErrAccountInactive
	}

	if e.challengeNeeded(ctx, principal.UID) {
		if err := e.issueChallenge(ctx, principal.UID, principal.Email, principal.Name, PurposeLogin); err != nil {
			return nil, err
		}
		e.emitAudit(ctx, auditEventLoginChallengeRequired, true, principal.UID, "", nil, nil)
		return &LoginResult{
			ChallengeRequired: true,
			MaskedEmail:       maskEmail(principal.Email),
		}, nil
	}

	e.metricInc(MetricTrustedSkip)
	e.emitAudit(ctx, auditEventLoginTrustedSkip, true, principal.UID, "", nil, nil)
	return e.startSession(ctx, principal)
}

// ConfirmLogin describes the confirmlogin operation and its observable behavior.
//
// ConfirmLogin may return an error when input validation, dependency calls, or security checks fail.
// ConfirmLogin does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ConfirmLogin(ctx context.Context, uid, code string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if strings.TrimSpace(uid) == "" {
		return nil, ErrValidation
	}

	if _, err := e.verifyChallenge(ctx, uid, PurposeLogin, code); err != nil {
		e.emitAudit(ctx, auditEventChallengeConfirm, false, uid, "", err, func() map[string]string {
			return map[string]string{"purpose": PurposeLogin.String()}
		})
		return nil, err
	}

	lookup, err := e.directory.Lookup(ctx, uid)
	if err != nil {
		mapped := mapDirectoryError(err)
		e.emitAudit(ctx, auditEventLoginFailure, false, uid, "", mapped, nil)
		return nil, mapped
	}

	principal := principalFromAccount(lookup)
	if principal.Status != AccountActive {
		e.metricInc(MetricLoginInactive)
		return nil, ErrAccountInactive
	}

	if e.config.DeviceTrust.Enabled {
		if binding, ok := e.deviceBinding(ctx); ok {
			if err := e.trustStore.Mark(ctx, principal.UID, binding, 0); err != nil {
				log.Print("goPortal: device trust mark failed: ", err)
			} else {
				e.metricInc(MetricTrustMarked)
				e.emitAudit(ctx, auditEventTrustMarked, true, principal.UID, "", nil, nil)
			}
		}
	}

	e.emitAudit(ctx, auditEventChallengeConfirm, true, principal.UID, "", nil, func() map[string]string {
		return map[string]string{"purpose": PurposeLogin.String()}
	})
	return e.startSession(ctx, principal)
}

// Resume describes the resume operation and its observable behavior.
//
// Resume may return an error when input validation, dependency calls, or security checks fail.
// Resume does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Resume(ctx context.Context, tokenStr string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	start := time.Now()

	claims, err := e.tokenManager.Parse(tokenStr)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	sess, err := e.sessionStore.Get(ctx, claims.SID, e.config.Session.IdleTimeout)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			e.metricInc(MetricSessionExpired)
			e.emitAudit(ctx, auditEventSessionExpired, false, claims.UID, claims.SID, ErrSessionNotFound, nil)
			return nil, ErrSessionNotFound
		}
		return nil, ErrStoreUnavailable
	}
	if sess.PrincipalID != claims.UID {
		return nil, ErrTokenInvalid
	}

	principal, err := e.snapshotStore.Get(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, errSnapshotNotFound) {
			// Snapshot evicted but session alive: rebuild from the directory.
			lookup, dirErr := e.directory.Lookup(ctx, sess.PrincipalID)
			if dirErr != nil {
				return nil, mapDirectoryError(dirErr)
			}
			principal = principalFromAccount(lookup)
			remaining := time.Until(time.Unix(sess.ExpiresAt, 0))
			if remaining > 0 {
				if saveErr := e.snapshotStore.Save(ctx, claims.SID, principal, remaining); saveErr != nil {
					log.Print("goPortal: snapshot rebuild failed: ", saveErr)
				}
			}
		} else {
			return nil, ErrStoreUnavailable
		}
	}

	e.metricInc(MetricSessionResumed)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricResumeLatency, time.Since(start))
	}
	e.emitAudit(ctx, auditEventSessionResumed, true, sess.PrincipalID, sess.SessionID, nil, nil)

	return &LoginResult{
		Token:     tokenStr,
		SessionID: sess.SessionID,
		Principal: principal,
	}, nil
}

func (e *Engine) startSession(ctx context.Context, principal *Principal) (*LoginResult, error) {
	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, err
	}
	sessionID := sid.String()

	now := time.Now()
	sess := &session.Session{
		SessionID:     sessionID,
		PrincipalID:   principal.UID,
		StorageKey:    principal.StorageKey,
		IPHash:        internal.HashBindingValue(clientIPFromContext(ctx)),
		UserAgentHash: internal.HashBindingValue(userAgentFromContext(ctx)),
		CreatedAt:     now.Unix(),
		ExpiresAt:     now.Add(e.config.Token.TTL).Unix(),
		LastActivity:  now.Unix(),
	}
	if err := e.sessionStore.Save(ctx, sess, e.config.Session.IdleTimeout); err != nil {
		return nil, ErrStoreUnavailable
	}

	if err := e.snapshotStore.Save(ctx, sessionID, principal, e.config.Token.TTL); err != nil {
		_ = e.sessionStore.Delete(ctx, sessionID)
		return nil, ErrStoreUnavailable
	}

	tok, err := e.tokenManager.Create(principal.UID, sessionID)
	if err != nil {
		_ = e.sessionStore.Delete(ctx, sessionID)
		_ = e.snapshotStore.Delete(ctx, sessionID)
		return nil, err
	}

	e.sendPresence(ctx, principal.StorageKey, presenceOnline)

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventLoginSuccess, true, principal.UID, sessionID, nil, nil)

	return &LoginResult{
		Token:     tok,
		SessionID: sessionID,
		Principal: principal,
	}, nil
}

// RevokeDeviceTrust removes every trusted-device marker for the session's
// principal. The next login from any device goes through the challenge
// step again.
func (e *Engine) RevokeDeviceTrust(ctx context.Context, sessionID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	principal, err := e.principalForSession(ctx, sessionID)
	if err != nil {
		return err
	}

	if err := e.trustStore.ClearAll(ctx, principal.UID); err != nil {
		return ErrStoreUnavailable
	}

	e.emitAudit(ctx, auditEventTrustCleared, true, principal.UID, sessionID, nil, nil)
	return nil
}

// challengeNeeded applies the device trust decision: a challenge is skipped
// only when trust is enabled, a binding is present and marked trusted, and
// the reported connection quality is not degraded.
func (e *Engine) challengeNeeded(ctx context.Context, principalID string) bool {
	if !e.config.DeviceTrust.Enabled {
		return true
	}
	if networkQualityFromContext(ctx) == NetworkDegraded {
		return true
	}

	binding, ok := e.deviceBinding(ctx)
	if !ok {
		return true
	}

	trusted, err := e.trustStore.Check(ctx, principalID, binding)
	if err != nil {
		log.Print("goPortal: device trust check failed: ", err)
		return true
	}
	return !trusted
}

func (e *Engine) deviceBinding(ctx context.Context) ([32]byte, bool) {
	userAgent := userAgentFromContext(ctx)
	if userAgent == "" {
		return [32]byte{}, false
	}
	return internal.HashBindingValue(userAgent), true
}

func principalFromAccount(result *directory.LookupResult) *Principal {
	account := result.Account
	return &Principal{
		UID:    account.UID,
		Name:   account.Personal.Name,
		Status: ParseAccountStatus(account.Status),
		Email:  account.Personal.Email,
		Phone:  account.Personal.Phone,
		Bank: BankInfo{
			BankName:      account.Bank.Bank,
			Branch:        account.Bank.Branch,
			IFSC:          account.Bank.IFSC,
			AccountNumber: account.Bank.Acc,
			Salary:        account.Bank.Salary,
		},
		Security: SecurityInfo{
			NationalID: account.Security.Aadhaar,
			PhotoURL:   account.Security.Photo,
		},
		StorageKey: result.Key,
	}
}

func mapDirectoryError(err error) error {
	switch {
	case errors.Is(err, directory.ErrUnauthorized):
		return ErrAuthMismatch
	case errors.Is(err, directory.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, directory.ErrSchema):
		return ErrSchema
	default:
		return ErrNetwork
	}
}

// maskEmail keeps the first two characters and the domain: "jd****@corp.in".
func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return ""
	}
	local := email[:at]
	if len(local) > 2 {
		local = local[:2]
	}
	return local + "****@" + email[at+1:]
}
