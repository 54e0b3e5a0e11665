package goPortal

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goPortal/directory"
)

const (
	presenceOnline  = "Online"
	presenceOffline = "Offline"
)

// RecordActivity describes the recordactivity operation and its observable behavior.
//
// RecordActivity may return an error when input validation, dependency calls, or security checks fail.
// RecordActivity does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RecordActivity(ctx context.Context, sessionID string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if sessionID == "" {
		return ErrValidation
	}

	sess, err := e.sessionStore.GetReadOnly(ctx, sessionID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			e.metricInc(MetricSessionExpired)
			return ErrSessionNotFound
		}
		return ErrStoreUnavailable
	}

	if err := e.sessionStore.Touch(ctx, sess, e.config.Session.IdleTimeout); err != nil {
		return ErrStoreUnavailable
	}

	e.sendPresence(ctx, sess.StorageKey, presenceOnline)
	return nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Logout(ctx context.Context, sessionID string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if sessionID == "" {
		return ErrValidation
	}

	// Logging out a session that no longer exists is a success.
	sess, err := e.sessionStore.GetReadOnly(ctx, sessionID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return ErrStoreUnavailable
	}

	e.sendPresence(ctx, sess.StorageKey, presenceOffline)

	if err := e.sessionStore.Delete(ctx, sessionID); err != nil {
		return ErrStoreUnavailable
	}
	if err := e.snapshotStore.Delete(ctx, sessionID); err != nil {
		log.Print("goPortal: snapshot delete failed: ", err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogoutSession, true, sess.PrincipalID, sessionID, nil, nil)
	return nil
}

// Session describes the session operation and its observable behavior.
//
// Session may return an error when input validation, dependency calls, or security checks fail.
// Session does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Session(ctx context.Context, sessionID string) (*SessionInfo, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	sess, err := e.sessionStore.GetReadOnly(ctx, sessionID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, ErrStoreUnavailable
	}

	return &SessionInfo{
		SessionID:    sess.SessionID,
		PrincipalUID: sess.PrincipalID,
		CreatedAt:    sess.CreatedAt,
		ExpiresAt:    sess.ExpiresAt,
	}, nil
}

// principalForSession resolves the live session and its sealed snapshot.
func (e *Engine) principalForSession(ctx context.Context, sessionID string) (*Principal, error) {
	sess, err := e.sessionStore.GetReadOnly(ctx, sessionID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, ErrStoreUnavailable
	}

	principal, err := e.snapshotStore.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, errSnapshotNotFound) {
			lookup, dirErr := e.directory.Lookup(ctx, sess.PrincipalID)
			if dirErr != nil {
				return nil, mapDirectoryError(dirErr)
			}
			return principalFromAccount(lookup), nil
		}
		return nil, ErrStoreUnavailable
	}
	return principal, nil
}

// sendPresence fires an activity beacon at the backend. Beacons are
// best-effort: failure never blocks the calling flow.
func (e *Engine) sendPresence(ctx context.Context, storageKey, state string) {
	if storageKey == "" {
		return
	}

	now := time.Now()
	activity := directory.Activity{
		State:     state,
		LastLogin: now.Format("2006-01-02 15:04:05"),
		Timestamp: now.UnixMilli(),
		IP:        clientIPFromContext(ctx),
		Device:    userAgentFromContext(ctx),
	}
	if err := e.directory.UpdateActivity(ctx, storageKey, activity); err != nil {
		log.Print("goPortal: presence beacon failed: ", err)
		return
	}
	e.emitAudit(ctx, auditEventPresenceBeacon, true, "", "", nil, func() map[string]string {
		return map[string]string{"state": state}
	})
}
