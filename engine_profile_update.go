package goPortal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/goPortal/directory"
	"github.com/MrEthical07/goPortal/mailer"
)

// StageProfileUpdate describes the stageprofileupdate operation and its observable behavior.
//
// StageProfileUpdate may return an error when input validation, dependency calls, or security checks fail.
// StageProfileUpdate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) StageProfileUpdate(ctx context.Context, sessionID string, input ProfileUpdateInput) (*StagedUpdate, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if !e.config.ProfileUpdate.Enabled {
		return nil, ErrValidation
	}

	principal, err := e.principalForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	diff, err := buildProfileDiff(principal, input, e.config.ProfileUpdate)
	if err != nil {
		e.metricInc(MetricProfileUpdateRejected)
		return nil, err
	}
	if diff.Empty() {
		e.metricInc(MetricProfileUpdateRejected)
		return nil, ErrNoChanges
	}

	record := &stagedChangeRecord{
		Diff:        diff,
		TargetEmail: principal.Email,
		ExpiresAt:   time.Now().Add(e.config.ProfileUpdate.StagedTTL).Unix(),
	}

	staged := &StagedUpdate{Diff: diff}
	if diff.Email != nil {
		// Changing the contact address requires proof of ownership: the
		// confirmation code goes to the NEW address, not the one on record.
		record.TargetEmail = *diff.Email
		staged.EmailProofRequired = true
	}
	staged.TargetEmail = record.TargetEmail

	if err := e.stagedStore.Save(ctx, principal.UID, record, e.config.ProfileUpdate.StagedTTL); err != nil {
		return nil, ErrStoreUnavailable
	}

	// Every staged change is gated by a confirmation code, whether or not
	// the email itself is changing.
	if err := e.issueChallenge(ctx, principal.UID, record.TargetEmail, principal.Name, PurposeProfileUpdate); err != nil {
		_ = e.stagedStore.Delete(ctx, principal.UID)
		return nil, err
	}

	e.metricInc(MetricProfileUpdateStaged)
	e.emitAudit(ctx, auditEventProfileUpdateStaged, true, principal.UID, sessionID, nil, func() map[string]string {
		return map[string]string{"email_proof": fmt.Sprintf("%t", staged.EmailProofRequired)}
	})
	return staged, nil
}

// ConfirmEmailOwnership describes the confirmemailownership operation and its observable behavior.
//
// ConfirmEmailOwnership may return an error when input validation, dependency calls, or security checks fail.
// ConfirmEmailOwnership does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ConfirmEmailOwnership(ctx context.Context, sessionID, code string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	principal, err := e.principalForSession(ctx, sessionID)
	if err != nil {
		return err
	}

	record, err := e.getStaged(ctx, principal.UID)
	if err != nil {
		return err
	}
	if record.Diff.Email == nil {
		return ErrNoStagedChange
	}

	if _, err := e.verifyChallenge(ctx, principal.UID, PurposeProfileUpdate, code); err != nil {
		e.emitAudit(ctx, auditEventChallengeConfirm, false, principal.UID, sessionID, err, func() map[string]string {
			return map[string]string{"purpose": PurposeProfileUpdate.String()}
		})
		return err
	}

	record.Verified = true
	remaining := time.Until(time.Unix(record.ExpiresAt, 0))
	if remaining <= 0 {
		_ = e.stagedStore.Delete(ctx, principal.UID)
		return ErrNoStagedChange
	}
	if err := e.stagedStore.Save(ctx, principal.UID, record, remaining); err != nil {
		return ErrStoreUnavailable
	}

	e.emitAudit(ctx, auditEventChallengeConfirm, true, principal.UID, sessionID, nil, func() map[string]string {
		return map[string]string{"purpose": PurposeProfileUpdate.String()}
	})
	return nil
}

// SubmitProfileUpdate describes the submitprofileupdate operation and its observable behavior.
//
// SubmitProfileUpdate may return an error when input validation, dependency calls, or security checks fail.
// SubmitProfileUpdate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SubmitProfileUpdate(ctx context.Context, sessionID, code string) (*PendingProfileChange, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	principal, err := e.principalForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	record, err := e.getStaged(ctx, principal.UID)
	if err != nil {
		return nil, err
	}
	if !record.Verified {
		// An email change must be proven through ConfirmEmailOwnership
		// first; any other change passes its code directly here.
		if record.Diff.Email != nil {
			return nil, ErrEmailProofRequired
		}
		if _, err := e.verifyChallenge(ctx, principal.UID, PurposeProfileUpdate, code); err != nil {
			e.emitAudit(ctx, auditEventChallengeConfirm, false, principal.UID, sessionID, err, func() map[string]string {
				return map[string]string{"purpose": PurposeProfileUpdate.String()}
			})
			return nil, err
		}
	}

	requestID := uuid.NewString()
	req := directory.ChangeRequest{
		RequestID: requestID,
		UID:       principal.UID,
		Name:      principal.Name,
		Changes:   changesMap(record.Diff),
		Timestamp: time.Now().UnixMilli(),
		Status:    "Pending",
	}
	if err := e.directory.SubmitChangeRequest(ctx, req); err != nil {
		mapped := mapDirectoryError(err)
		e.emitAudit(ctx, auditEventProfileUpdateSubmitted, false, principal.UID, sessionID, mapped, nil)
		return nil, mapped
	}

	_ = e.stagedStore.Delete(ctx, principal.UID)

	if admin := e.config.ProfileUpdate.AdminEmail; admin != "" {
		notice := mailer.Message{
			To:   admin,
			Name: principal.Name,
			Body: fmt.Sprintf("Profile change request %s submitted by %s (%s).", requestID, principal.Name, principal.UID),
		}
		if err := e.mailer.Send(ctx, notice); err != nil {
			log.Print("goPortal: admin notice failed: ", err)
		}
	}

	e.metricInc(MetricProfileUpdateSubmitted)
	e.emitAudit(ctx, auditEventProfileUpdateSubmitted, true, principal.UID, sessionID, nil, func() map[string]string {
		return map[string]string{"request_id": requestID}
	})

	return &PendingProfileChange{
		RequestID:    requestID,
		PrincipalUID: principal.UID,
		Name:         principal.Name,
		Diff:         record.Diff,
	}, nil
}

// CancelProfileUpdate abandons the staged change and any pending email
// proof challenge. Cancelling when nothing is staged is not an error.
func (e *Engine) CancelProfileUpdate(ctx context.Context, sessionID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	principal, err := e.principalForSession(ctx, sessionID)
	if err != nil {
		return err
	}

	_ = e.challengeStore.Drop(ctx, principal.UID, PurposeProfileUpdate)
	return e.stagedStore.Delete(ctx, principal.UID)
}

func (e *Engine) getStaged(ctx context.Context, principalID string) (*stagedChangeRecord, error) {
	record, err := e.stagedStore.Get(ctx, principalID)
	if err != nil {
		if errors.Is(err, errStagedNotFound) {
			return nil, ErrNoStagedChange
		}
		return nil, ErrStoreUnavailable
	}
	return record, nil
}
