package goPortal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/goPortal/directory"
	"github.com/MrEthical07/goPortal/internal"
	"github.com/MrEthical07/goPortal/mailer"
)

// BeginRecovery describes the beginrecovery operation and its observable behavior.
//
// BeginRecovery may return an error when input validation, dependency calls, or security checks fail.
// BeginRecovery does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) BeginRecovery(ctx context.Context, contact, nationalID string) (*RecoveryState, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if !e.config.Recovery.Enabled {
		return nil, ErrValidation
	}

	nationalID = strings.TrimSpace(nationalID)
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return nil, ErrValidation
	}
	if !internal.IsNumericString(nationalID) || len(nationalID) != e.config.Recovery.NationalIDLength {
		return nil, ErrValidation
	}

	lookup, err := e.directory.Lookup(ctx, contact)
	if err != nil {
		// Never reveal whether an account exists; mismatches, missing
		// accounts, and lookup failures all present the manual fallback.
		e.metricInc(MetricRecoveryMismatch)
		e.emitAudit(ctx, auditEventRecoveryStarted, false, "", "", ErrRecoveryFallback, nil)
		return nil, ErrRecoveryFallback
	}

	candidate := principalFromAccount(lookup)
	if !recoveryIdentityMatches(candidate, nationalID, contact) || candidate.Email == "" {
		e.metricInc(MetricRecoveryMismatch)
		e.emitAudit(ctx, auditEventRecoveryStarted, false, candidate.UID, "", ErrRecoveryFallback, nil)
		return nil, ErrRecoveryFallback
	}

	if err := e.issueChallenge(ctx, candidate.UID, candidate.Email, candidate.Name, PurposePasswordReset); err != nil {
		return nil, err
	}

	recoveryID := uuid.NewString()
	record := &recoveryRecord{
		CandidateUID: candidate.UID,
		TargetEmail:  candidate.Email,
		Stage:        StageAwaitOtp,
		ExpiresAt:    time.Now().Add(e.config.Recovery.WizardTTL).Unix(),
	}
	if err := e.recoveryStore.Save(ctx, recoveryID, record, e.config.Recovery.WizardTTL); err != nil {
		return nil, ErrStoreUnavailable
	}

	e.metricInc(MetricRecoveryStarted)
	e.emitAudit(ctx, auditEventRecoveryStarted, true, candidate.UID, "", nil, nil)

	return &RecoveryState{
		RecoveryID:    recoveryID,
		Stage:         StageAwaitOtp,
		MaskedEmail:   maskEmail(candidate.Email),
		CandidateName: candidate.Name,
		CandidateUID:  candidate.UID,
	}, nil
}

// ConfirmRecoveryCode describes the confirmrecoverycode operation and its observable behavior.
//
// ConfirmRecoveryCode may return an error when input validation, dependency calls, or security checks fail.
// ConfirmRecoveryCode does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ConfirmRecoveryCode(ctx context.Context, recoveryID, code string) (*RecoveryState, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	record, err := e.getRecovery(ctx, recoveryID)
	if err != nil {
		return nil, err
	}
	if record.Stage != StageAwaitOtp {
		return nil, ErrRecoveryStage
	}

	if _, err := e.verifyChallenge(ctx, record.CandidateUID, PurposePasswordReset, code); err != nil {
		e.emitAudit(ctx, auditEventRecoveryConfirm, false, record.CandidateUID, "", err, nil)
		return nil, err
	}

	record.Stage = StageResetPassword
	remaining := time.Until(time.Unix(record.ExpiresAt, 0))
	if remaining <= 0 {
		_ = e.recoveryStore.Delete(ctx, recoveryID)
		return nil, ErrRecoveryNotFound
	}
	if err := e.recoveryStore.Save(ctx, recoveryID, record, remaining); err != nil {
		return nil, ErrStoreUnavailable
	}

	e.emitAudit(ctx, auditEventRecoveryConfirm, true, record.CandidateUID, "", nil, nil)

	return &RecoveryState{
		RecoveryID:   recoveryID,
		Stage:        StageResetPassword,
		MaskedEmail:  maskEmail(record.TargetEmail),
		CandidateUID: record.CandidateUID,
	}, nil
}

// CompleteRecovery describes the completerecovery operation and its observable behavior.
//
// CompleteRecovery may return an error when input validation, dependency calls, or security checks fail.
// CompleteRecovery does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) CompleteRecovery(ctx context.Context, recoveryID, newPassword, confirmPassword string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	record, err := e.getRecovery(ctx, recoveryID)
	if err != nil {
		return err
	}
	if record.Stage != StageResetPassword {
		return ErrRecoveryStage
	}

	if len(newPassword) < e.config.Recovery.MinPasswordLength || newPassword != confirmPassword {
		e.emitAudit(ctx, auditEventRecoveryCompleted, false, record.CandidateUID, "", ErrPasswordPolicy, nil)
		return ErrPasswordPolicy
	}

	if err := e.directory.UpdatePassword(ctx, record.CandidateUID, newPassword); err != nil {
		mapped := mapDirectoryError(err)
		e.emitAudit(ctx, auditEventRecoveryCompleted, false, record.CandidateUID, "", mapped, nil)
		return mapped
	}

	_ = e.recoveryStore.Delete(ctx, recoveryID)

	// The owner hears about every successful reset, best-effort.
	notice := mailer.Message{
		To:   record.TargetEmail,
		Body: "Your portal password was changed through account recovery just now.",
	}
	if support := e.config.Recovery.SupportEmail; support != "" {
		notice.Body += " If this was not you, contact " + support + " immediately."
	} else {
		notice.Body += " If this was not you, contact your site incharge immediately."
	}
	if err := e.mailer.Send(ctx, notice); err != nil {
		log.Print("goPortal: recovery notice failed: ", err)
	}

	e.metricInc(MetricRecoveryCompleted)
	e.emitAudit(ctx, auditEventRecoveryCompleted, true, record.CandidateUID, "", nil, nil)
	return nil
}

// CancelRecovery abandons a wizard instance and its pending challenge.
// Cancelling an unknown recovery ID is not an error.
func (e *Engine) CancelRecovery(ctx context.Context, recoveryID string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if recoveryID == "" {
		return ErrValidation
	}

	record, err := e.getRecovery(ctx, recoveryID)
	if err != nil {
		if errors.Is(err, ErrRecoveryNotFound) {
			return nil
		}
		return err
	}

	_ = e.challengeStore.Drop(ctx, record.CandidateUID, PurposePasswordReset)
	return e.recoveryStore.Delete(ctx, recoveryID)
}

// SubmitManualRecovery describes the submitmanualrecovery operation and its observable behavior.
//
// SubmitManualRecovery may return an error when input validation, dependency calls, or security checks fail.
// SubmitManualRecovery does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SubmitManualRecovery(ctx context.Context, name, phone, details string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return "", ErrValidation
	}

	ticketID := uuid.NewString()
	message := fmt.Sprintf(
		"Password recovery request\nName: %s\nPhone: %s\nDetails: %s\nSubmitted: %s",
		name, phone, details, time.Now().Format("2006-01-02 15:04:05"),
	)

	ticket := directory.RecoveryTicket{
		TicketID: ticketID,
		Name:     name,
		Phone:    phone,
		Message:  message,
	}
	if err := e.directory.SubmitRecoveryTicket(ctx, ticket); err != nil {
		mapped := mapDirectoryError(err)
		e.emitAudit(ctx, auditEventRecoveryTicketSubmitted, false, "", "", mapped, nil)
		return "", mapped
	}

	e.metricInc(MetricRecoveryTicketSubmitted)
	e.emitAudit(ctx, auditEventRecoveryTicketSubmitted, true, "", "", nil, func() map[string]string {
		return map[string]string{"ticket_id": ticketID}
	})
	return ticketID, nil
}

func (e *Engine) getRecovery(ctx context.Context, recoveryID string) (*recoveryRecord, error) {
	if recoveryID == "" {
		return nil, ErrValidation
	}
	record, err := e.recoveryStore.Get(ctx, recoveryID)
	if err != nil {
		if errors.Is(err, errRecoveryRecordNotFound) {
			return nil, ErrRecoveryNotFound
		}
		return nil, ErrStoreUnavailable
	}
	return record, nil
}

// recoveryIdentityMatches checks the two self-service proofs: exact
// national ID digits and a contact that belongs to the account.
func recoveryIdentityMatches(candidate *Principal, nationalID, contact string) bool {
	if candidate.Security.NationalID != nationalID {
		return false
	}
	switch {
	case strings.EqualFold(contact, candidate.UID):
		return true
	case contact == candidate.Phone:
		return true
	case strings.EqualFold(contact, candidate.Email):
		return true
	}
	return false
}
