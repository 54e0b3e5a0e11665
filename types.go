package goPortal

import (
	"io"

	internalaudit "github.com/MrEthical07/goPortal/internal/audit"
)

// AccountStatus represents the lifecycle state of a portal account as
// reported by the backend directory.
type AccountStatus uint8

const (
	// AccountActive is an exported constant or variable used by the portal engine.
	AccountActive AccountStatus = iota
	// AccountInactive is an exported constant or variable used by the portal engine.
	AccountInactive
)

// ParseAccountStatus maps the directory's status string onto an
// [AccountStatus]. Anything other than "Active" is treated as inactive.
func ParseAccountStatus(s string) AccountStatus {
	if s == "Active" {
		return AccountActive
	}
	return AccountInactive
}

// Purpose scopes a challenge to the workflow that issued it. Exactly one
// challenge per (principal, purpose) pair is live at a time; re-issuing
// supersedes the previous one.
type Purpose uint8

const (
	// PurposeLogin is an exported constant or variable used by the portal engine.
	PurposeLogin Purpose = iota
	// PurposeProfileUpdate is an exported constant or variable used by the portal engine.
	PurposeProfileUpdate
	// PurposePasswordReset is an exported constant or variable used by the portal engine.
	PurposePasswordReset
	// PurposePasswordChange is an exported constant or variable used by the portal engine.
	PurposePasswordChange

	purposeCount
)

// String describes the string operation and its observable behavior.
func (p Purpose) String() string {
	switch p {
	case PurposeLogin:
		return "login"
	case PurposeProfileUpdate:
		return "profile_update"
	case PurposePasswordReset:
		return "password_reset"
	case PurposePasswordChange:
		return "password_change"
	default:
		return "unknown"
	}
}

// NetworkQuality is the categorical connection-quality signal attached to
// a login attempt via [WithNetworkQuality]. When absent it defaults to
// [NetworkNormal].
type NetworkQuality uint8

const (
	// NetworkNormal is an exported constant or variable used by the portal engine.
	NetworkNormal NetworkQuality = iota
	// NetworkDegraded is an exported constant or variable used by the portal engine.
	NetworkDegraded
)

// BankInfo carries the banking fields of a [Principal].
type BankInfo struct {
	BankName      string
	Branch        string
	IFSC          string
	AccountNumber string
	Salary        string
}

// SecurityInfo carries the identity-proof fields of a [Principal].
type SecurityInfo struct {
	NationalID string
	PhotoURL   string
}

// Principal is the authenticated account record held by the engine. It is
// created on successful authentication, refreshed from the directory, and
// destroyed on logout. StorageKey is the opaque backend location key the
// directory returns alongside the record.
type Principal struct {
	UID        string
	Name       string
	Status     AccountStatus
	Email      string
	Phone      string
	Bank       BankInfo
	Security   SecurityInfo
	StorageKey string
}

// LoginResult is returned by [Engine.Login] and [Engine.ConfirmLogin].
// When ChallengeRequired is set the caller must collect an OTP and call
// ConfirmLogin; otherwise Token and Principal describe a live session.
type LoginResult struct {
	Token     string
	SessionID string
	Principal *Principal

	ChallengeRequired bool
	MaskedEmail       string
}

// RecoveryStage identifies the wizard step a recovery session is in.
// Transitions are strictly forward; the only way back is a full restart.
type RecoveryStage uint8

const (
	// StageAwaitOtp is an exported constant or variable used by the portal engine.
	StageAwaitOtp RecoveryStage = iota + 1
	// StageResetPassword is an exported constant or variable used by the portal engine.
	StageResetPassword
)

// RecoveryState is the caller-visible view of a recovery wizard instance.
type RecoveryState struct {
	RecoveryID    string
	Stage         RecoveryStage
	MaskedEmail   string
	CandidateName string
	CandidateUID  string
}

// ProfileUpdateInput holds the raw form values of a profile update
// request. Empty fields mean "no change", never "clear the value".
type ProfileUpdateInput struct {
	Phone         string
	Email         string
	BankName      string
	Branch        string
	IFSC          string
	AccountNumber string
}

// ProfileDiff carries only the fields that actually differ from the
// current principal record; nil pointers mean the field is unchanged.
type ProfileDiff struct {
	Phone         *string
	Email         *string
	BankName      *string
	Branch        *string
	IFSC          *string
	AccountNumber *string
}

// Empty reports whether the diff contains no changed field.
func (d ProfileDiff) Empty() bool {
	return d.Phone == nil && d.Email == nil && d.BankName == nil &&
		d.Branch == nil && d.IFSC == nil && d.AccountNumber == nil
}

// StagedUpdate is returned by [Engine.StageProfileUpdate]. A confirmation
// code is always sent to TargetEmail. When EmailProofRequired is set the
// code went to the new address and [Engine.ConfirmEmailOwnership] must
// pass before submission; otherwise the code goes to the address on record
// and is passed to [Engine.SubmitProfileUpdate].
type StagedUpdate struct {
	Diff               ProfileDiff
	EmailProofRequired bool
	TargetEmail        string
}

// PendingProfileChange is the approval request submitted to the backend.
// Only non-nil diff fields represent requested changes; review is
// asynchronous and outside this engine.
type PendingProfileChange struct {
	RequestID    string
	PrincipalUID string
	Name         string
	Diff         ProfileDiff
}

// SessionInfo is a read-only view of a live session record.
type SessionInfo struct {
	SessionID    string
	PrincipalUID string
	CreatedAt    int64
	ExpiresAt    int64
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
