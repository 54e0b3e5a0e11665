package internaldefs

import (
	goPortal "github.com/MrEthical07/goPortal"
)

// CounterDef defines a public type used by goPortal APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goPortal.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goPortal APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goPortal.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the portal engine.
var CounterDefs = []CounterDef{
	{ID: goPortal.MetricLoginSuccess, Name: "goportal_login_success_total", Help: "Successful login attempts."},
	{ID: goPortal.MetricLoginFailure, Name: "goportal_login_failure_total", Help: "Failed login attempts."},
	{ID: goPortal.MetricLoginInactive, Name: "goportal_login_inactive_total", Help: "Logins rejected for inactive accounts."},
	{ID: goPortal.MetricChallengeIssued, Name: "goportal_challenge_issued_total", Help: "Issued one-time code challenges."},
	{ID: goPortal.MetricChallengeSuccess, Name: "goportal_challenge_success_total", Help: "Successful challenge verifications."},
	{ID: goPortal.MetricChallengeFailure, Name: "goportal_challenge_failure_total", Help: "Failed challenge verifications."},
	{ID: goPortal.MetricChallengeAttemptsExceeded, Name: "goportal_challenge_attempts_exceeded_total", Help: "Challenges invalidated due to attempt cap."},
	{ID: goPortal.MetricChallengeExpired, Name: "goportal_challenge_expired_total", Help: "Verifications against missing or expired challenges."},
	{ID: goPortal.MetricChallengeResent, Name: "goportal_challenge_resent_total", Help: "Challenge resend operations."},
	{ID: goPortal.MetricChallengeCooldownHit, Name: "goportal_challenge_cooldown_hit_total", Help: "Resend attempts refused inside the cooldown window."},
	{ID: goPortal.MetricDeliveryFailure, Name: "goportal_delivery_failure_total", Help: "Failed challenge deliveries."},
	{ID: goPortal.MetricTrustedSkip, Name: "goportal_trusted_skip_total", Help: "Logins that skipped the challenge on a trusted device."},
	{ID: goPortal.MetricTrustMarked, Name: "goportal_trust_marked_total", Help: "Device trust markers recorded."},
	{ID: goPortal.MetricSessionCreated, Name: "goportal_session_created_total", Help: "Created sessions."},
	{ID: goPortal.MetricSessionResumed, Name: "goportal_session_resumed_total", Help: "Token resume operations."},
	{ID: goPortal.MetricSessionExpired, Name: "goportal_session_expired_total", Help: "Resumes against expired or missing sessions."},
	{ID: goPortal.MetricLogout, Name: "goportal_logout_total", Help: "Logout operations."},
	{ID: goPortal.MetricRecoveryStarted, Name: "goportal_recovery_started_total", Help: "Started recovery wizards."},
	{ID: goPortal.MetricRecoveryMismatch, Name: "goportal_recovery_mismatch_total", Help: "Recovery attempts with mismatched identity proofs."},
	{ID: goPortal.MetricRecoveryCompleted, Name: "goportal_recovery_completed_total", Help: "Completed recovery wizards."},
	{ID: goPortal.MetricRecoveryTicketSubmitted, Name: "goportal_recovery_ticket_submitted_total", Help: "Manual recovery tickets submitted."},
	{ID: goPortal.MetricProfileUpdateStaged, Name: "goportal_profile_update_staged_total", Help: "Staged profile updates."},
	{ID: goPortal.MetricProfileUpdateSubmitted, Name: "goportal_profile_update_submitted_total", Help: "Submitted profile change requests."},
	{ID: goPortal.MetricProfileUpdateRejected, Name: "goportal_profile_update_rejected_total", Help: "Profile updates rejected by validation."},
}

// HistogramDefs is an exported constant or variable used by the portal engine.
var HistogramDefs = []HistogramDef{
	{ID: goPortal.MetricResumeLatency, Name: "goportal_resume_latency_seconds", Help: "Resume latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the portal engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the portal engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
