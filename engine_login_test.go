package goPortal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goPortal/directory"
)

// confirmedLogin walks the full challenge flow and returns a live session.
func confirmedLogin(t *testing.T, engine *Engine, sent *captureMailer, ctx context.Context) *LoginResult {
	t.Helper()

	first, err := engine.Login(ctx, "EMP1001", "correct-horse-9")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !first.ChallengeRequired {
		t.Fatal("expected a challenge on first login")
	}

	result, err := engine.ConfirmLogin(ctx, "EMP1001", sent.lastCode(t))
	if err != nil {
		t.Fatalf("ConfirmLogin failed: %v", err)
	}
	return result
}

func TestLoginUnknownAccount(t *testing.T) {
	dir := newMockDirectory(t)
	sent := &captureMailer{}
	engine, _, _, done := newPortalEngine(t, portalTestConfig(), dir, sent)
	defer done()

	if _, err := engine.Login(browserContext(), "EMP9999", "whatever"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	dir := newMockDirectory(t)
	sent := &captureMailer{}
	engine, _, _, done := newPortalEngine(t, portalTestConfig(), dir, sent)
	defer done()

	if _, err := engine.Login(browserContext(), "EMP1001", "wrong"); !errors.Is(err, ErrAuthMismatch) {
		t.Fatalf("expected ErrAuthMismatch, got %v", err)
	}
	if sent.count() != 0 {
		t.Fatal("no mail should be sent on a failed password check")
	}
}

func TestLoginEmptyInput(t *testing.T) {
	dir := newMockDirectory(t)
	engine, _, _, done := newPortalEngine(t, portalTestConfig(), dir, &captureMailer{})
	defer done()

	if _, err := engine.Login(browserContext(), "", "pw"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := engine.Login(browserContext(), "EMP1001", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	dir := newMockDirectory(t)
	dir.addAccount(directory.Account{
		UID:      "EMP2002",
		Status:   "Inactive",
		Personal: directory.PersonalInfo{Name: "Ravi Nair", Email: "ravi.nair@example.com"},
	}, "records/EMP2002", "pw-123456")
	engine, _, _, done := newPortalEngine(t, portalTestConfig(), dir, &captureMailer{})
	defer done()

	if _, err := engine.Login(browserContext(), "EMP2002", "pw-123456"); !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestLoginIssuesChallengeWithMaskedEmail(t *testing.T) {
	dir := newMockDirectory(t)
	sent := &captureMailer{}
	engine, _, rdb, done := newPortalEngine(t, portalTestConfig(), dir, sent)
	defer done()

	result, err := engine.Login(browserContext(), "EMP1001", "correct-horse-9")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !result.ChallengeRequired {
		t.Fatal("expected challenge on unknown device")
	}
	if result.MaskedEmail != "as****@example.com" {
		t.Fatalf("unexpected masked email: %q", result.MaskedEmail)
	}
	if result.Token != "" || result.SessionID != "" {
		t.Fatal("no session material before the challenge is confirmed")
	}
	if exists := rdb.Exists(context.Background(), "ppc:login:EMP1001").Val(); exists != 1 {
		t.Fatal("expected stored challenge record")
	}
	if sent.last(t).To != "asha.verma@example.com" {
		t.Fatalf("code sent to wrong address: %q", sent.last(t).To)
	}
}

func TestConfirmLoginWrongCodeBurnsOneAttempt(t *testing.T) {
	dir := newMockDirectory(t)
	sent := &captureMailer{}
	engine, _, rdb, done := newPortalEngine(t, portalTestConfig(), dir, sent)
	defer done()
	ctx := browserContext()

	if _, err := engine.Login(ctx, "EMP1001", "correct-horse-9"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if _, err := engine.ConfirmLogin(ctx, "EMP1001", "000000"); !errors.Is(err, ErrAuthMismatch) {
		t.Fatalf("expected ErrAuthMismatch, got %v", err)
	}
	if exists := rdb.Exists(context.Background(), "ppc:login:EMP1001").Val(); exists != 1 {
		t.Fatal("a wrong code must not invalidate the challenge")
	}

	if _, err := engine.ConfirmLogin(ctx, "EMP1001", sent.lastCode(t)); err != nil {
		t.Fatalf("correct code after one miss failed: %v", err)
	}
}

func TestConfirmLoginAttemptsExceeded(t *testing.T) {
	cfg := portalTestConfig()
	cfg.Challenge.MaxAttempts = 2
	dir := newMockDirectory(t)
	sent := &captureMailer{}
	engine, _, rdb, done := newPortalEngine(t, cfg, dir, sent)
	defer done()
	ctx := browserContext()

	if _, err := engine.Login(ctx, "EMP1001", "correct-horse-9"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if _, err := engine.ConfirmLogin(ctx, "EMP1001", "000000"); !errors.Is(err, ErrAuthMismatch) {
		t.Fatalf("expected ErrAuthMismatch, got %v", err)
	}
	if _, err := engine.ConfirmLogin(ctx, "EMP1001", "000000"); !errors.Is(err, ErrChallengeAttempts) {
		t.Fatalf("expected ErrChallengeAttempts, got %v", err)
	}
	if exists := rdb.Exists(context.Background(), "ppc:login:EMP1001").Val(); exists != 0 {
		t.Fatal("challenge must be deleted once attempts are exhausted")
	}
	if _, err := engine.ConfirmLogin(ctx, "EMP1001", sent.lastCode(t)); !errors.Is(err, ErrChallengeExpired) {
		t.Fatalf("expected ErrChallengeExpired after deletion, got %v", err)
	}
}

func TestConfirmLoginCreatesSession(t *testing.T) {
	dir := newMockDirectory(t)
	sent := &captureMailer{}
	engine, _, rdb, done := newPortalEngine(t, portalTestConfig(), dir, sent)
	defer done()
	ctx := browserContext()

	result := confirmedLogin(t, engine, sent, ctx)
	if result.Token == "" || result.SessionID == "" {
		t.Fatal("expected token and session id after confirmation")
	}
	if result.Principal == nil || result.Principal.UID != "EMP1001" {
		t.Fatalf("unexpected principal: %+v", result.Principal)
	}
	if result.Principal.Bank.IFSC != "SBIN0000691" {
		t.Fatalf("bank details not carried: %+v", result.Principal.Bank)
	}

	if exists := rdb.Exists(context.Background(), "pps:"+result.SessionID).Val(); exists != 1 {
		t.Fatal("expected session record in redis")
	}
	if exists := rdb.Exists(context.Background(), "portal:snap:"+result.SessionID).Val(); exists != 1 {
		t.Fatal("expected sealed snapshot in redis")
	}
	if exists := rdb.Exists(context.Background(), "ppc:login:EMP1001").Val(); exists != 0 {
		t.Fatal("challenge must be consumed by confirmation")
	}

	call, ok := dir.lastActivity()
	if !ok || call.activity.State != "Online" {
		t.Fatalf("expected an Online presence beacon, got %+v", call)
	}
	if call.key != "records/EMP1001" {
		t.Fatalf("beacon sent to wrong storage key: %q", call.key)
	}
}

func TestTrustedDeviceSkipsChallenge(t *testing.T) {
	dir := newMockDirectory(t)
	sent := &captureMailer{}
	engine, mr, _, done := newPortalEngine(t, portalTestConfig(), dir, sent)
	defer done()
	ctx := browserContext()

	confirmedLogin(t, engine, sent, ctx)
	mr.FastForward(2 * time.Second) // clear the resend cooldown

	again, err := engine.Login(ctx, "EMP1001", "correct-horse-9")
	if err != nil {
		t.Fatalf("second Login failed: %v", err)
	}
	if again.ChallengeRequired {
		t.Fatal("trusted device must not be challenged again")
	}
	if again.Token == "" {
		t.Fatal("expected direct session for trusted device")
	}
}

func TestRevokeDeviceTrustForcesChallenge(t *testing.T) {
	dir := newMockDirectory(t)
	sent := &captureMailer{}
	engine, mr, rdb, done := newPortalEngine(t, portalTestConfig(), dir, sent)
	defer done()
	ctx := browserContext()

	result := confirmedLogin(t, engine, sent, ctx)
	mr.FastForward(2 * time.Second)

	if err := engine.RevokeDeviceTrust(ctx, result.SessionID); err != nil {
		t.Fatalf("RevokeDeviceTrust failed: %v", err)
	}
	if keys := rdb.Keys(context.Background(), "ppt:EMP1001:*").Val(); len(keys) != 0 {
		t.Fatalf("trust markers survived revocation: %v", keys)
	}

	again, err := engine.Login(ctx, "EMP1001", "correct-horse-9")
	if err != nil {
		t.Fatalf("Login after revocation failed: %v", err)
	}
	if !again.ChallengeRequired {
		t.Fatal("revoked device must be challenged again")
	}

	if err := engine.RevokeDeviceTrust(ctx, "no-such-session"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestDegradedNetworkForcesChallenge(t *testing.T) {
	dir := newMockDirectory(t)
	sent := &captureMailer{}
	engine, mr, _, done := newPortalEngine(t, portalTestConfig(), dir, sent)
	defer done()
	ctx := browserContext()

	confirmedLogin(t, engine, sent, ctx)
	mr.FastForward(2 * time.Second)

	degraded := WithNetworkQuality(ctx, NetworkDegraded)
	result, err := engine.Login(degraded, "EMP1001", "correct-horse-9")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !result.ChallengeRequired {
		t.Fatal("a degraded connection must force a challenge even for a trusted device")
	}
}

func TestMissingUserAgentForcesChallenge(t *testing.T) {
	dir := newMockDirectory(t)
	sent := &captureMailer{}
	engine, mr, _, done := newPortalEngine(t, portalTestConfig(), dir, sent)
	defer done()

	confirmedLogin(t, engine, sent, browserContext())
	mr.FastForward(2 * time.Second)

	bare := WithClientIP(context.Background(), "10.0.0.9")
	result, err := engine.Login(bare, "EMP1001", "correct-horse-9")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !result.ChallengeRequired {
		t.Fatal("no device binding means no trust decision")
	}
}

func TestDeviceTrustDisabledAlwaysChallenges(t *testing.T) {
	cfg := portalTestConfig()
	cfg.DeviceTrust.Enabled = false
	dir := newMockDirectory(t)
	sent := &captureMailer{}
	engine, mr, _, done := newPortalEngine(t, cfg, dir, sent)
	defer done()
	ctx := browserContext()

	confirmedLogin(t, engine, sent, ctx)
	mr.FastForward(2 * time.Second)

	result, err := engine.Login(ctx, "EMP1001", "correct-horse-9")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !result.ChallengeRequired {
		t.Fatal("disabled trust heuristic must challenge every login")
	}
}

func TestResumeReturnsPrincipal(t *testing.T) {
	dir := newMockDirectory(t)
	sent := &captureMailer{}
	engine, _, _, done := newPortalEngine(t, portalTestConfig(), dir, sent)
	defer done()
	ctx := browserContext()

	result := confirmedLogin(t, engine, sent, ctx)

	resumed, err := engine.Resume(ctx, result.Token)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if resumed.SessionID != result.SessionID {
		t.Fatalf("resumed a different session: %q vs %q", resumed.SessionID, result.SessionID)
	}
	if resumed.Principal == nil || resumed.Principal.Email != "asha.verma@example.com" {
		t.Fatalf("unexpected resumed principal: %+v", resumed.Principal)
	}
}

func TestResumeGarbageToken(t *testing.T) {
	dir := newMockDirectory(t)
	engine, _, _, done := newPortalEngine(t, portalTestConfig(), dir, &captureMailer{})
	defer done()

	if _, err := engine.Resume(browserContext(), "not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestResumeAfterIdleExpiry(t *testing.T) {
	cfg := portalTestConfig()
	cfg.Session.IdleTimeout = time.Minute
	dir := newMockDirectory(t)
	sent := &captureMailer{}
	engine, mr, _, done := newPortalEngine(t, cfg, dir, sent)
	defer done()
	ctx := browserContext()

	result := confirmedLogin(t, engine, sent, ctx)

	mr.FastForward(2 * time.Minute)
	if _, err := engine.Resume(ctx, result.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after idle expiry, got %v", err)
	}
}

func TestResumeRebuildsEvictedSnapshot(t *testing.T) {
	dir := newMockDirectory(t)
	sent := &captureMailer{}
	engine, _, rdb, done := newPortalEngine(t, portalTestConfig(), dir, sent)
	defer done()
	ctx := browserContext()

	result := confirmedLogin(t, engine, sent, ctx)

	if err := rdb.Del(context.Background(), "portal:snap:"+result.SessionID).Err(); err != nil {
		t.Fatalf("snapshot delete failed: %v", err)
	}
	before := dir.lookupCalls

	resumed, err := engine.Resume(ctx, result.Token)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if resumed.Principal == nil || resumed.Principal.UID != "EMP1001" {
		t.Fatalf("unexpected principal after rebuild: %+v", resumed.Principal)
	}
	if dir.lookupCalls <= before {
		t.Fatal("expected a directory lookup to rebuild the snapshot")
	}
	if exists := rdb.Exists(context.Background(), "portal:snap:"+result.SessionID).Val(); exists != 1 {
		t.Fatal("rebuilt snapshot must be persisted")
	}
}

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"asha.verma@example.com": "as****@example.com",
		"jd@corp.in":             "jd****@corp.in",
		"a@x.io":                 "a****@x.io",
		"broken":                 "",
		"@nolocal.com":           "",
	}
	for in, want := range cases {
		if got := maskEmail(in); got != want {
			t.Errorf("maskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}
