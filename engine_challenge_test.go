package goPortal

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestResendDuringCooldown(t *testing.T) {
	dir := newMockDirectory(t)
	sent := &captureMailer{}
	engine, _, _, done := newPortalEngine(t, portalTestConfig(), dir, sent)
	defer done()
	ctx := browserContext()

	if _, err := engine.Login(ctx, "EMP1001", "correct-horse-9"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := engine.ResendChallenge(ctx, "EMP1001", PurposeLogin); !errors.Is(err, ErrCooldown) {
		t.Fatalf("expected ErrCooldown, got %v", err)
	}
	if sent.count() != 1 {
		t.Fatal("cooldown hit must not send mail")
	}
}

func TestResendAfterCooldownDeliversFreshCode(t *testing.T) {
	dir := newMockDirectory(t)
	sent := &captureMailer{}
	engine, mr, _, done := newPortalEngine(t, portalTestConfig(), dir, sent)
	defer done()
	ctx := browserContext()

	if _, err := engine.Login(ctx, "EMP1001", "correct-horse-9"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	stale := sent.lastCode(t)

	mr.FastForward(2 * time.Second)
	if err := engine.ResendChallenge(ctx, "EMP1001", PurposeLogin); err != nil {
		t.Fatalf("ResendChallenge failed: %v", err)
	}
	if sent.count() != 2 {
		t.Fatalf("expected 2 deliveries, got %d", sent.count())
	}
	if sent.last(t).To != "asha.verma@example.com" {
		t.Fatalf("resend must reuse the stored target, got %q", sent.last(t).To)
	}

	fresh := sent.lastCode(t)
	if fresh == stale {
		// Six random digits can collide, but the superseded code must be
		// dead either way; re-run with the fresh one below.
		t.Logf("resend produced identical code %q", fresh)
	}
	if _, err := engine.ConfirmLogin(ctx, "EMP1001", fresh); err != nil {
		t.Fatalf("ConfirmLogin with resent code failed: %v", err)
	}
}

func TestResendWithoutActiveChallenge(t *testing.T) {
	dir := newMockDirectory(t)
	engine, _, _, done := newPortalEngine(t, portalTestConfig(), dir, &captureMailer{})
	defer done()

	if err := engine.ResendChallenge(browserContext(), "EMP1001", PurposeLogin); !errors.Is(err, ErrChallengeExpired) {
		t.Fatalf("expected ErrChallengeExpired, got %v", err)
	}
}

func TestDeliveryFailureRollsBackChallenge(t *testing.T) {
	dir := newMockDirectory(t)
	sent := &captureMailer{failWith: errors.New("smtp down")}
	engine, _, rdb, done := newPortalEngine(t, portalTestConfig(), dir, sent)
	defer done()
	ctx := browserContext()

	if _, err := engine.Login(ctx, "EMP1001", "correct-horse-9"); !errors.Is(err, ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
	if exists := rdb.Exists(context.Background(), "ppc:login:EMP1001").Val(); exists != 0 {
		t.Fatal("undelivered challenge must not remain stored")
	}

	// The cooldown is released too, so a retry works immediately.
	sent.failWith = nil
	result, err := engine.Login(ctx, "EMP1001", "correct-horse-9")
	if err != nil {
		t.Fatalf("retry Login failed: %v", err)
	}
	if !result.ChallengeRequired {
		t.Fatal("expected challenge on retry")
	}
}

func TestChallengeExpiresWithStoreTTL(t *testing.T) {
	dir := newMockDirectory(t)
	sent := &captureMailer{}
	engine, mr, _, done := newPortalEngine(t, portalTestConfig(), dir, sent)
	defer done()
	ctx := browserContext()

	if _, err := engine.Login(ctx, "EMP1001", "correct-horse-9"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	code := sent.lastCode(t)

	mr.FastForward(11 * time.Minute)
	if _, err := engine.ConfirmLogin(ctx, "EMP1001", code); !errors.Is(err, ErrChallengeExpired) {
		t.Fatalf("expected ErrChallengeExpired, got %v", err)
	}
}

func TestMalformedCodeDoesNotBurnAttempts(t *testing.T) {
	dir := newMockDirectory(t)
	sent := &captureMailer{}
	engine, _, _, done := newPortalEngine(t, portalTestConfig(), dir, sent)
	defer done()
	ctx := browserContext()

	if _, err := engine.Login(ctx, "EMP1001", "correct-horse-9"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	for _, bad := range []string{"", "12345", "1234567", "12a456", "abcdef"} {
		if _, err := engine.ConfirmLogin(ctx, "EMP1001", bad); !errors.Is(err, ErrValidation) {
			t.Fatalf("code %q: expected ErrValidation, got %v", bad, err)
		}
	}

	if _, err := engine.ConfirmLogin(ctx, "EMP1001", sent.lastCode(t)); err != nil {
		t.Fatalf("correct code after malformed inputs failed: %v", err)
	}
}

func TestResendInvalidArguments(t *testing.T) {
	dir := newMockDirectory(t)
	engine, _, _, done := newPortalEngine(t, portalTestConfig(), dir, &captureMailer{})
	defer done()

	if err := engine.ResendChallenge(browserContext(), "", PurposeLogin); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty principal, got %v", err)
	}
	if err := engine.ResendChallenge(browserContext(), "EMP1001", Purpose(200)); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown purpose, got %v", err)
	}
}
