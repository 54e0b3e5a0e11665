package goPortal

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goPortal/directory"
	"github.com/MrEthical07/goPortal/mailer"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func portalTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.SigningMethod = "hs256"
	cfg.Token.PrivateKey = []byte("test-secret")
	cfg.Snapshot.SealKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Challenge.ResendCooldown = time.Second
	return cfg
}

func newPortalEngine(t *testing.T, cfg Config, dir directory.Client, sender mailer.Sender) (*Engine, *miniredis.Miniredis, *redis.Client, func()) {
	t.Helper()

	mr, rdb := newTestRedis(t)

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithDirectory(dir).
		WithMailer(sender).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	return engine, mr, rdb, func() {
		engine.Close()
		mr.Close()
	}
}

func browserContext() context.Context {
	ctx := WithClientIP(context.Background(), "10.0.0.9")
	return WithUserAgent(ctx, "Mozilla/5.0 (portal-test)")
}

// ---------------------------------------------------------------------------
// mock directory

type activityCall struct {
	key      string
	activity directory.Activity
}

type mockDirectory struct {
	mu sync.Mutex

	accounts  map[string]directory.Account
	keys      map[string]string
	passwords map[string]string

	loginErr  error
	lookupErr error

	lookupCalls    int
	activities     []activityCall
	changeRequests []directory.ChangeRequest
	tickets        []directory.RecoveryTicket
}

func newMockDirectory(t *testing.T) *mockDirectory {
	t.Helper()

	d := &mockDirectory{
		accounts:  map[string]directory.Account{},
		keys:      map[string]string{},
		passwords: map[string]string{},
	}
	d.addAccount(directory.Account{
		UID:    "EMP1001",
		Status: "Active",
		Personal: directory.PersonalInfo{
			Name:  "Asha Verma",
			Phone: "9876543210",
			Email: "asha.verma@example.com",
		},
		Bank: directory.BankDetails{
			Bank:   "State Bank",
			Branch: "Connaught Place",
			IFSC:   "SBIN0000691",
			Acc:    "3521000123456789",
			Salary: "54000",
		},
		Security: directory.SecurityDetails{Aadhaar: "123412341234"},
	}, "records/EMP1001", "correct-horse-9")
	return d
}

func (d *mockDirectory) addAccount(account directory.Account, key, password string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accounts[account.UID] = account
	d.keys[account.UID] = key
	d.passwords[account.UID] = password
}

func (d *mockDirectory) password(uid string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.passwords[uid]
}

func (d *mockDirectory) lastActivity() (activityCall, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.activities) == 0 {
		return activityCall{}, false
	}
	return d.activities[len(d.activities)-1], true
}

func (d *mockDirectory) Lookup(_ context.Context, identifier string) (*directory.LookupResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookupCalls++
	if d.lookupErr != nil {
		return nil, d.lookupErr
	}
	if account, ok := d.accounts[identifier]; ok {
		return &directory.LookupResult{Account: account, Key: d.keys[identifier]}, nil
	}
	for uid, account := range d.accounts {
		if account.Personal.Phone == identifier || strings.EqualFold(account.Personal.Email, identifier) {
			return &directory.LookupResult{Account: account, Key: d.keys[uid]}, nil
		}
	}
	return nil, directory.ErrNotFound
}

func (d *mockDirectory) Login(ctx context.Context, uid, password string) (*directory.LookupResult, error) {
	d.mu.Lock()
	if d.loginErr != nil {
		err := d.loginErr
		d.mu.Unlock()
		return nil, err
	}
	stored, ok := d.passwords[uid]
	d.mu.Unlock()
	if !ok {
		return nil, directory.ErrNotFound
	}
	if stored != password {
		return nil, directory.ErrUnauthorized
	}
	return d.Lookup(ctx, uid)
}

func (d *mockDirectory) UpdatePassword(_ context.Context, uid, newPassword string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.passwords[uid]; !ok {
		return directory.ErrNotFound
	}
	d.passwords[uid] = newPassword
	return nil
}

func (d *mockDirectory) SubmitChangeRequest(_ context.Context, req directory.ChangeRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.changeRequests = append(d.changeRequests, req)
	return nil
}

func (d *mockDirectory) SubmitRecoveryTicket(_ context.Context, ticket directory.RecoveryTicket) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tickets = append(d.tickets, ticket)
	return nil
}

func (d *mockDirectory) UpdateActivity(_ context.Context, storageKey string, activity directory.Activity) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.activities = append(d.activities, activityCall{key: storageKey, activity: activity})
	return nil
}

func (d *mockDirectory) Messages(context.Context, string) ([]directory.Message, error) {
	return nil, nil
}

func (d *mockDirectory) SendMessage(context.Context, directory.Message) error {
	return nil
}

func (d *mockDirectory) Incharges(context.Context) ([]directory.Incharge, error) {
	return nil, nil
}

func (d *mockDirectory) Payslips(context.Context, string) ([]directory.Payslip, error) {
	return nil, nil
}

func (d *mockDirectory) MonthAttendance(context.Context, string, string) (*directory.Attendance, error) {
	return nil, directory.ErrNotFound
}

// ---------------------------------------------------------------------------
// capture mailer

type captureMailer struct {
	mu       sync.Mutex
	messages []mailer.Message
	failWith error
}

func (m *captureMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func (m *captureMailer) last(t *testing.T) mailer.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		t.Fatal("no mail captured")
	}
	return m.messages[len(m.messages)-1]
}

// lastCode extracts the code from "Your verification code is 123456. ...".
func (m *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	fields := strings.Fields(m.last(t).Body)
	for i, f := range fields {
		if f == "is" && i+1 < len(fields) {
			return strings.TrimSuffix(fields[i+1], ".")
		}
	}
	t.Fatalf("no code in mail body: %q", m.last(t).Body)
	return ""
}
