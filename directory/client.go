package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultTimeout = 15 * time.Second

// HTTPClient is the JSON-over-HTTP implementation of Client. The zero value
// is not usable; construct it with NewHTTPClient.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient describes the new h t t p client operation and its observable behavior.
// NewHTTPClient may return an error when input validation, dependency calls, or security checks fail.
// NewHTTPClient does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewHTTPClient(baseURL string, hc *http.Client) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("directory: empty base url")
	}
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &HTTPClient{baseURL: baseURL, http: hc}, nil
}

type lookupResponse struct {
	User *Account `json:"user"`
	Key  string   `json:"key"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Lookup describes the lookup operation and its observable behavior.
// Lookup may return an error when input validation, dependency calls, or security checks fail.
// Lookup does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *HTTPClient) Lookup(ctx context.Context, identifier string) (*LookupResult, error) {
	q := url.Values{"uid": {identifier}}
	var out lookupResponse
	if err := c.get(ctx, "/api/get-user?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	if out.User == nil || out.User.UID == "" {
		return nil, ErrSchema
	}
	return &LookupResult{Account: *out.User, Key: out.Key}, nil
}

// Login describes the login operation and its observable behavior.
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *HTTPClient) Login(ctx context.Context, uid, password string) (*LookupResult, error) {
	body := map[string]string{"uid": uid, "password": password}
	var out lookupResponse
	if err := c.post(ctx, "/api/login", body, &out); err != nil {
		return nil, err
	}
	if out.User == nil || out.User.UID == "" {
		return nil, ErrSchema
	}
	return &LookupResult{Account: *out.User, Key: out.Key}, nil
}

// UpdatePassword describes the update password operation and its observable behavior.
// UpdatePassword may return an error when input validation, dependency calls, or security checks fail.
// UpdatePassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *HTTPClient) UpdatePassword(ctx context.Context, uid, newPassword string) error {
	body := map[string]string{"uid": uid, "newPassword": newPassword}
	var out statusResponse
	if err := c.post(ctx, "/api/update-password", body, &out); err != nil {
		return err
	}
	if !out.Success {
		if out.Error != "" {
			return fmt.Errorf("%w: %s", ErrRejected, out.Error)
		}
		return ErrRejected
	}
	return nil
}

// SubmitChangeRequest describes the submit change request operation and its observable behavior.
// SubmitChangeRequest may return an error when input validation, dependency calls, or security checks fail.
// SubmitChangeRequest does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *HTTPClient) SubmitChangeRequest(ctx context.Context, req ChangeRequest) error {
	var out statusResponse
	if err := c.post(ctx, "/api/submit-request", req, &out); err != nil {
		return err
	}
	if !out.Success {
		return ErrRejected
	}
	return nil
}

// SubmitRecoveryTicket describes the submit recovery ticket operation and its observable behavior.
// SubmitRecoveryTicket may return an error when input validation, dependency calls, or security checks fail.
// SubmitRecoveryTicket does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *HTTPClient) SubmitRecoveryTicket(ctx context.Context, ticket RecoveryTicket) error {
	var out statusResponse
	if err := c.post(ctx, "/api/submit-recovery", ticket, &out); err != nil {
		return err
	}
	if !out.Success {
		return ErrRejected
	}
	return nil
}

// UpdateActivity describes the update activity operation and its observable behavior.
// UpdateActivity may return an error when input validation, dependency calls, or security checks fail.
// UpdateActivity does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *HTTPClient) UpdateActivity(ctx context.Context, storageKey string, activity Activity) error {
	body := struct {
		DBKey        string   `json:"dbKey"`
		ActivityData Activity `json:"activityData"`
	}{DBKey: storageKey, ActivityData: activity}
	var out statusResponse
	return c.post(ctx, "/api/update-activity", body, &out)
}

// Messages describes the messages operation and its observable behavior.
// Messages may return an error when input validation, dependency calls, or security checks fail.
// Messages does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *HTTPClient) Messages(ctx context.Context, uid string) ([]Message, error) {
	q := url.Values{"uid": {uid}}
	var out struct {
		Messages []Message `json:"messages"`
	}
	if err := c.get(ctx, "/api/get-messages?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// SendMessage describes the send message operation and its observable behavior.
// SendMessage may return an error when input validation, dependency calls, or security checks fail.
// SendMessage does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *HTTPClient) SendMessage(ctx context.Context, msg Message) error {
	var out statusResponse
	if err := c.post(ctx, "/api/send-message", msg, &out); err != nil {
		return err
	}
	if !out.Success {
		return ErrRejected
	}
	return nil
}

// Incharges describes the incharges operation and its observable behavior.
// Incharges may return an error when input validation, dependency calls, or security checks fail.
// Incharges does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *HTTPClient) Incharges(ctx context.Context) ([]Incharge, error) {
	var out struct {
		Incharges []Incharge `json:"incharges"`
	}
	if err := c.get(ctx, "/api/get-incharges", &out); err != nil {
		return nil, err
	}
	return out.Incharges, nil
}

// Payslips describes the payslips operation and its observable behavior.
// Payslips may return an error when input validation, dependency calls, or security checks fail.
// Payslips does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *HTTPClient) Payslips(ctx context.Context, uid string) ([]Payslip, error) {
	q := url.Values{"uid": {uid}}
	var out struct {
		Payslips []Payslip `json:"payslips"`
	}
	if err := c.get(ctx, "/api/get-payslips?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Payslips, nil
}

// MonthAttendance describes the month attendance operation and its observable behavior.
// MonthAttendance may return an error when input validation, dependency calls, or security checks fail.
// MonthAttendance does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *HTTPClient) MonthAttendance(ctx context.Context, uid, month string) (*Attendance, error) {
	q := url.Values{"uid": {uid}, "month": {month}}
	var out struct {
		Attendance *Attendance `json:"attendance"`
	}
	if err := c.get(ctx, "/api/get-attendance?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	if out.Attendance == nil {
		return nil, ErrNotFound
	}
	return out.Attendance, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return c.do(req, out)
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		io.Copy(io.Discard, resp.Body)
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return ErrNotFound
	case resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return nil
}
