// Package mailer defines the delivery boundary for challenge codes and
// notifications. The engine never builds transport requests itself; it hands
// a Message to a Sender and treats any error as a delivery failure.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrDelivery is returned when a provider rejects or fails a send.
var ErrDelivery = errors.New("mailer: delivery failed")

// Message is a single outbound mail.
type Message struct {
	To   string
	Name string
	Body string
}

// Sender delivers messages. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Func adapts a plain function to the Sender interface.
type Func func(ctx context.Context, msg Message) error

// Send describes the send operation and its observable behavior.
// Send may return an error when input validation, dependency calls, or security checks fail.
// Send does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f Func) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

const emailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// EmailJSConfig holds the provider identifiers for an EmailJS template send.
type EmailJSConfig struct {
	ServiceID  string
	TemplateID string
	UserID     string

	// Endpoint overrides the provider URL; empty means the public API.
	Endpoint string
	// HTTPClient overrides the transport; nil means a 15s-timeout default.
	HTTPClient *http.Client
}

// EmailJS is a Sender backed by the EmailJS REST API.
type EmailJS struct {
	cfg      EmailJSConfig
	endpoint string
	http     *http.Client
}

// NewEmailJS describes the new email j s operation and its observable behavior.
// NewEmailJS may return an error when input validation, dependency calls, or security checks fail.
// NewEmailJS does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewEmailJS(cfg EmailJSConfig) (*EmailJS, error) {
	if cfg.ServiceID == "" || cfg.TemplateID == "" || cfg.UserID == "" {
		return nil, fmt.Errorf("mailer: incomplete emailjs config")
	}
	ep := cfg.Endpoint
	if ep == "" {
		ep = emailJSEndpoint
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &EmailJS{cfg: cfg, endpoint: ep, http: hc}, nil
}

// Send describes the send operation and its observable behavior.
// Send may return an error when input validation, dependency calls, or security checks fail.
// Send does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *EmailJS) Send(ctx context.Context, msg Message) error {
	payload := struct {
		ServiceID      string            `json:"service_id"`
		TemplateID     string            `json:"template_id"`
		UserID         string            `json:"user_id"`
		TemplateParams map[string]string `json:"template_params"`
	}{
		ServiceID:  m.cfg.ServiceID,
		TemplateID: m.cfg.TemplateID,
		UserID:     m.cfg.UserID,
		TemplateParams: map[string]string{
			"to_email": msg.To,
			"name":     msg.Name,
			"message":  msg.Body,
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrDelivery, resp.StatusCode)
	}
	return nil
}
