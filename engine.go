package goPortal

import (
	"github.com/MrEthical07/goPortal/directory"
	"github.com/MrEthical07/goPortal/mailer"
	"github.com/MrEthical07/goPortal/session"
	"github.com/MrEthical07/goPortal/token"
)

// Engine defines a public type used by goPortal APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config         Config
	sessionStore   *session.Store
	challengeStore *challengeStore
	resendLimiter  *resendLimiter
	trustStore     *trustStore
	recoveryStore  *recoveryStore
	stagedStore    *stagedChangeStore
	snapshotStore  *snapshotStore
	audit          *auditDispatcher
	metrics        *Metrics
	tokenManager   *token.Manager
	directory      directory.Client
	mailer         mailer.Sender
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Directory exposes the backend client for portal read surfaces (messages,
// incharges, payslips, attendance) so embedding applications do not need a
// second configured client.
func (e *Engine) Directory() directory.Client {
	if e == nil {
		return nil
	}
	return e.directory
}
