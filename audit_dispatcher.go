package goPortal

import (
	"context"
	"sync"
	"sync/atomic"
)

// queuedAudit pairs an event with its unevaluated metadata closure. The
// closure runs on the worker goroutine, so workflow callers never pay for
// building metadata maps.
type queuedAudit struct {
	event AuditEvent
	meta  func() map[string]string
}

type auditDispatcher struct {
	sink    AuditSink
	queue   chan queuedAudit
	quit    chan struct{}
	idle    chan struct{}
	block   bool
	dropped atomic.Uint64
	stop    sync.Once
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}

	d := &auditDispatcher{
		sink:  sink,
		queue: make(chan queuedAudit, size),
		quit:  make(chan struct{}),
		idle:  make(chan struct{}),
		block: !cfg.DropIfFull,
	}
	go d.drain()
	return d
}

// drain is the single worker: it finishes each event (metadata closure) and
// hands it to the sink. After quit it flushes whatever is still buffered.
func (d *auditDispatcher) drain() {
	defer close(d.idle)

	for {
		select {
		case q := <-d.queue:
			d.deliver(q)
		case <-d.quit:
			for {
				select {
				case q := <-d.queue:
					d.deliver(q)
				default:
					return
				}
			}
		}
	}
}

func (d *auditDispatcher) deliver(q queuedAudit) {
	if q.meta != nil {
		q.event.Metadata = q.meta()
	}
	d.sink.Emit(context.Background(), q.event)
}

// Emit queues an event without evaluating meta. In drop mode a full buffer
// increments the drop counter instead of stalling the calling workflow; in
// blocking mode the caller waits until the queue accepts, the context is
// cancelled, or the dispatcher shuts down.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent, meta func() map[string]string) {
	if d == nil {
		return
	}
	select {
	case <-d.quit:
		return
	default:
	}

	q := queuedAudit{event: event, meta: meta}
	if !d.block {
		select {
		case d.queue <- q:
		default:
			d.dropped.Add(1)
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.queue <- q:
	case <-ctx.Done():
	case <-d.quit:
	}
}

// Close stops intake and waits for the worker to flush the queue. Safe to
// call more than once.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.stop.Do(func() {
		close(d.quit)
		<-d.idle
	})
}

// Dropped returns the number of events discarded under backpressure.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
