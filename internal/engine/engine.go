package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gyaneshwarpardhi/beacon/internal/config"
	"github.com/gyaneshwarpardhi/beacon/internal/event"
	"github.com/gyaneshwarpardhi/beacon/internal/metrics"
	"github.com/gyaneshwarpardhi/beacon/internal/session"
)

var (
	ErrQueueFull = errors.New("event queue full")
	ErrTimeout   = errors.New("event processing timeout")
)

// EventResult is the outcome of processing a single event.
type EventResult struct {
	EventID    string     `json:"event_id"`
	Type       event.Type `json:"type"`
	DurationMs int64      `json:"duration_ms"`
	Forwarded  bool       `json:"forwarded"`
	Reason     string     `json:"reason,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Engine dispatches beacon events to client sessions.
type Engine struct {
	sessions *session.Manager
	pool     *workerPool[*eventWork]
	conf     config.EngineConf
}

type eventWork struct {
	ev      *event.Event
	resultC chan *EventResult
}

// New creates an Engine using conf and starts the worker pool.
func New(ctx context.Context, sessions *session.Manager, conf config.EngineConf) *Engine {
	e := &Engine{sessions: sessions, conf: conf}
	e.pool = newWorkerPool[*eventWork](
		ctx,
		conf.EventWorkers,
		conf.QueueDepth,
		func(ctx context.Context, w *eventWork) {
			res := e.processEvent(ctx, w.ev)
			if w.resultC != nil {
				w.resultC <- res
			}
		},
	)
	return e
}

// ProcessSync processes an event and waits for its result.
func (e *Engine) ProcessSync(ctx context.Context, ev *event.Event) (*EventResult, error) {
	resultC := make(chan *EventResult, 1)
	w := &eventWork{ev: ev, resultC: resultC}

	timeout := time.Duration(e.conf.EventTimeoutMs) * time.Millisecond
	if !e.pool.Submit(ev.ClientID, w) {
		metrics.EventsDropped.Inc()
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.pool.QueueCap())
	}
	metrics.EventsEnqueued.Inc()

	select {
	case res := <-resultC:
		return res, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w after %v", ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ProcessAsync enqueues an event for background processing. Returns false if the queue is full.
func (e *Engine) ProcessAsync(ev *event.Event) bool {
	if !e.pool.Submit(ev.ClientID, &eventWork{ev: ev}) {
		metrics.EventsDropped.Inc()
		return false
	}
	metrics.EventsEnqueued.Inc()
	return true
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

func (e *Engine) processEvent(ctx context.Context, ev *event.Event) *EventResult {
	start := time.Now()
	s := e.sessions.Get(ev.ClientID)

	out, err := s.Handle(ctx, ev)

	result := &EventResult{
		EventID:   ev.ID,
		Type:      ev.Type,
		Forwarded: out.Forwarded,
		Reason:    out.Reason,
	}
	if err != nil {
		result.Error = err.Error()
		slog.Warn("event not delivered", "event_id", ev.ID, "type", ev.Type, "client_id", ev.ClientID, "err", err)
	}
	result.DurationMs = time.Since(start).Milliseconds()

	metrics.EventsProcessed.WithLabelValues(string(ev.Type)).Inc()
	metrics.EventProcessingDuration.Observe(float64(result.DurationMs))
	if out.Reason != "" {
		metrics.EventsIgnored.WithLabelValues(out.Reason).Inc()
	}
	return result
}

// Shutdown drains the pool gracefully.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}
