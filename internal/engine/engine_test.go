package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/beacon/internal/config"
	"github.com/gyaneshwarpardhi/beacon/internal/dom"
	"github.com/gyaneshwarpardhi/beacon/internal/event"
	"github.com/gyaneshwarpardhi/beacon/internal/forwarder"
	"github.com/gyaneshwarpardhi/beacon/internal/reporter"
	"github.com/gyaneshwarpardhi/beacon/internal/session"
	"github.com/gyaneshwarpardhi/beacon/internal/store"
	"github.com/gyaneshwarpardhi/beacon/internal/vitals"
)

func newTestEngine(t *testing.T, conf config.EngineConf) (*Engine, *reporter.Memory) {
	t.Helper()
	cfg := &config.Config{Engine: conf}
	config.ApplyDefaults(cfg)
	mem := reporter.NewMemory()
	mgr := session.NewManager(mem, forwarder.NewSettings(cfg.Tracking), cfg.Sessions, nil)
	ctx, cancel := context.WithCancel(context.Background())
	eng := New(ctx, mgr, cfg.Engine)
	t.Cleanup(func() {
		cancel()
		eng.Shutdown()
	})
	return eng, mem
}

func clickEvent(id, client, category string) *event.Event {
	return &event.Event{
		ID:       id,
		Type:     event.TypeClick,
		ClientID: client,
		Click:    &event.Click{Path: dom.Path{{Tag: "a", Data: map[string]string{"category": category}}}},
	}
}

func TestProcessSync(t *testing.T) {
	eng, mem := newTestEngine(t, config.EngineConf{EventWorkers: 2})

	res, err := eng.ProcessSync(context.Background(), clickEvent("e1", "c1", "nav"))
	if err != nil {
		t.Fatalf("ProcessSync: %v", err)
	}
	if res.EventID != "e1" || !res.Forwarded || res.Error != "" {
		t.Errorf("unexpected result %+v", res)
	}
	if n := len(mem.Hits()); n != 1 {
		t.Errorf("hits = %d, want 1", n)
	}

	res, err = eng.ProcessSync(context.Background(), clickEvent("e2", "c1", ""))
	if err != nil {
		t.Fatalf("ProcessSync: %v", err)
	}
	if res.Forwarded || res.Reason != session.ReasonNotTrackable {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestProcessSync_ReportsSinkError(t *testing.T) {
	eng, mem := newTestEngine(t, config.EngineConf{EventWorkers: 1})
	mem.FailWith(errors.New("collector down"))

	res, err := eng.ProcessSync(context.Background(), clickEvent("e1", "c1", "nav"))
	if err != nil {
		t.Fatalf("ProcessSync: %v", err)
	}
	if res.Error != "collector down" {
		t.Errorf("result error = %q, want collector down", res.Error)
	}
}

func TestProcessSync_ReportsVitalSinkError(t *testing.T) {
	eng, mem := newTestEngine(t, config.EngineConf{EventWorkers: 1})
	mem.FailWith(errors.New("collector down"))

	res, err := eng.ProcessSync(context.Background(), &event.Event{
		ID: "e1", Type: event.TypeVital, ClientID: "c1",
		Vital: &vitals.Metric{Name: vitals.LCP, Delta: 1200, ID: "v3-1"},
	})
	if err != nil {
		t.Fatalf("ProcessSync: %v", err)
	}
	if res.Error != "collector down" {
		t.Errorf("result error = %q, want collector down", res.Error)
	}
}

func TestProcessAsync_PerClientOrder(t *testing.T) {
	eng, mem := newTestEngine(t, config.EngineConf{EventWorkers: 4, QueueDepth: 100})

	// The sign-in change must be applied before the click that follows it.
	for c := 0; c < 8; c++ {
		client := fmt.Sprintf("c%d", c)
		if !eng.ProcessAsync(&event.Event{ID: client + "-s", Type: event.TypeState, ClientID: client, State: &store.State{IsSignedIn: true}}) {
			t.Fatal("queue unexpectedly full")
		}
		if !eng.ProcessAsync(clickEvent(client+"-c", client, "nav")) {
			t.Fatal("queue unexpectedly full")
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(mem.Hits()) < 8 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	hits := mem.Hits()
	if len(hits) != 8 {
		t.Fatalf("hits = %d, want 8", len(hits))
	}
	for _, h := range hits {
		if h.Dimensions["dimension1"] != "1" {
			t.Errorf("client %s click sent before sign-in applied: %v", h.ClientID, h.Dimensions)
		}
	}
}

func TestWorkerPool_QueueFull(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	block := make(chan struct{})
	p := newWorkerPool[int](ctx, 1, 1, func(context.Context, int) { <-block })
	defer func() {
		close(block)
		p.Drain()
	}()

	if !p.Submit("k", 1) {
		t.Fatal("first submit should succeed")
	}
	// Wait for the worker to pick up job 1 so the queue slot frees.
	deadline := time.Now().Add(time.Second)
	for p.QueueLen() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !p.Submit("k", 2) {
		t.Fatal("second submit should fill the queue")
	}
	if p.Submit("k", 3) {
		t.Fatal("third submit should be rejected")
	}
	if p.QueueCap() != 1 {
		t.Errorf("QueueCap = %d, want 1", p.QueueCap())
	}
}

func TestWorkerPool_SubmitAfterDrain(t *testing.T) {
	p := newWorkerPool[int](context.Background(), 2, 4, func(context.Context, int) {})
	p.Drain()
	if p.Submit("k", 1) {
		t.Fatal("submit after drain should be rejected")
	}
	p.Drain() // idempotent
}

func TestWorkerPool_ShardStable(t *testing.T) {
	p := newWorkerPool[int](context.Background(), 8, 1, func(context.Context, int) {})
	defer p.Drain()
	for _, k := range []string{"a", "client-42", "7f1c"} {
		if p.shard(k) != p.shard(k) {
			t.Errorf("shard for %q not stable", k)
		}
	}
}
