package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/beacon/internal/config"
	"github.com/gyaneshwarpardhi/beacon/internal/dom"
	"github.com/gyaneshwarpardhi/beacon/internal/event"
	"github.com/gyaneshwarpardhi/beacon/internal/forwarder"
	"github.com/gyaneshwarpardhi/beacon/internal/reporter"
	"github.com/gyaneshwarpardhi/beacon/internal/store"
	"github.com/gyaneshwarpardhi/beacon/internal/vitals"
)

func newTestManager(t *testing.T, conf config.SessionConf) (*Manager, *reporter.Memory) {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	if conf.Max == 0 {
		conf.Max = cfg.Sessions.Max
	}
	if conf.IdleTTL == 0 {
		conf.IdleTTL = cfg.Sessions.IdleTTL
	}
	mem := reporter.NewMemory()
	return NewManager(mem, forwarder.NewSettings(cfg.Tracking), conf, nil), mem
}

func TestManager_GetReusesSession(t *testing.T) {
	m, _ := newTestManager(t, config.SessionConf{})
	a := m.Get("c1")
	b := m.Get("c1")
	c := m.Get("c2")
	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, m.Len())
}

func TestManager_EvictsLeastRecent(t *testing.T) {
	m, _ := newTestManager(t, config.SessionConf{Max: 2})
	m.Get("c1")
	m.Get("c2")
	m.Get("c1")
	m.Get("c3")

	_, ok := m.Peek("c2")
	assert.False(t, ok, "c2 should be evicted")
	_, ok = m.Peek("c1")
	assert.True(t, ok)
	assert.Equal(t, 2, m.Len())
}

func TestManager_IdleExpiry(t *testing.T) {
	m, _ := newTestManager(t, config.SessionConf{IdleTTL: 20 * time.Millisecond})
	first := m.Get("c1")
	time.Sleep(60 * time.Millisecond)
	second := m.Get("c1")
	assert.NotSame(t, first, second, "expired session should be recreated")
}

func TestSession_Handle(t *testing.T) {
	ctx := context.Background()
	m, mem := newTestManager(t, config.SessionConf{})
	s := m.Get("c1")

	out, err := s.Handle(ctx, &event.Event{
		Type: event.TypeState, ClientID: "c1",
		State: &store.State{IsSignedIn: true},
	})
	require.NoError(t, err)
	assert.True(t, out.Forwarded)
	assert.Empty(t, mem.Hits())

	out, err = s.Handle(ctx, &event.Event{
		Type: event.TypeClick, ClientID: "c1", Page: "/pricing",
		Click: &event.Click{Path: dom.Path{{Tag: "a", Data: map[string]string{"category": "cta"}}}},
	})
	require.NoError(t, err)
	assert.True(t, out.Forwarded)

	out, err = s.Handle(ctx, &event.Event{
		Type: event.TypeClick, ClientID: "c1",
		Click: &event.Click{Path: dom.Path{{Tag: "div"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, Outcome{Reason: ReasonNotTrackable}, out)

	out, err = s.Handle(ctx, &event.Event{
		Type: event.TypePageShow, ClientID: "c1",
		PageShow: &event.PageShow{Persisted: false},
	})
	require.NoError(t, err)
	assert.Equal(t, ReasonNotPersisted, out.Reason)

	out, err = s.Handle(ctx, &event.Event{
		Type: event.TypeVital, ClientID: "c1",
		Vital: &vitals.Metric{Name: vitals.LCP, Delta: 1200, ID: "v1"},
	})
	require.NoError(t, err)
	assert.True(t, out.Forwarded)

	out, err = s.Handle(ctx, &event.Event{
		Type: event.TypeError, ClientID: "c1",
		Error: &event.Error{Message: "boom", Context: "checkout"},
	})
	require.NoError(t, err)
	assert.True(t, out.Forwarded)

	hits := mem.Hits()
	require.Len(t, hits, 3)
	assert.Equal(t, "cta", hits[0].Category)
	assert.Equal(t, "/pricing", hits[0].Page)
	assert.Equal(t, "1", hits[0].Dimensions["dimension1"])
	assert.Equal(t, "LCP", hits[1].Action)
	assert.Equal(t, "checkout (boom)", hits[2].Description)
	for _, h := range hits {
		assert.Equal(t, "c1", h.ClientID)
	}
}

func TestSession_HandleVitalReportsSinkError(t *testing.T) {
	m, mem := newTestManager(t, config.SessionConf{})
	mem.FailWith(errors.New("collector down"))
	s := m.Get("c1")

	out, err := s.Handle(context.Background(), &event.Event{
		Type: event.TypeVital, ClientID: "c1",
		Vital: &vitals.Metric{Name: vitals.LCP, Delta: 1200, ID: "v3-9"},
	})
	assert.True(t, out.Forwarded)
	assert.ErrorContains(t, err, "collector down")
}
