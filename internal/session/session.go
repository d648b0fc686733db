package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/gyaneshwarpardhi/beacon/internal/config"
	"github.com/gyaneshwarpardhi/beacon/internal/event"
	"github.com/gyaneshwarpardhi/beacon/internal/forwarder"
	"github.com/gyaneshwarpardhi/beacon/internal/metrics"
	"github.com/gyaneshwarpardhi/beacon/internal/reporter"
	"github.com/gyaneshwarpardhi/beacon/internal/store"
	"github.com/gyaneshwarpardhi/beacon/internal/vitals"
)

// Session is everything the shim keeps for one browser client: its tracker,
// its state-store mirror, its metric source and the forwarder wired to them.
type Session struct {
	ClientID  string
	Tracker   *reporter.Tracker
	Store     *store.Store
	Vitals    *vitals.Source
	Forwarder *forwarder.Forwarder

	detach func()
}

// Ignore reasons reported in Outcome.Reason.
const (
	ReasonNotTrackable = "not_trackable"
	ReasonNotPersisted = "not_persisted"
	ReasonNoSubscriber = "no_subscriber"
)

// Outcome describes what handling an event did.
type Outcome struct {
	Forwarded bool   `json:"forwarded"`
	Reason    string `json:"reason,omitempty"`
}

// Handle routes ev to the matching forwarder entry point.
func (s *Session) Handle(ctx context.Context, ev *event.Event) (Outcome, error) {
	if ev.Page != "" {
		s.Tracker.SetPage(ev.Page)
	}
	switch ev.Type {
	case event.TypeClick:
		sent, err := s.Forwarder.HandleClick(ctx, ev.Click.Path)
		if !sent {
			return Outcome{Reason: ReasonNotTrackable}, err
		}
		return Outcome{Forwarded: true}, err
	case event.TypePageShow:
		sent, err := s.Forwarder.HandlePageShow(ctx, ev.PageShow.Persisted)
		if !sent {
			return Outcome{Reason: ReasonNotPersisted}, err
		}
		return Outcome{Forwarded: true}, err
	case event.TypeState:
		s.Store.Set(*ev.State)
		return Outcome{Forwarded: true}, nil
	case event.TypeVital:
		n, err := s.Vitals.Publish(ctx, *ev.Vital)
		if n == 0 {
			return Outcome{Reason: ReasonNoSubscriber}, nil
		}
		return Outcome{Forwarded: true}, err
	case event.TypeError:
		e := ev.Error
		return Outcome{Forwarded: true}, s.Forwarder.SendError(ctx, errors.New(e.Message), e.Context, e.Fatal)
	}
	return Outcome{}, fmt.Errorf("%w %q", event.ErrUnknownType, ev.Type)
}

// Manager creates sessions on first sight and evicts idle ones.
type Manager struct {
	mu       sync.Mutex
	cache    *lru.LRU[string, *Session]
	sink     reporter.Sink
	settings *forwarder.Settings
	log      *slog.Logger
}

// NewManager holds at most conf.Max sessions, each dropped after conf.IdleTTL
// without events.
func NewManager(sink reporter.Sink, settings *forwarder.Settings, conf config.SessionConf, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{sink: sink, settings: settings, log: logger}
	m.cache = lru.NewLRU[string, *Session](conf.Max, m.onEvict, conf.IdleTTL)
	return m
}

// Get returns the session for clientID, creating and wiring it if needed.
// Every call refreshes the session's idle timer.
func (m *Manager) Get(clientID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.cache.Get(clientID)
	if !ok {
		s = m.newSession(clientID)
		m.log.Debug("session created", "client_id", clientID)
	}
	m.cache.Add(clientID, s)
	metrics.SessionsActive.Set(float64(m.cache.Len()))
	return s
}

// Peek returns an existing session without creating one or touching its timer.
func (m *Manager) Peek(clientID string) (*Session, bool) {
	return m.cache.Peek(clientID)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	return m.cache.Len()
}

// Purge drops every session.
func (m *Manager) Purge() {
	m.cache.Purge()
	metrics.SessionsActive.Set(0)
}

func (m *Manager) newSession(clientID string) *Session {
	tr := reporter.NewTracker(clientID, m.sink)
	s := &Session{
		ClientID:  clientID,
		Tracker:   tr,
		Store:     store.New(),
		Vitals:    vitals.NewSource(),
		Forwarder: forwarder.New(tr, m.settings, m.log.With("client_id", clientID)),
	}
	s.detach = s.Forwarder.Attach(s.Store, s.Vitals)
	return s
}

func (m *Manager) onEvict(clientID string, s *Session) {
	if s.detach != nil {
		s.detach()
	}
	m.log.Debug("session evicted", "client_id", clientID)
}
