package reporter

import (
	"context"
	"sync"
)

// Memory keeps every hit it receives. Used by tests and the debug log.
type Memory struct {
	mu   sync.Mutex
	hits []*Hit
	err  error
}

// NewMemory returns an empty recorder.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Name() string { return "memory" }

// Send records h, or returns the configured failure without recording.
func (m *Memory) Send(_ context.Context, h *Hit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.hits = append(m.hits, h)
	return nil
}

// FailWith makes every subsequent Send return err. nil restores normal operation.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Hits returns a copy of the recorded hits.
func (m *Memory) Hits() []*Hit {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Hit, len(m.hits))
	copy(out, m.hits)
	return out
}

// OfType returns the recorded hits of type typ.
func (m *Memory) OfType(typ HitType) []*Hit {
	var out []*Hit
	for _, h := range m.Hits() {
		if h.Type == typ {
			out = append(out, h)
		}
	}
	return out
}

// Reset drops everything recorded so far.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits = nil
}
