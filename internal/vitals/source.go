package vitals

import (
	"context"
	"errors"
	"sync"
)

// Callback handles one published metric.
type Callback func(context.Context, Metric) error

// Source fans published metrics out to the callbacks registered for their kind.
// It stands in for the six web-vitals observers (onCLS, onFCP, ...).
type Source struct {
	mu        sync.RWMutex
	callbacks map[Kind][]Callback
}

// NewSource creates a Source with no subscribers.
func NewSource() *Source {
	return &Source{callbacks: make(map[Kind][]Callback)}
}

// On registers fn for metrics of kind k.
func (s *Source) On(k Kind, fn Callback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks[k] = append(s.callbacks[k], fn)
}

// Publish delivers m to every callback registered for m.Name. It returns how
// many were invoked and the joined errors of those that failed. A failing
// callback does not stop the rest.
func (s *Source) Publish(ctx context.Context, m Metric) (int, error) {
	s.mu.RLock()
	fns := make([]Callback, len(s.callbacks[m.Name]))
	copy(fns, s.callbacks[m.Name])
	s.mu.RUnlock()

	var errs []error
	for _, fn := range fns {
		if err := fn(ctx, m); err != nil {
			errs = append(errs, err)
		}
	}
	return len(fns), errors.Join(errs...)
}
