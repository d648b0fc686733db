package reporter

import (
	"context"
	"errors"
	"fmt"

	"github.com/gyaneshwarpardhi/beacon/internal/metrics"
)

// Multi sends every hit to each of its sinks. All sinks are attempted; their
// errors are joined.
type Multi struct {
	sinks []Sink
}

// NewMulti fans out to sinks in order.
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Send(ctx context.Context, h *Hit) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Send(ctx, h); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that holds resources.
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// counted records the outcome of each Send in beacon_hits_total.
type counted struct {
	Sink
}

func (c counted) Send(ctx context.Context, h *Hit) error {
	err := c.Sink.Send(ctx, h)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.HitsSent.WithLabelValues(string(h.Type), c.Sink.Name(), status).Inc()
	return err
}

func (c counted) Close() error {
	if cl, ok := c.Sink.(interface{ Close() error }); ok {
		return cl.Close()
	}
	return nil
}
