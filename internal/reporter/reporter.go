package reporter

import (
	"context"
	"time"
)

// Reporter is the analytics capability the forwarder reports through.
// It mirrors the four commands of the analytics.js global.
type Reporter interface {
	SendEvent(ctx context.Context, ev Event) error
	SendException(ctx context.Context, ex Exception) error
	SendPageview(ctx context.Context) error
	SetDimension(key, value string)
}

// Event is a generic analytics event.
type Event struct {
	Category       string
	Action         string
	Label          string
	Value          *float64
	NonInteraction bool
	// Custom dimensions that apply to this hit only.
	Dimensions map[string]string
}

// Exception describes an error reported to the collector.
type Exception struct {
	Description string
	Fatal       bool
}

// HitType discriminates the three hits a tracker emits.
type HitType string

const (
	HitEvent     HitType = "event"
	HitException HitType = "exception"
	HitPageview  HitType = "pageview"
)

// Hit is the unit handed to sinks.
type Hit struct {
	ID             string            `json:"id"`
	Type           HitType           `json:"type"`
	ClientID       string            `json:"client_id"`
	Page           string            `json:"page,omitempty"`
	Category       string            `json:"category,omitempty"`
	Action         string            `json:"action,omitempty"`
	Label          string            `json:"label,omitempty"`
	Value          *float64          `json:"value,omitempty"`
	NonInteraction bool              `json:"non_interaction,omitempty"`
	Description    string            `json:"description,omitempty"`
	Fatal          bool              `json:"fatal,omitempty"`
	Dimensions     map[string]string `json:"dimensions,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
}

// Sink delivers hits somewhere: the collector, an archive, the log.
type Sink interface {
	Name() string
	Send(ctx context.Context, h *Hit) error
}
