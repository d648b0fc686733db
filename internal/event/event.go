package event

import (
	"errors"
	"fmt"
	"time"

	"github.com/gyaneshwarpardhi/beacon/internal/dom"
	"github.com/gyaneshwarpardhi/beacon/internal/store"
	"github.com/gyaneshwarpardhi/beacon/internal/vitals"
)

// Type names the browser observation an event carries.
type Type string

const (
	TypeClick    Type = "click"
	TypePageShow Type = "pageshow"
	TypeState    Type = "state"
	TypeVital    Type = "vital"
	TypeError    Type = "error"
)

var (
	ErrMissingType     = errors.New("event type is required")
	ErrMissingClientID = errors.New("client_id is required")
	ErrUnknownType     = errors.New("unknown event type")
	ErrMissingPayload  = errors.New("payload missing for event type")
)

// Event is the canonical envelope posted by the beacon.
// Exactly one payload field matching Type is set.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	ClientID   string    `json:"client_id"`
	Page       string    `json:"page,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	ReceivedAt time.Time `json:"-"`

	Click    *Click         `json:"click,omitempty"`
	PageShow *PageShow      `json:"pageshow,omitempty"`
	State    *store.State   `json:"state,omitempty"`
	Vital    *vitals.Metric `json:"vital,omitempty"`
	Error    *Error         `json:"error,omitempty"`
}

// Click carries the composed event path of a DOM click.
type Click struct {
	Path dom.Path `json:"path"`
}

// PageShow mirrors the pageshow event.
type PageShow struct {
	Persisted bool `json:"persisted"`
}

// Error is an application error the page asked to report.
type Error struct {
	Message string `json:"message"`
	Context string `json:"context,omitempty"`
	Fatal   bool   `json:"fatal,omitempty"`
}

// Validate checks the envelope shape. It does not look inside payloads.
func (e *Event) Validate() error {
	if e.Type == "" {
		return ErrMissingType
	}
	if e.ClientID == "" {
		return ErrMissingClientID
	}
	var present bool
	switch e.Type {
	case TypeClick:
		present = e.Click != nil
	case TypePageShow:
		present = e.PageShow != nil
	case TypeState:
		present = e.State != nil
	case TypeVital:
		present = e.Vital != nil
	case TypeError:
		present = e.Error != nil
	default:
		return fmt.Errorf("%w %q", ErrUnknownType, e.Type)
	}
	if !present {
		return fmt.Errorf("%w %q", ErrMissingPayload, e.Type)
	}
	return nil
}
