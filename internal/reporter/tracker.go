package reporter

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Tracker is a Reporter bound to one client. Like an analytics.js tracker it
// remembers dimensions set on it and stamps them onto every later hit.
type Tracker struct {
	clientID string
	sink     Sink
	now      func() time.Time

	mu   sync.RWMutex
	page string
	dims map[string]string
}

var _ Reporter = (*Tracker)(nil)

// NewTracker creates a Tracker for clientID that delivers to sink.
func NewTracker(clientID string, sink Sink) *Tracker {
	return &Tracker{
		clientID: clientID,
		sink:     sink,
		now:      time.Now,
		dims:     make(map[string]string),
	}
}

// ClientID returns the client this tracker reports for.
func (t *Tracker) ClientID() string { return t.clientID }

// SetPage sets the page path attached to subsequent hits.
func (t *Tracker) SetPage(page string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.page = page
}

// SetDimension records a dimension for all subsequent hits.
func (t *Tracker) SetDimension(key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dims[key] = value
}

// Dimension returns the current value of a tracker-level dimension.
func (t *Tracker) Dimension(key string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.dims[key]
	return v, ok
}

// SendEvent emits an event hit.
func (t *Tracker) SendEvent(ctx context.Context, ev Event) error {
	h := t.newHit(HitEvent, ev.Dimensions)
	h.Category = ev.Category
	h.Action = ev.Action
	h.Label = ev.Label
	h.Value = ev.Value
	h.NonInteraction = ev.NonInteraction
	return t.sink.Send(ctx, h)
}

// SendException emits an exception hit.
func (t *Tracker) SendException(ctx context.Context, ex Exception) error {
	h := t.newHit(HitException, nil)
	h.Description = ex.Description
	h.Fatal = ex.Fatal
	return t.sink.Send(ctx, h)
}

// SendPageview emits a pageview hit for the current page.
func (t *Tracker) SendPageview(ctx context.Context) error {
	return t.sink.Send(ctx, t.newHit(HitPageview, nil))
}

func (t *Tracker) newHit(typ HitType, extra map[string]string) *Hit {
	t.mu.RLock()
	dims := make(map[string]string, len(t.dims)+len(extra))
	for k, v := range t.dims {
		dims[k] = v
	}
	page := t.page
	t.mu.RUnlock()

	for k, v := range extra {
		dims[k] = v
	}
	return &Hit{
		ID:         uuid.New().String(),
		Type:       typ,
		ClientID:   t.clientID,
		Page:       page,
		Dimensions: dims,
		Timestamp:  t.now().UTC(),
	}
}
