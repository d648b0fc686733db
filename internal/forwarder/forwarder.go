package forwarder

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gyaneshwarpardhi/beacon/internal/config"
	"github.com/gyaneshwarpardhi/beacon/internal/dom"
	"github.com/gyaneshwarpardhi/beacon/internal/reporter"
	"github.com/gyaneshwarpardhi/beacon/internal/store"
	"github.com/gyaneshwarpardhi/beacon/internal/vitals"
)

// BackForwardCache is the navigation type recorded for pages restored from
// the history cache.
const BackForwardCache = "back-forward-cache"

// Settings holds the tracking rules shared by every forwarder. It is swapped
// atomically on config reload.
type Settings struct {
	p atomic.Pointer[config.Tracking]
}

// NewSettings wraps t.
func NewSettings(t config.Tracking) *Settings {
	s := &Settings{}
	s.Store(t)
	return s
}

// Load returns the current rules.
func (s *Settings) Load() config.Tracking { return *s.p.Load() }

// Store replaces the rules.
func (s *Settings) Store(t config.Tracking) { s.p.Store(&t) }

// Forwarder maps browser observations onto reporter commands for one client.
type Forwarder struct {
	rep      reporter.Reporter
	settings *Settings
	log      *slog.Logger
}

// New creates a Forwarder reporting through rep.
func New(rep reporter.Reporter, settings *Settings, logger *slog.Logger) *Forwarder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forwarder{rep: rep, settings: settings, log: logger}
}

// Attach registers the forwarder's subscriptions: the sign-in dimension on
// st and SendVitalMetric for all six metric kinds on src. Call once per client.
func (f *Forwarder) Attach(st *store.Store, src *vitals.Source) (detach func()) {
	unsubscribe := st.Subscribe(f.OnStateChange)
	for _, k := range vitals.Kinds {
		src.On(k, f.SendVitalMetric)
	}
	return unsubscribe
}

// SendEvent forwards rec as a generic event.
func (f *Forwarder) SendEvent(ctx context.Context, rec Record) error {
	return f.rep.SendEvent(ctx, reporter.Event{
		Category: rec.Category,
		Action:   rec.Action,
		Label:    rec.Label,
		Value:    rec.Value,
	})
}

// SendError reports err as an exception. With a context message the
// description reads "context (error)".
func (f *Forwarder) SendError(ctx context.Context, err error, contextMessage string, fatal bool) error {
	return f.rep.SendException(ctx, reporter.Exception{
		Description: describeError(err, contextMessage),
		Fatal:       fatal,
	})
}

func describeError(err error, contextMessage string) string {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	if contextMessage == "" {
		return msg
	}
	return contextMessage + " (" + msg + ")"
}

// SendVitalMetric reports m as a non-interactive event valued at its rounded
// delta, labelled with its id, carrying the debug target and navigation type.
func (f *Forwarder) SendVitalMetric(ctx context.Context, m vitals.Metric) error {
	t := f.settings.Load()
	value := float64(m.RoundedDelta())
	return f.rep.SendEvent(ctx, reporter.Event{
		Category:       t.VitalsCategory,
		Action:         string(m.Name),
		Label:          m.ID,
		Value:          &value,
		NonInteraction: true,
		Dimensions: map[string]string{
			t.Dimensions.Debug:          vitals.DebugTarget(m),
			t.Dimensions.NavigationType: m.NavigationType,
		},
	})
}

// HandleClick tracks a click on the nearest anchor or marked element on
// path. It reports false when nothing was sent.
func (f *Forwarder) HandleClick(ctx context.Context, path dom.Path) (bool, error) {
	t := f.settings.Load()
	el, ok := path.Closest(t.TrackableClass)
	if !ok {
		return false, nil
	}
	rec := ExtractRecord(el, t.DefaultAction)
	if !rec.Trackable() {
		return false, nil
	}
	return true, f.SendEvent(ctx, rec)
}

// HandlePageShow sends a pageview when the page was restored from the
// back/forward cache. Fresh loads are ignored.
func (f *Forwarder) HandlePageShow(ctx context.Context, persisted bool) (bool, error) {
	if !persisted {
		return false, nil
	}
	t := f.settings.Load()
	f.rep.SetDimension(t.Dimensions.NavigationType, BackForwardCache)
	return true, f.rep.SendPageview(ctx)
}

// OnStateChange sets the signed-in dimension to "1" or "0". It never sends a hit.
func (f *Forwarder) OnStateChange(st store.State) {
	v := "0"
	if st.IsSignedIn {
		v = "1"
	}
	f.rep.SetDimension(f.settings.Load().Dimensions.SignedIn, v)
	f.log.Debug("signed-in dimension set", "value", v)
}
