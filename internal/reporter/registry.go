package reporter

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gyaneshwarpardhi/beacon/internal/config"
)

// Factory builds one kind of sink from its YAML params.
type Factory interface {
	// Type returns the string key this factory is registered under.
	Type() string
	// Validate checks params at config load time.
	Validate(params map[string]interface{}) error
	// New constructs the sink.
	New(params map[string]interface{}) (Sink, error)
}

// Registry maps reporter type strings to their factories.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry with every built-in sink registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(collectFactory{})
	r.Register(archiveFactory{})
	r.Register(logFactory{})
	r.Register(memoryFactory{})
	return r
}

// Register adds a factory. Panics on duplicate type to surface misconfiguration early.
func (r *Registry) Register(f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[f.Type()]; exists {
		panic(fmt.Sprintf("reporter registry: duplicate type %q", f.Type()))
	}
	r.factories[f.Type()] = f
}

// Get returns the factory for the given type.
func (r *Registry) Get(typ string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[typ]
	if !ok {
		return nil, fmt.Errorf("no factory registered for reporter type %q", typ)
	}
	return f, nil
}

// Types returns all registered reporter types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Validate checks every definition against its factory.
func (r *Registry) Validate(defs []config.ReporterDef) error {
	for i, d := range defs {
		f, err := r.Get(d.Type)
		if err != nil {
			return fmt.Errorf("reporters[%d]: %w", i, err)
		}
		if err := f.Validate(d.Params); err != nil {
			return fmt.Errorf("reporters[%d]: %w", i, err)
		}
	}
	return nil
}

// Build constructs the configured sinks, each instrumented, behind one Multi.
// Sinks already opened are closed if a later one fails.
func (r *Registry) Build(defs []config.ReporterDef) (*Multi, error) {
	if err := r.Validate(defs); err != nil {
		return nil, err
	}
	sinks := make([]Sink, 0, len(defs))
	for i, d := range defs {
		f, _ := r.Get(d.Type)
		s, err := f.New(d.Params)
		if err != nil {
			_ = NewMulti(sinks...).Close()
			return nil, fmt.Errorf("reporters[%d] %s: %w", i, d.Type, err)
		}
		sinks = append(sinks, counted{Sink: s})
	}
	return NewMulti(sinks...), nil
}

// -----------------------------------------------------------------------
// Built-in factories
// -----------------------------------------------------------------------

type collectFactory struct{}

func (collectFactory) Type() string { return "collect" }

func (collectFactory) Validate(params map[string]interface{}) error {
	if paramString(params, "tracking_id") == "" {
		return fmt.Errorf("collect: tracking_id is required")
	}
	if _, err := paramMillis(params, "timeout_ms"); err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	return nil
}

func (collectFactory) New(params map[string]interface{}) (Sink, error) {
	timeout, err := paramMillis(params, "timeout_ms")
	if err != nil {
		return nil, err
	}
	return NewCollect(CollectConfig{
		Endpoint:   paramString(params, "endpoint"),
		TrackingID: paramString(params, "tracking_id"),
		UserAgent:  paramString(params, "user_agent"),
		Timeout:    timeout,
	}), nil
}

type archiveFactory struct{}

func (archiveFactory) Type() string { return "archive" }

func (archiveFactory) Validate(params map[string]interface{}) error {
	if paramString(params, "path") == "" {
		return fmt.Errorf("archive: path is required")
	}
	return nil
}

func (archiveFactory) New(params map[string]interface{}) (Sink, error) {
	a, err := NewArchive(paramString(params, "path"))
	if err != nil {
		return nil, err
	}
	return a, nil
}

type logFactory struct{}

func (logFactory) Type() string { return "log" }

func (logFactory) Validate(params map[string]interface{}) error {
	_, err := paramLevel(params)
	return err
}

func (logFactory) New(params map[string]interface{}) (Sink, error) {
	lvl, err := paramLevel(params)
	if err != nil {
		return nil, err
	}
	return NewLogSink(nil, lvl), nil
}

type memoryFactory struct{}

func (memoryFactory) Type() string                             { return "memory" }
func (memoryFactory) Validate(map[string]interface{}) error    { return nil }
func (memoryFactory) New(map[string]interface{}) (Sink, error) { return NewMemory(), nil }

// -----------------------------------------------------------------------
// Param helpers
// -----------------------------------------------------------------------

func paramString(params map[string]interface{}, key string) string {
	s, _ := params[key].(string)
	return s
}

func paramMillis(params map[string]interface{}, key string) (time.Duration, error) {
	v, ok := params[key]
	if !ok {
		return 0, nil
	}
	switch n := v.(type) {
	case int:
		return time.Duration(n) * time.Millisecond, nil
	case int64:
		return time.Duration(n) * time.Millisecond, nil
	case float64:
		return time.Duration(n * float64(time.Millisecond)), nil
	}
	return 0, fmt.Errorf("%s must be a number, got %T", key, v)
}

func paramLevel(params map[string]interface{}) (slog.Level, error) {
	var lvl slog.Level
	s := paramString(params, "level")
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log: %w", err)
	}
	return lvl, nil
}
