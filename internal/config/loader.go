package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Defaults applied when a field is left empty.
const (
	DefaultEventWorkers   = 8
	DefaultQueueDepth     = 1000
	DefaultEventTimeoutMs = 5000
	DefaultMaxSessions    = 50000
	DefaultIdleTTL        = 30 * time.Minute
	DefaultAction         = "click"
	DefaultTrackableClass = "js-track"
	DefaultVitalsCategory = "Web Vitals"
)

// ErrInvalidTracking marks a reloaded file whose tracking rules fail
// validation. The previous config stays current.
var ErrInvalidTracking = errors.New("invalid tracking config")

// Loader reads a YAML config file and watches it for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)
	watcher  *fsnotify.Watcher
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Config returns the current (latest) configuration.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file changes.
// Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}
	l.watcher = w

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						slog.Warn("config reload failed, keeping previous", "path", l.path, "err", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the config file. The new config
// replaces the current one only if its tracking rules validate.
func (l *Loader) Reload() (*Config, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	if err := ValidateTracking(&cfg.Tracking); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTracking, err)
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*Config), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

func (l *Loader) load() (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", l.path, err)
	}
	return cfg, nil
}

// Parse decodes YAML and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// ApplyDefaults fills every zero field that has a default.
func ApplyDefaults(cfg *Config) {
	if cfg.Engine.EventWorkers == 0 {
		cfg.Engine.EventWorkers = DefaultEventWorkers
	}
	if cfg.Engine.QueueDepth == 0 {
		cfg.Engine.QueueDepth = DefaultQueueDepth
	}
	if cfg.Engine.EventTimeoutMs == 0 {
		cfg.Engine.EventTimeoutMs = DefaultEventTimeoutMs
	}
	if cfg.Sessions.Max == 0 {
		cfg.Sessions.Max = DefaultMaxSessions
	}
	if cfg.Sessions.IdleTTL == 0 {
		cfg.Sessions.IdleTTL = DefaultIdleTTL
	}
	t := &cfg.Tracking
	if t.DefaultAction == "" {
		t.DefaultAction = DefaultAction
	}
	if t.TrackableClass == "" {
		t.TrackableClass = DefaultTrackableClass
	}
	if t.VitalsCategory == "" {
		t.VitalsCategory = DefaultVitalsCategory
	}
	if t.Dimensions.SignedIn == "" {
		t.Dimensions.SignedIn = "dimension1"
	}
	if t.Dimensions.NavigationType == "" {
		t.Dimensions.NavigationType = "dimension2"
	}
	if t.Dimensions.Debug == "" {
		t.Dimensions.Debug = "dimension3"
	}
}
