package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleYAML = `
version: v1
engine:
  event_workers: 4
sessions:
  idle_ttl: 10m
tracking:
  trackable_class: track-me
reporters:
  - type: log
  - type: archive
    params:
      path: /tmp/beacon.db
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.Engine.EventWorkers != 4 {
		t.Errorf("event_workers = %d, want 4", cfg.Engine.EventWorkers)
	}
	if cfg.Engine.QueueDepth != DefaultQueueDepth {
		t.Errorf("queue_depth = %d, want default %d", cfg.Engine.QueueDepth, DefaultQueueDepth)
	}
	if cfg.Sessions.IdleTTL != 10*time.Minute {
		t.Errorf("idle_ttl = %v, want 10m", cfg.Sessions.IdleTTL)
	}
	if cfg.Tracking.TrackableClass != "track-me" {
		t.Errorf("trackable_class = %q, want track-me", cfg.Tracking.TrackableClass)
	}
	if cfg.Tracking.DefaultAction != "click" {
		t.Errorf("default_action = %q, want click", cfg.Tracking.DefaultAction)
	}
	if cfg.Tracking.Dimensions.SignedIn != "dimension1" {
		t.Errorf("signed_in dimension = %q, want dimension1", cfg.Tracking.Dimensions.SignedIn)
	}
	if len(cfg.Reporters) != 2 || cfg.Reporters[1].Params["path"] != "/tmp/beacon.db" {
		t.Errorf("unexpected reporters: %+v", cfg.Reporters)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{Version: "v1", Reporters: []ReporterDef{{Type: "log"}}}
		ApplyDefaults(cfg)
		return cfg
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing version", mutate: func(c *Config) { c.Version = "" }, wantErr: "version is required"},
		{name: "no reporters", mutate: func(c *Config) { c.Reporters = nil }, wantErr: "at least one reporter"},
		{name: "reporter without type", mutate: func(c *Config) { c.Reporters = []ReporterDef{{}} }, wantErr: "reporters[0]: type is required"},
		{name: "negative workers", mutate: func(c *Config) { c.Engine.EventWorkers = -1 }, wantErr: "event_workers"},
		{
			name:    "duplicate dimension",
			mutate:  func(c *Config) { c.Tracking.Dimensions.Debug = "dimension1" },
			wantErr: `duplicate dimension "dimension1"`,
		},
		{name: "class with space", mutate: func(c *Config) { c.Tracking.TrackableClass = "a b" }, wantErr: "single class name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := Validate(cfg)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoader_ReloadNotifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beacon.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	var got *Config
	l.OnChange(func(c *Config) { got = c })

	updated := strings.Replace(sampleYAML, "track-me", "tracked", 1)
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got == nil || got.Tracking.TrackableClass != "tracked" {
		t.Fatalf("callback config = %+v, want trackable_class tracked", got)
	}
	if l.Config().Tracking.TrackableClass != "tracked" {
		t.Errorf("Config() not updated")
	}
}

func TestLoader_ReloadKeepsLastGood(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beacon.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	notified := false
	l.OnChange(func(*Config) { notified = true })

	bad := strings.Replace(sampleYAML, "version: v1", "version: v2", 1)
	bad = strings.Replace(bad, "track-me", "two classes", 1)
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reload(); !errors.Is(err, ErrInvalidTracking) {
		t.Fatalf("Reload err = %v, want ErrInvalidTracking", err)
	}
	if notified {
		t.Error("OnChange called for a rejected config")
	}
	cur := l.Config()
	if cur.Version != "v1" || cur.Tracking.TrackableClass != "track-me" {
		t.Errorf("Config() = version %q class %q, want previous config", cur.Version, cur.Tracking.TrackableClass)
	}
}

func TestLoader_BadFile(t *testing.T) {
	if _, err := NewLoader(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("version: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewLoader(path); err == nil {
		t.Fatal("expected parse error")
	}
}
