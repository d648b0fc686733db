package config

import (
	"fmt"
	"strings"
)

// Validate checks the config for:
//   - Required fields
//   - Non-negative engine and session bounds
//   - Distinct dimension slots (two roles writing one slot would clobber each other)
//   - A type on every reporter entry
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	if cfg.Engine.EventWorkers < 0 {
		errs = append(errs, "engine.event_workers must not be negative")
	}
	if cfg.Engine.QueueDepth < 0 {
		errs = append(errs, "engine.queue_depth must not be negative")
	}
	if cfg.Engine.EventTimeoutMs < 0 {
		errs = append(errs, "engine.event_timeout_ms must not be negative")
	}
	if cfg.Sessions.Max < 0 {
		errs = append(errs, "sessions.max must not be negative")
	}
	if cfg.Sessions.IdleTTL < 0 {
		errs = append(errs, "sessions.idle_ttl must not be negative")
	}

	validateTracking(&cfg.Tracking, &errs)

	if len(cfg.Reporters) == 0 {
		errs = append(errs, "reporters: at least one reporter is required")
	}
	for i, r := range cfg.Reporters {
		if r.Type == "" {
			errs = append(errs, fmt.Sprintf("reporters[%d]: type is required", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ValidateTracking checks only the hot-swappable section.
func ValidateTracking(t *Tracking) error {
	var errs []string
	validateTracking(t, &errs)
	if len(errs) > 0 {
		return fmt.Errorf("tracking validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateTracking(t *Tracking, errs *[]string) {
	if t.DefaultAction == "" {
		*errs = append(*errs, "tracking.default_action is required")
	}
	if strings.ContainsAny(t.TrackableClass, " \t\n") {
		*errs = append(*errs, fmt.Sprintf("tracking.trackable_class %q must be a single class name", t.TrackableClass))
	}
	slots := map[string]string{} // slot → role
	for _, d := range []struct{ role, slot string }{
		{"signed_in", t.Dimensions.SignedIn},
		{"navigation_type", t.Dimensions.NavigationType},
		{"debug", t.Dimensions.Debug},
	} {
		if d.slot == "" {
			*errs = append(*errs, fmt.Sprintf("tracking.dimensions.%s is required", d.role))
			continue
		}
		if prev, ok := slots[d.slot]; ok {
			*errs = append(*errs, fmt.Sprintf("duplicate dimension %q (used by %s and %s)", d.slot, prev, d.role))
			continue
		}
		slots[d.slot] = d.role
	}
}
