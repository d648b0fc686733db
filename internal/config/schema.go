package config

import "time"

// Config is the top-level YAML structure.
type Config struct {
	Version   string        `yaml:"version"`
	Engine    EngineConf    `yaml:"engine"`
	Sessions  SessionConf   `yaml:"sessions"`
	Tracking  Tracking      `yaml:"tracking"`
	Reporters []ReporterDef `yaml:"reporters"`
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	EventWorkers   int `yaml:"event_workers"`
	QueueDepth     int `yaml:"queue_depth"` // per worker
	EventTimeoutMs int `yaml:"event_timeout_ms"`
}

// SessionConf bounds the per-client session cache.
type SessionConf struct {
	Max     int           `yaml:"max"`
	IdleTTL time.Duration `yaml:"idle_ttl"`
}

// Tracking holds the mapping rules. It is the only hot-swappable section.
type Tracking struct {
	DefaultAction  string     `yaml:"default_action" json:"default_action"`
	TrackableClass string     `yaml:"trackable_class" json:"trackable_class"`
	VitalsCategory string     `yaml:"vitals_category" json:"vitals_category"`
	Dimensions     Dimensions `yaml:"dimensions" json:"dimensions"`
}

// Dimensions names the custom dimension slots the forwarder writes to.
type Dimensions struct {
	SignedIn       string `yaml:"signed_in" json:"signed_in"`
	NavigationType string `yaml:"navigation_type" json:"navigation_type"`
	Debug          string `yaml:"debug" json:"debug"`
}

// ReporterDef selects a sink by type and passes it free-form params.
type ReporterDef struct {
	Type   string                 `yaml:"type"`
	Params map[string]interface{} `yaml:"params"`
}
