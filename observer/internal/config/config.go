package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultRetryInterval   = 3 * time.Second
	DefaultSummaryInterval = 30 * time.Second
)

// Config holds the observer-side configuration parsed from the `observer:`
// section of config.yaml. A `server:` key in the same file is ignored.
type Config struct {
	Observer ObserverConfig `yaml:"observer"`
}

// ObserverConfig holds all observer-side settings.
type ObserverConfig struct {
	// StreamURL is the server's fan-out endpoint, e.g.
	// "ws://localhost:8080/ws/stream".
	StreamURL string `yaml:"stream_url"`

	// RetryInterval is the fixed delay between reconnect attempts after the
	// stream drops. There is no backoff growth and no retry cap — the
	// observer keeps trying until shut down. Default: 3s.
	RetryInterval time.Duration `yaml:"retry_interval"`

	// Live enables the demo-data simulator that keeps the dashboard moving
	// when no real traffic arrives. Real events are folded in regardless.
	// Default: true. Hot-reloadable.
	Live *bool `yaml:"live"`

	// SummaryInterval is how often the observer logs a dashboard summary.
	// Default: 30s.
	SummaryInterval time.Duration `yaml:"summary_interval"`
}

// LiveEnabled resolves the Live flag, defaulting to true when unset.
func (o ObserverConfig) LiveEnabled() bool {
	return o.Live == nil || *o.Live
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("observer config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("observer config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("observer config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Observer: ObserverConfig{
			RetryInterval:   DefaultRetryInterval,
			SummaryInterval: DefaultSummaryInterval,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Observer.StreamURL == "" {
		return fmt.Errorf("observer.stream_url is required")
	}
	u, err := url.Parse(cfg.Observer.StreamURL)
	if err != nil {
		return fmt.Errorf("observer.stream_url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return fmt.Errorf("observer.stream_url scheme %q unknown: want ws|wss", u.Scheme)
	}
	if cfg.Observer.RetryInterval <= 0 {
		return fmt.Errorf("observer.retry_interval must be positive")
	}
	if cfg.Observer.SummaryInterval <= 0 {
		return fmt.Errorf("observer.summary_interval must be positive")
	}
	return nil
}
