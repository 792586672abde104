package config

import (
	"fmt"
	"time"

	"github.com/justapithecus/stratum/cdx"
	"github.com/justapithecus/stratum/fetch"
)

// Engine names accepted in config and flags.
const (
	EngineHTTP     = "http"
	EngineRenderer = "renderer"
)

// Config represents a stratum.yaml configuration file.
// All values are optional and act as defaults for command flags.
// CLI flags always override config values.
type Config struct {
	Index       IndexConfig    `yaml:"index"`
	Engine      EngineConfig   `yaml:"engine"`
	Retry       RetryConfig    `yaml:"retry"`
	Download    DownloadConfig `yaml:"download"`
	Archive     ArchiveConfig  `yaml:"archive"`
	ProxiesFile string         `yaml:"proxies_file"`
}

// IndexConfig holds index service defaults from the config file.
type IndexConfig struct {
	Endpoint string   `yaml:"endpoint"`
	Token    string   `yaml:"token"`
	Timeout  Duration `yaml:"timeout"`
}

// EngineConfig selects and configures the fetch engine.
type EngineConfig struct {
	// Name is http or renderer. Empty defaults to http.
	Name string `yaml:"name"`
	// RendererPath is the renderer binary, required when Name is renderer.
	RendererPath string `yaml:"renderer_path"`
	// RendererArgs are extra arguments passed to the renderer binary.
	RendererArgs []string `yaml:"renderer_args"`
}

// RetryConfig holds backoff defaults from the config file.
// Zero values fall back to the standard policy.
type RetryConfig struct {
	Attempts   int      `yaml:"attempts"`
	Multiplier Duration `yaml:"multiplier"`
	MinWait    Duration `yaml:"min_wait"`
	MaxWait    Duration `yaml:"max_wait"`
}

// DownloadConfig holds download batch defaults from the config file.
type DownloadConfig struct {
	Concurrency int               `yaml:"concurrency"`
	Timeout     Duration          `yaml:"timeout"`
	UserAgent   string            `yaml:"user_agent"`
	Headers     map[string]string `yaml:"headers"`
}

// ArchiveConfig holds replay host defaults from the config file.
type ArchiveConfig struct {
	BaseURL string `yaml:"base_url"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Validate checks cross-field constraints the YAML schema cannot express.
func (c *Config) Validate() error {
	switch c.Engine.Name {
	case "", EngineHTTP:
	case EngineRenderer:
		if c.Engine.RendererPath == "" {
			return fmt.Errorf("engine.renderer_path is required when engine.name is %q", EngineRenderer)
		}
	default:
		return fmt.Errorf("unknown engine %q: must be %s or %s", c.Engine.Name, EngineHTTP, EngineRenderer)
	}
	if c.Retry.Attempts < 0 {
		return fmt.Errorf("retry.attempts must not be negative")
	}
	return nil
}

// IndexClientConfig converts index settings into the client's config.
func (c *Config) IndexClientConfig() cdx.Config {
	return cdx.Config{
		BaseURL:   c.Index.Endpoint,
		Timeout:   c.Index.Timeout.Duration,
		AuthToken: c.Index.Token,
	}
}

// Policy converts retry settings into a fetch policy, filling unset values
// from the standard policy.
func (c *Config) Policy() fetch.Policy {
	p := fetch.DefaultPolicy()
	if c.Retry.Attempts > 0 {
		p.Attempts = c.Retry.Attempts
	}
	if c.Retry.Multiplier.Duration > 0 {
		p.Multiplier = c.Retry.Multiplier.Duration
	}
	if c.Retry.MinWait.Duration > 0 {
		p.MinWait = c.Retry.MinWait.Duration
	}
	if c.Retry.MaxWait.Duration > 0 {
		p.MaxWait = c.Retry.MaxWait.Duration
	}
	return p
}
