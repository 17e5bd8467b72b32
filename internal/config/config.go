// Package config loads the streamnode runtime configuration from YAML with
// .env and environment-variable expansion.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	streamerrors "git.home.luguber.info/inful/streamnode/internal/errors"
)

// Config represents the application configuration
type Config struct {
	Task      TaskConfig      `yaml:"task"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Punctuate PunctuateConfig `yaml:"punctuate"`
	Source    SourceConfig    `yaml:"source"`
	Topology  []NodeConfig    `yaml:"topology"`
}

// TaskConfig identifies the execution unit sensor names are scoped to.
type TaskConfig struct {
	ID string `yaml:"id,omitempty"` // generated when empty
}

// MetricsConfig selects and configures the sensor registry backend.
type MetricsConfig struct {
	Backend string `yaml:"backend,omitempty"` // "memory" or "prometheus"
	Listen  string `yaml:"listen,omitempty"`  // prometheus scrape address
	Level   string `yaml:"level,omitempty"`   // "info" or "debug"
}

// PunctuateConfig schedules the time-driven callback.
type PunctuateConfig struct {
	Interval Duration `yaml:"interval,omitempty"` // zero disables punctuation
}

// SourceConfig selects where records come from.
type SourceConfig struct {
	Type string     `yaml:"type,omitempty"` // "none" or "nats"
	NATS NATSConfig `yaml:"nats,omitempty"`
}

// NATSConfig configures the NATS record source.
type NATSConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject"`
	Buffer  int    `yaml:"buffer,omitempty"`
}

// NodeConfig declares one structural node of the topology. Processors are
// attached in code; config-declared nodes are pass-through stages.
type NodeConfig struct {
	Name     string   `yaml:"name"`
	Stores   []string `yaml:"stores,omitempty"`
	Children []string `yaml:"children,omitempty"`
}

// Duration is a time.Duration unmarshaling from YAML strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// AsDuration returns the wrapped time.Duration.
func (d Duration) AsDuration() time.Duration { return time.Duration(d) }

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Note: .env file couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, streamerrors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Metrics.Backend == "" {
		c.Metrics.Backend = "memory"
	}
	if c.Metrics.Level == "" {
		c.Metrics.Level = "debug"
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = ":9400"
	}
	if c.Source.Type == "" {
		c.Source.Type = "none"
	}
	if c.Source.NATS.URL == "" {
		c.Source.NATS.URL = "nats://127.0.0.1:4222"
	}
	if c.Source.NATS.Buffer == 0 {
		c.Source.NATS.Buffer = 256
	}
}

// Validate checks field values and the declared topology for consistency.
func (c *Config) Validate() error {
	switch c.Metrics.Backend {
	case "memory", "prometheus":
	default:
		return streamerrors.ValidationFailed("metrics.backend", "must be memory or prometheus")
	}
	switch c.Metrics.Level {
	case "info", "debug":
	default:
		return streamerrors.ValidationFailed("metrics.level", "must be info or debug")
	}
	switch c.Source.Type {
	case "none", "nats":
	default:
		return streamerrors.ValidationFailed("source.type", "must be none or nats")
	}
	if c.Source.Type == "nats" && c.Source.NATS.Subject == "" {
		return streamerrors.ValidationFailed("source.nats.subject", "required when source.type is nats")
	}

	names := make(map[string]bool, len(c.Topology))
	for _, node := range c.Topology {
		if node.Name == "" {
			return streamerrors.ValidationFailed("topology.name", "node name must not be empty")
		}
		if names[node.Name] {
			return streamerrors.ValidationFailed("topology.name", "duplicate node "+node.Name)
		}
		names[node.Name] = true
	}
	for _, node := range c.Topology {
		for _, child := range node.Children {
			if !names[child] {
				return streamerrors.ValidationFailed("topology.children", "unknown child "+child+" of node "+node.Name)
			}
		}
	}
	return nil
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	return os.WriteFile(configPath, []byte(exampleConfig), 0o644)
}

const exampleConfig = `# streamnode configuration
task:
  id: ""            # generated when empty

metrics:
  backend: memory    # memory | prometheus
  listen: ":9400"    # prometheus scrape address
  level: debug       # info | debug

punctuate:
  interval: 30s      # omit or set to 0s to disable

source:
  type: none         # none | nats
  nats:
    url: nats://127.0.0.1:4222
    subject: records.in
    buffer: 256

topology:
  - name: ingest
    children: [enrich]
  - name: enrich
    stores: [lookup-table]
    children: [emit]
  - name: emit
`
