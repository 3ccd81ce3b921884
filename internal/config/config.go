// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: CLI flags > environment variables > config file > embedded > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Guliveer/infoboard/agent/internal/errors"
)

// DefaultDeviceName is the Bluetooth name the InfoBoard firmware advertises.
const DefaultDeviceName = "ESP32-InfoBoard"

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "2s", "500ms", "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all agent configuration. It is read-only once loaded.
type Config struct {
	Device     DeviceConfig     `yaml:"device"`
	Link       LinkConfig       `yaml:"link"`
	Collection CollectionConfig `yaml:"collection"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DeviceConfig identifies the display board and how to reach it.
type DeviceConfig struct {
	// Name is matched against port descriptors during discovery.
	Name string `yaml:"name"`
	// Port pins discovery to a single port (e.g. "COM7", "/dev/rfcomm0").
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
	// FallbackPorts replaces the platform's conventional fallback range.
	FallbackPorts []string `yaml:"fallback_ports,omitempty"`
}

// LinkConfig holds transport timeouts and the reconnect policy.
type LinkConfig struct {
	OpenTimeout       Duration `yaml:"open_timeout"`
	WriteTimeout      Duration `yaml:"write_timeout"`
	ProbeTimeout      Duration `yaml:"probe_timeout"`
	ReconnectInterval Duration `yaml:"reconnect_interval"`
	// IdleTimeout drops a connection that has not carried a frame for this long,
	// e.g. after the host resumed from sleep.
	IdleTimeout Duration `yaml:"idle_timeout"`
}

// CollectionConfig holds sampling settings.
type CollectionConfig struct {
	Interval      Duration `yaml:"interval"`
	CPUWindow     Duration `yaml:"cpu_window"`
	SourceTimeout Duration `yaml:"source_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Name:     DefaultDeviceName,
			BaudRate: 115200,
		},
		Link: LinkConfig{
			OpenTimeout:       Duration{2 * time.Second},
			WriteTimeout:      Duration{2 * time.Second},
			ProbeTimeout:      Duration{1 * time.Second},
			ReconnectInterval: Duration{5 * time.Second},
			IdleTimeout:       Duration{30 * time.Second},
		},
		Collection: CollectionConfig{
			Interval:      Duration{2 * time.Second},
			CPUWindow:     Duration{1 * time.Second},
			SourceTimeout: Duration{3 * time.Second},
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "./infoboard-agent.log",
		},
	}
}

// CLIOverrides holds values from command-line flags.
// Zero values are treated as "not set" and skipped.
type CLIOverrides struct {
	Port       string
	DeviceName string
	BaudRate   int
	LogLevel   string
	LogFile    *string
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars > external YAML file > embedded bytes > defaults.
//
// An optional configPath argument controls external-file discovery:
//   - omitted        → auto-discover via Locate()
//   - explicit value  → use that path ("" means no external file)
func LoadLayered(cli CLIOverrides, embedded []byte, configPath ...string) (*Config, error) {
	cfg := DefaultConfig()

	if len(embedded) > 0 {
		if err := yaml.Unmarshal(embedded, cfg); err != nil {
			return nil, errors.Wrapf(errors.ErrReadConfig, err, "parsing embedded config")
		}
	}

	var filePath string
	if len(configPath) > 0 {
		filePath = configPath[0]
	} else {
		filePath = Locate()
	}
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrapf(errors.ErrReadConfig, err, "parsing config file %s", filePath)
			}
		case !os.IsNotExist(err):
			return nil, errors.Wrapf(errors.ErrReadConfig, err, "reading config file %s", filePath)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if cli.Port != "" {
		cfg.Device.Port = cli.Port
	}
	if cli.DeviceName != "" {
		cfg.Device.Name = cli.DeviceName
	}
	if cli.BaudRate != 0 {
		cfg.Device.BaudRate = cli.BaudRate
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.LogFile != nil {
		cfg.Logging.File = *cli.LogFile
	}

	return cfg, nil
}

// WriteConfig serializes the config to a YAML file at the given path.
// Creates parent directories if needed.
func WriteConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0640)
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) error {
	if port := os.Getenv("INFOBOARD_PORT"); port != "" {
		cfg.Device.Port = port
	}
	if name := os.Getenv("INFOBOARD_DEVICE_NAME"); name != "" {
		cfg.Device.Name = name
	}
	if baud := os.Getenv("INFOBOARD_BAUD_RATE"); baud != "" {
		v, err := strconv.Atoi(baud)
		if err != nil {
			return errors.Wrapf(errors.ErrInvalidConfig, err, "INFOBOARD_BAUD_RATE=%q", baud)
		}
		cfg.Device.BaudRate = v
	}
	if level := os.Getenv("INFOBOARD_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	return nil
}

// Validate checks that the configuration can drive the link loop.
func (c *Config) Validate() error {
	if c.Device.BaudRate <= 0 {
		return invalid("device.baud_rate must be positive (got %d)", c.Device.BaudRate)
	}
	durations := []struct {
		name string
		d    Duration
	}{
		{"link.open_timeout", c.Link.OpenTimeout},
		{"link.write_timeout", c.Link.WriteTimeout},
		{"link.probe_timeout", c.Link.ProbeTimeout},
		{"link.reconnect_interval", c.Link.ReconnectInterval},
		{"link.idle_timeout", c.Link.IdleTimeout},
		{"collection.interval", c.Collection.Interval},
		{"collection.source_timeout", c.Collection.SourceTimeout},
	}
	for _, d := range durations {
		if d.d.Duration <= 0 {
			return invalid("%s must be positive (got %s)", d.name, d.d.Duration)
		}
	}
	if c.Collection.CPUWindow.Duration < 0 {
		return invalid("collection.cpu_window must not be negative")
	}
	if c.Collection.CPUWindow.Duration >= c.Collection.SourceTimeout.Duration {
		return invalid("collection.cpu_window (%s) must be shorter than collection.source_timeout (%s)",
			c.Collection.CPUWindow.Duration, c.Collection.SourceTimeout.Duration)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("unknown logging.level %q", c.Logging.Level)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrInvalidConfig).WithMessage(fmt.Sprintf(format, args...))
}
