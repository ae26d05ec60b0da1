// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Stream       StreamConfig       `yaml:"stream"`
	Playback     PlaybackConfig     `yaml:"playback"`
	Engine       EngineConfig       `yaml:"engine"`
	Notification NotificationConfig `yaml:"notification"`
	Storage      StorageConfig      `yaml:"storage"`
}

// ServerConfig represents the control API server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr" default:"127.0.0.1:8090"`
}

// StreamConfig represents the radio stream endpoint.
type StreamConfig struct {
	URL  string `yaml:"url" validate:"required,url"`
	Name string `yaml:"name" default:"Radio"`
}

// PlaybackConfig represents connection and retry behavior.
type PlaybackConfig struct {
	MaxRetries       int     `yaml:"max_retries" default:"5" validate:"gte=1,lte=20"`
	RetryBaseDelayMs int     `yaml:"retry_base_delay_ms" default:"2000" validate:"gte=100,lte=60000"`
	DefaultVolume    float64 `yaml:"default_volume" default:"0.7" validate:"gte=0,lte=1"`
}

// EngineConfig represents the audio engine configuration.
// Settings are engine-specific and decoded by the engine factory.
type EngineConfig struct {
	Type     string         `yaml:"type" default:"beep"`
	Settings map[string]any `yaml:"settings"`
}

// NotificationConfig represents desktop notification behavior.
// Disabled is inverted so the zero value keeps notifications on.
type NotificationConfig struct {
	Disabled bool   `yaml:"disabled"`
	AppName  string `yaml:"app_name" default:"radiobox"`
	Title    string `yaml:"title" default:"Radio playing"`
	Body     string `yaml:"body" default:"Streaming continues in the background"`
}

// StorageConfig represents preference storage.
// An empty path means the XDG data directory is used.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("RADIOBOX_STREAM_URL"); v != "" {
		c.Stream.URL = v
	}
	if v := os.Getenv("RADIOBOX_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("RADIOBOX_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}
