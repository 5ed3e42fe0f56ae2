package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config holds launch-time application configuration. It is loaded once at
// startup and owned by the bootstrap App; nothing here is package state.
type Config struct {
	BackendBaseURL        string   `json:"backendBaseUrl" koanf:"backend_base_url"`
	PollIntervalMs        int      `json:"pollIntervalMs" koanf:"poll_interval_ms"`
	RequestTimeoutSeconds int      `json:"requestTimeoutSeconds" koanf:"request_timeout_seconds"`
	DataDir               string   `json:"dataDir" koanf:"data_dir"`
	LogLevel              string   `json:"logLevel" koanf:"log_level"`
	AllowedDevOrigins     []string `json:"allowedDevOrigins" koanf:"allowed_dev_origins"`
}

// Default returns baseline configuration for a first launch.
func Default() Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return Config{
		BackendBaseURL:        "http://127.0.0.1:8085",
		PollIntervalMs:        500,
		RequestTimeoutSeconds: 30,
		DataDir:               filepath.Join(homeDir, ".proxx"),
		LogLevel:              "info",
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".proxx", "config.yaml")
}

// Load reads configuration from the YAML file at path, overlaying defaults.
// A missing file is not an error; a malformed file or invalid values are.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load default config: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("stat config %s: %w", path, err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Save validates and writes configuration as YAML, atomically.
func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	data, err := k.Marshal(yaml.Parser())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("stage config write: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("set config mode: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// Validate rejects values the rest of the app cannot operate on.
func (c Config) Validate() error {
	if _, err := c.BaseURL(); err != nil {
		return err
	}
	if c.PollIntervalMs <= 0 {
		return fmt.Errorf("poll interval must be positive, got %d", c.PollIntervalMs)
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request timeout must be positive, got %d", c.RequestTimeoutSeconds)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data dir must not be empty")
	}
	return nil
}

// BaseURL parses the configured engine address.
func (c Config) BaseURL() (*url.URL, error) {
	parsed, err := url.Parse(c.BackendBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend base url %q: %w", c.BackendBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("backend base url %q must use http or https", c.BackendBaseURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("backend base url %q has no host", c.BackendBaseURL)
	}
	return parsed, nil
}

// PollInterval returns the preview poll cadence as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// RequestTimeout returns the per-request HTTP timeout as a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// PresetsPath returns the preset catalog location under the data dir.
func (c Config) PresetsPath() string {
	return filepath.Join(c.DataDir, "presets.json")
}
