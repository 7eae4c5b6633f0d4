package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Toggle modes select how a completion flip is reconciled with the server.
const (
	// ToggleBlind flips the local item once the request completes,
	// whatever its outcome.
	ToggleBlind = "blind"
	// ToggleConfirmed flips only after a successful response.
	ToggleConfirmed = "confirmed"
	// ToggleRollback flips immediately and flips back if the request fails.
	ToggleRollback = "rollback"
)

// DefaultBaseURL is used when neither the config file nor the environment
// names an API endpoint.
const DefaultBaseURL = "http://localhost:8080"

// APIConfig holds the remote collection endpoint settings.
type APIConfig struct {
	// BaseURL is the root URL of the todo API (without the /api suffix).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single request. Zero disables the timeout.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// MaxRetries is the number of retries after an HTTP 429.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
}

// Timeout returns TimeoutSec as a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// SyncConfig holds list synchronization behavior.
type SyncConfig struct {
	ToggleMode string `mapstructure:"toggle_mode" yaml:"toggle_mode"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	ShowBody       bool `mapstructure:"show_body" yaml:"show_body"`
	ShowTimestamps bool `mapstructure:"show_timestamps" yaml:"show_timestamps"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Sync    SyncConfig    `mapstructure:"sync" yaml:"sync"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/todosync/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "todosync", "config.yaml")
}

// DefaultLogPath returns ~/.local/state/todosync/todosync.log.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "todosync.log")
	}
	return filepath.Join(home, ".local", "state", "todosync", "todosync.log")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.timeout_sec", 30)
	v.SetDefault("api.max_retries", 0)
	v.SetDefault("sync.toggle_mode", ToggleBlind)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", DefaultLogPath())
	v.SetDefault("display.show_body", true)
	v.SetDefault("display.show_timestamps", true)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A missing file is not an error; defaults apply. The API base URL can be
// overridden with TODOSYNC_API_BASE or TODO_API_BASE.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.BindEnv("api.base_url", "TODOSYNC_API_BASE", "TODO_API_BASE"); err != nil {
		return nil, fmt.Errorf("binding env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values that viper cannot constrain.
func (c *AppConfig) Validate() error {
	switch c.Sync.ToggleMode {
	case ToggleBlind, ToggleConfirmed, ToggleRollback:
	default:
		return fmt.Errorf(
			"sync.toggle_mode %q: want %s, %s or %s",
			c.Sync.ToggleMode, ToggleBlind, ToggleConfirmed, ToggleRollback,
		)
	}
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is empty")
	}
	if c.API.TimeoutSec < 0 {
		return fmt.Errorf("api.timeout_sec %d is negative", c.API.TimeoutSec)
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries %d is negative", c.API.MaxRetries)
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", map[string]any{
		"base_url":    cfg.API.BaseURL,
		"timeout_sec": cfg.API.TimeoutSec,
		"max_retries": cfg.API.MaxRetries,
	})
	v.Set("sync", map[string]any{
		"toggle_mode": cfg.Sync.ToggleMode,
	})
	v.Set("log", map[string]any{
		"level": cfg.Log.Level,
		"file":  cfg.Log.File,
	})
	v.Set("display", map[string]any{
		"show_body":       cfg.Display.ShowBody,
		"show_timestamps": cfg.Display.ShowTimestamps,
	})

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
