// Package config handles CLI configuration loading and change watching.
package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration.
type Config struct {
	DefaultModel string        `yaml:"default_model"`
	BaseURL      string        `yaml:"base_url,omitempty"`
	LogLevel     string        `yaml:"log_level,omitempty"`
	LogFormat    string        `yaml:"log_format,omitempty"`
	History      HistoryConfig `yaml:"history"`
}

// HistoryConfig controls the session log.
type HistoryConfig struct {
	Path          string `yaml:"path,omitempty"`
	RetentionDays int    `yaml:"retention_days,omitempty"`
	PruneSchedule string `yaml:"prune_schedule,omitempty"`
	Disabled      bool   `yaml:"disabled,omitempty"`
}

// DefaultConfigPath returns the default configuration file path for the current platform.
// - macOS/Linux: ~/.scribe/config.yaml
// - Windows: %USERPROFILE%\.scribe\config.yaml
func DefaultConfigPath() string {
	return filepath.Join(homeDir(), ".scribe", "config.yaml")
}

// DefaultHistoryPath returns the default session database path.
func DefaultHistoryPath() string {
	return filepath.Join(homeDir(), ".scribe", "history.db")
}

func homeDir() string {
	var home string
	if runtime.GOOS == "windows" {
		home = os.Getenv("USERPROFILE")
	} else {
		home = os.Getenv("HOME")
	}
	if home == "" {
		// Fallback to current directory
		return "."
	}
	return home
}

// Load reads configuration from the specified path.
// If the file doesn't exist, returns an empty config without error.
// Returns an error only if the file exists but cannot be read or parsed.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing config file is not an error
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// HistoryPath returns the configured database path or the default.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return DefaultHistoryPath()
}

// Level maps the configured log level to slog. Unknown or empty values
// mean Info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a logger honoring log_level and log_format ("text" or
// "json"). Output goes to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(c.handler(w, c.Level()))
}

// NewLoggerWithLevel builds a logger honoring log_format whose level is
// controlled by level, for callers that adjust verbosity at runtime.
func (c *Config) NewLoggerWithLevel(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(c.handler(w, level))
}

func (c *Config) handler(w io.Writer, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(c.LogFormat) == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
