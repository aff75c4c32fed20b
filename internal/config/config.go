// Package config loads logpulse settings from a YAML file and LOGPULSE_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/vltamanec/logpulse/internal/format"
)

// EnvPrefix prefixes every environment override, e.g. LOGPULSE_BUFFER_SIZE
const EnvPrefix = "LOGPULSE"

// Config holds application configuration
type Config struct {
	Format       string        `mapstructure:"format"`
	BufferSize   int           `mapstructure:"buffer_size"`
	BatchSize    int           `mapstructure:"batch_size"`
	PendingLimit int           `mapstructure:"pending_limit"`
	HistoryChunk int           `mapstructure:"history_chunk"`
	TailLines    int           `mapstructure:"tail_lines"`
	SampleSize   int           `mapstructure:"sample_size"`
	EPSWindow    int           `mapstructure:"eps_window"`
	StatusTTL    time.Duration `mapstructure:"status_ttl"`
	TickInterval time.Duration `mapstructure:"tick_interval"`

	Reconnect ReconnectConfig `mapstructure:"reconnect"`

	LogFile    string   `mapstructure:"log_file"`
	Highlights []string `mapstructure:"highlights"`
}

// ReconnectConfig controls how container sources retry after they stop
type ReconnectConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	MaxWait  time.Duration `mapstructure:"max_wait"`
}

// Meta describes where a configuration came from
type Meta struct {
	// Path is the config file that was read, empty when only defaults and
	// environment applied
	Path string
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Format:       "auto",
		BufferSize:   10000,
		BatchSize:    5000,
		PendingLimit: 1_000_000,
		HistoryChunk: 500,
		TailLines:    1000,
		SampleSize:   20,
		EPSWindow:    60,
		StatusTTL:    3 * time.Second,
		TickInterval: 100 * time.Millisecond,
		Reconnect: ReconnectConfig{
			Interval: 2 * time.Second,
			MaxWait:  5 * time.Minute,
		},
	}
}

// Load loads configuration from the first config file found and the
// environment.
func Load() (*Config, error) {
	cfg, _, err := LoadWithMeta("")
	return cfg, err
}

// LoadWithMeta loads configuration and reports the file it came from.
// An explicit path must exist; otherwise the standard locations are
// searched, highest precedence first:
//  1. ./.logpulse.yaml or ./.logpulse.yml
//  2. ~/.logpulse.yaml or ~/.logpulse.yml
//  3. $XDG_CONFIG_HOME/logpulse/config.yaml (or ~/.config/logpulse/config.yaml)
//  4. /etc/logpulse/config.yaml
func LoadWithMeta(path string) (*Config, Meta, error) {
	if path == "" {
		path = findConfigFile()
	}

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, Meta{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, Meta{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		if path != "" {
			return nil, Meta{}, fmt.Errorf("%s: %w", path, err)
		}
		return nil, Meta{}, err
	}
	return cfg, Meta{Path: path}, nil
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	cfg, _, err := LoadWithMeta(path)
	return cfg, err
}

// newViper registers every key with its default so that environment
// variables are picked up by Unmarshal.
func newViper() *viper.Viper {
	d := Default()
	v := viper.New()
	v.SetDefault("format", d.Format)
	v.SetDefault("buffer_size", d.BufferSize)
	v.SetDefault("batch_size", d.BatchSize)
	v.SetDefault("pending_limit", d.PendingLimit)
	v.SetDefault("history_chunk", d.HistoryChunk)
	v.SetDefault("tail_lines", d.TailLines)
	v.SetDefault("sample_size", d.SampleSize)
	v.SetDefault("eps_window", d.EPSWindow)
	v.SetDefault("status_ttl", d.StatusTTL)
	v.SetDefault("tick_interval", d.TickInterval)
	v.SetDefault("reconnect.interval", d.Reconnect.Interval)
	v.SetDefault("reconnect.max_wait", d.Reconnect.MaxWait)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("highlights", []string{})

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Validate rejects values the pipeline cannot run with
func (c *Config) Validate() error {
	if _, _, err := format.ParseID(c.Format); err != nil {
		return fmt.Errorf("format: %w", err)
	}
	positive := []struct {
		key string
		val int
	}{
		{"buffer_size", c.BufferSize},
		{"batch_size", c.BatchSize},
		{"pending_limit", c.PendingLimit},
		{"history_chunk", c.HistoryChunk},
		{"sample_size", c.SampleSize},
		{"eps_window", c.EPSWindow},
	}
	for _, p := range positive {
		if p.val <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.key, p.val)
		}
	}
	if c.TailLines < 0 {
		return fmt.Errorf("tail_lines must not be negative, got %d", c.TailLines)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.StatusTTL <= 0 {
		return fmt.Errorf("status_ttl must be positive, got %s", c.StatusTTL)
	}
	if c.Reconnect.Interval <= 0 {
		return fmt.Errorf("reconnect.interval must be positive, got %s", c.Reconnect.Interval)
	}
	return nil
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	names := []string{".logpulse.yaml", ".logpulse.yml"}

	var searchPaths []string
	if cwd, err := os.Getwd(); err == nil {
		searchPaths = append(searchPaths, cwd)
	}
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, home)
	}

	for _, dir := range searchPaths {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	dirs := []string{"/etc/logpulse"}
	if configDir, err := os.UserConfigDir(); err == nil {
		dirs = append([]string{filepath.Join(configDir, "logpulse")}, dirs...)
	}
	for _, dir := range dirs {
		path := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigFile returns the path to the config file that would be loaded
func ConfigFile() string {
	return findConfigFile()
}
