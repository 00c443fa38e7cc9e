package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conduitplatform/conduit-cli/internal/core/catalog"
	"github.com/conduitplatform/conduit-cli/internal/core/deployment"
	"github.com/conduitplatform/conduit-cli/internal/core/ports"
	"github.com/conduitplatform/conduit-cli/internal/shell/demo"
	"github.com/conduitplatform/conduit-cli/internal/shell/store"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all CLI configuration.
type Config struct {
	ConfigDir string        `mapstructure:"config_dir"`
	Log       LogConfig     `mapstructure:"log"`
	Docker    DockerConfig  `mapstructure:"docker"`
	GitHub    GitHubConfig  `mapstructure:"github"`
	Demo      DemoConfig    `mapstructure:"demo"`
	Admin     AdminConfig   `mapstructure:"admin"`
	History   HistoryConfig `mapstructure:"history"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DockerConfig holds Docker client configuration.
type DockerConfig struct {
	Host            string `mapstructure:"host"`
	PullConcurrency int    `mapstructure:"pull_concurrency"`
}

// GitHubConfig holds release index configuration.
type GitHubConfig struct {
	Token   string        `mapstructure:"token"`
	BaseURL string        `mapstructure:"base_url"` // empty means api.github.com
	Timeout time.Duration `mapstructure:"timeout"`
}

// DemoConfig holds demo deployment settings.
type DemoConfig struct {
	Network   string `mapstructure:"network"`
	PortRange int    `mapstructure:"port_range"` // ports tried per preferred port
}

// AdminConfig holds admin API settings.
type AdminConfig struct {
	// URL of the admin API. Empty means the Core HTTP port of the stored demo.
	URL       string        `mapstructure:"url"`
	MasterKey string        `mapstructure:"master_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// HistoryConfig holds setup history settings.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// DSN of the sqlite database. Empty means history.db in the config dir.
	DSN string `mapstructure:"dsn"`
}

// SynthesizerConfig returns the synthesis settings.
func (c *Config) SynthesizerConfig() demo.SynthesizerConfig {
	return demo.SynthesizerConfig{
		NetworkName:     c.Demo.Network,
		PortRangeSize:   c.Demo.PortRange,
		PullConcurrency: c.Docker.PullConcurrency,
	}
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("config_dir", defaultConfigDir())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("docker.host", "")
	v.SetDefault("docker.pull_concurrency", demo.DefaultPullConcurrency)
	v.SetDefault("github.token", "")
	v.SetDefault("github.base_url", "")
	v.SetDefault("github.timeout", "30s")
	v.SetDefault("demo.network", deployment.NetworkName)
	v.SetDefault("demo.port_range", ports.DefaultRangeSize)
	v.SetDefault("admin.url", "")
	v.SetDefault("admin.master_key", catalog.DefaultMasterKey)
	v.SetDefault("admin.timeout", "10s")
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.dsn", "")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("CONDUIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.History.DSN == "" {
		cfg.History.DSN = filepath.Join(cfg.ConfigDir, store.HistoryFileName)
	}
	if cfg.Demo.PortRange < 1 {
		return nil, fmt.Errorf("demo.port_range must be positive, got %d", cfg.Demo.PortRange)
	}
	if cfg.Docker.PullConcurrency < 1 {
		return nil, fmt.Errorf("docker.pull_concurrency must be positive, got %d", cfg.Docker.PullConcurrency)
	}

	return &cfg, nil
}

// defaultConfigDir is the per-user config directory of the CLI.
func defaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".conduit"
	}
	return filepath.Join(dir, "conduit")
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
// Logs go to w (stderr in main) so command output on stdout stays clean.
func SetupLogger(cfg *Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
