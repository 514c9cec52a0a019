// Package config loads rolodex settings from rolodex.toml, ROLO_* environment
// variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// FileName is the config file base name (without extension).
	FileName = "rolodex"

	// EnvPrefix is prepended to every environment override, e.g.
	// ROLO_DATABASE_PATH for database.path.
	EnvPrefix = "ROLO"

	// DirName is the per-user state directory under $HOME.
	DirName = ".rolodex"
)

// Config represents the application configuration.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Source    SourceConfig    `mapstructure:"source"`
	Tagging   TaggingConfig   `mapstructure:"tagging"`
	Log       LogConfig       `mapstructure:"log"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Watch     WatchConfig     `mapstructure:"watch"`

	// File is the config file that was read, or the path a new one would be
	// written to when none exists.
	File string `mapstructure:"-"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type SourceConfig struct {
	Path     string `mapstructure:"path"`
	PageSize int    `mapstructure:"page_size"`
	Consent  bool   `mapstructure:"consent"`
}

type TaggingConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	MaxTokens int64         `mapstructure:"max_tokens"`
	BatchSize int           `mapstructure:"batch_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
	// EnvFile is the dotenv file consulted for the API key.
	EnvFile string `mapstructure:"env_file"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type DashboardConfig struct {
	Port int `mapstructure:"port"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// Dir returns the per-user state directory ($HOME/.rolodex).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DirName
	}
	return filepath.Join(home, DirName)
}

// DefaultFile returns the path of the per-user config file.
func DefaultFile() string {
	return filepath.Join(Dir(), FileName+".toml")
}

// Defaults returns the default settings grouped by section. Durations are
// given as strings so the map can be written to TOML as-is.
func Defaults() map[string]map[string]any {
	dir := Dir()
	return map[string]map[string]any{
		"database": {
			"path": filepath.Join(dir, "rolodex.db"),
		},
		"source": {
			"path":      filepath.Join(dir, "contacts.json"),
			"page_size": 200,
			"consent":   false,
		},
		"tagging": {
			"base_url":   "https://api.anthropic.com",
			"model":      "claude-sonnet-4-5",
			"max_tokens": 4096,
			"batch_size": 35,
			"timeout":    "60s",
			"env_file":   ".env",
		},
		"log": {
			"file":         "",
			"max_size_mb":  10,
			"max_backups":  3,
			"max_age_days": 28,
		},
		"dashboard": {
			"port": 8080,
		},
		"watch": {
			"debounce": "500ms",
		},
	}
}

// New returns a viper instance with defaults, search paths and environment
// bindings applied. configFile, when non-empty, replaces the search paths.
func New(configFile string) *viper.Viper {
	v := viper.New()

	for section, values := range Defaults() {
		for key, value := range values {
			v.SetDefault(section+"."+key, value)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath(Dir())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration. A missing config file is not an error.
func Load(configFile string) (*Config, error) {
	v := New(configFile)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
		case configFile != "" && errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.File = v.ConfigFileUsed()
	if cfg.File == "" {
		cfg.File = configFile
	}
	if cfg.File == "" {
		cfg.File = DefaultFile()
	}

	cfg.Database.Path = expandHome(cfg.Database.Path)
	cfg.Source.Path = expandHome(cfg.Source.Path)
	cfg.Log.File = expandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail later in confusing ways.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Source.Path == "" {
		return fmt.Errorf("source.path must not be empty")
	}
	if c.Source.PageSize <= 0 {
		return fmt.Errorf("source.page_size must be positive, got %d", c.Source.PageSize)
	}
	if c.Tagging.BatchSize <= 0 {
		return fmt.Errorf("tagging.batch_size must be positive, got %d", c.Tagging.BatchSize)
	}
	if c.Dashboard.Port <= 0 || c.Dashboard.Port > 65535 {
		return fmt.Errorf("dashboard.port out of range: %d", c.Dashboard.Port)
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
