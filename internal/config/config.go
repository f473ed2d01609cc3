package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/idilsaglam/cards/internal/store/kv"
)

const FileName = "config.yaml"

// Config is the optional ~/.cards/config.yaml. Every field has a default.
type Config struct {
	// DataDir holds the key-value files (roster, feed url) and the log.
	DataDir string `yaml:"data_dir"`

	// ShareBaseURL prefixes public single-card links.
	ShareBaseURL string `yaml:"share_base_url"`

	// Theme: classic, neon or mono.
	Theme string `yaml:"theme"`

	// FetchTimeout bounds feed requests. Zero waits indefinitely.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	// LogLevel: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

func Default() *Config {
	dir, err := kv.DefaultDir()
	if err != nil {
		dir = ".cards"
	}
	return &Config{
		DataDir:      dir,
		ShareBaseURL: "http://localhost:5173",
		Theme:        "classic",
		LogLevel:     "info",
	}
}

// Load reads path over the defaults. A missing file is not an error.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnvOverrides()
	cfg.ShareBaseURL = strings.TrimRight(cfg.ShareBaseURL, "/")
	return cfg, nil
}

// Save writes the config as YAML, creating the parent directory.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// DefaultPath is <default data dir>/config.yaml.
func DefaultPath() string {
	return filepath.Join(Default().DataDir, FileName)
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("CARDS_DATA_DIR")); v != "" {
		c.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("CARDS_SHARE_BASE_URL")); v != "" {
		c.ShareBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CARDS_THEME")); v != "" {
		c.Theme = v
	}
	if v := strings.TrimSpace(os.Getenv("CARDS_LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
}

// LogPath is where the file logger writes.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "cards.log")
}
