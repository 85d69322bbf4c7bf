// Package config defines extraction configuration options.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces the environment variables this tool reads.
// SQLMINER_STORE_PATH maps to store.path, and so on.
const envPrefix = "SQLMINER_"

// Config holds all configuration for the extraction tool.
type Config struct {
	Snapshots  SnapshotsConfig  `koanf:"snapshots"`
	Store      StoreConfig      `koanf:"store"`
	Extract    ExtractConfig    `koanf:"extract"`
	Confluence ConfluenceConfig `koanf:"confluence"`
	Server     ServerConfig     `koanf:"server"`
}

// SnapshotsConfig locates exported page snapshots on disk.
type SnapshotsConfig struct {
	Dir string `koanf:"dir"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `koanf:"path"`
}

// ExtractConfig tunes the extraction pipeline.
type ExtractConfig struct {
	// MinLines drops fragments shorter than this many lines. Zero keeps
	// everything the recognizer accepts.
	MinLines int `koanf:"min_lines"`

	// GlobalDedup keeps only the first occurrence of a script across the
	// whole wiki instead of one per page.
	GlobalDedup bool `koanf:"global_dedup"`

	// SummaryOnly scans and reports without writing to the store.
	SummaryOnly bool `koanf:"summary_only"`
}

// ConfluenceConfig holds live REST collection settings.
type ConfluenceConfig struct {
	BaseURL   string   `koanf:"base_url"`
	Username  string   `koanf:"username"`
	Token     string   `koanf:"token"`
	Spaces    []string `koanf:"spaces"`
	PageLimit int      `koanf:"page_limit"` // pages per REST request
	RateLimit float64  `koanf:"rate_limit"` // requests per second
}

// ServerConfig holds the browse API settings.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// Default configuration values.
const (
	DefaultSnapshotsDir = "snapshots"
	DefaultStorePath    = "sqlminer.db"
	DefaultMinLines     = 1
	DefaultPageLimit    = 50
	DefaultRateLimit    = 5.0
	DefaultServerAddr   = ":8080"
)

// Load reads configuration in precedence order: defaults, then the YAML file
// if present, then SQLMINER_* environment variables. An empty cfgFile means
// "use sqlminer.yaml if it exists, otherwise defaults only".
func Load(cfgFile string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"snapshots.dir":         DefaultSnapshotsDir,
		"store.path":            DefaultStorePath,
		"extract.min_lines":     DefaultMinLines,
		"confluence.page_limit": DefaultPageLimit,
		"confluence.rate_limit": DefaultRateLimit,
		"server.addr":           DefaultServerAddr,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	explicit := cfgFile != ""
	if cfgFile == "" {
		for _, name := range []string{"sqlminer.yaml", "sqlminer.yml"} {
			if _, err := os.Stat(name); err == nil {
				cfgFile = name
				break
			}
		}
	}
	if cfgFile != "" {
		err := k.Load(file.Provider(cfgFile), yaml.Parser())
		if err != nil && explicit {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// SQLMINER_EXTRACT_MIN_LINES -> extract.min_lines. Only the first
	// underscore separates the section, the rest belong to the key.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults backfills zero values that unmarshalling may have cleared.
func (c *Config) applyDefaults() {
	if c.Snapshots.Dir == "" {
		c.Snapshots.Dir = DefaultSnapshotsDir
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultStorePath
	}
	if c.Confluence.PageLimit <= 0 {
		c.Confluence.PageLimit = DefaultPageLimit
	}
	if c.Confluence.RateLimit <= 0 {
		c.Confluence.RateLimit = DefaultRateLimit
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
}

// Validate checks configuration consistency for live collection.
func (c *Config) Validate() error {
	if c.Confluence.BaseURL != "" && c.Confluence.Token == "" {
		return fmt.Errorf("confluence.base_url is set but confluence.token is empty")
	}
	return nil
}
