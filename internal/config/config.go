package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SourcesConfig names the three input tables. Each entry may be a local
// file path or an http(s) URL (fetched with ETag caching, see
// internal/source).
type SourcesConfig struct {
	Talents string `yaml:"talents"`
	Events  string `yaml:"events"`
	Tickets string `yaml:"tickets"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for serve mode.
type BasicAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Sources are the talent/event/ticket tables.
	Sources SourcesConfig `yaml:"sources"`

	// OutputDir is where per-locale calendar documents and the index
	// pages are written.
	OutputDir string `yaml:"output_dir"`

	// URLPrefix is the public base under which OutputDir is served; it
	// is embedded into the calendars index as webcal links.
	URLPrefix string `yaml:"url_prefix"`

	// CacheDir backs the conditional-GET cache for URL sources.
	CacheDir string `yaml:"cache_dir"`

	// Listen is the HTTP listen address for serve mode.
	Listen string `yaml:"listen"`

	// RefreshCron is a cron-style schedule used by serve mode to
	// regenerate output (e.g. "0 * * * *"). Empty disables refresh.
	RefreshCron string `yaml:"refresh"`

	// LogLevel is one of debug/info/error.
	LogLevel string `yaml:"log_level"`

	// Debug makes the digest command print instead of handing text to a
	// posting pipeline.
	Debug bool `yaml:"debug"`

	// BasicAuth, if non-nil, protects all serve-mode endpoints except
	// /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Sources: SourcesConfig{
			Talents: "data/talents.csv",
			Events:  "data/events.csv",
			Tickets: "data/tickets.csv",
		},
		OutputDir:   "docs",
		URLPrefix:   "webcal://magicien.github.io/Nij.iCal",
		CacheDir:    "./var/source-cache",
		Listen:      "127.0.0.1:8080",
		RefreshCron: "",
		LogLevel:    "info",
		Debug:       false,
		BasicAuth:   nil,
	}
}

// Normalize fills in missing/zero values so partially-filled configs still
// behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Sources.Talents == "" {
		c.Sources.Talents = def.Sources.Talents
	}
	if c.Sources.Events == "" {
		c.Sources.Events = def.Sources.Events
	}
	if c.Sources.Tickets == "" {
		c.Sources.Tickets = def.Sources.Tickets
	}
	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
	if c.URLPrefix == "" {
		c.URLPrefix = def.URLPrefix
	}
	if c.CacheDir == "" {
		c.CacheDir = def.CacheDir
	}
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// Load loads configuration from the given YAML path. A missing file is not
// an error: the defaults are written there (0600) and returned, so a first
// run leaves a template behind.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename, 0600).
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".nijical-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
