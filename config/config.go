package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"buskport-cli/calendar"
	"buskport-cli/service"
	"buskport-cli/store"
)

const (
	EnvAPIBase  = "BUSKPORT_API_BASE"
	EnvLogLevel = "BUSKPORT_LOG_LEVEL"
	EnvConfig   = "BUSKPORT_CONFIG"

	DefaultMapURL = "https://map.kakao.com/?q="
)

// CacheConfig sets how long cached API data stays fresh.
type CacheConfig struct {
	Venues       time.Duration `yaml:"venues"`
	Performances time.Duration `yaml:"performances"`
}

// Config is the top-level application configuration.
type Config struct {
	// APIBase is the BuskPort REST root, including the /api/v1 prefix.
	APIBase       string        `yaml:"api_base"`
	Timeout       time.Duration `yaml:"timeout"`
	RetryAttempts int           `yaml:"retry_attempts"`

	// Timezone is the IANA zone performance datetimes are interpreted in.
	// Empty means the system zone.
	Timezone    string      `yaml:"timezone"`
	DefaultView string      `yaml:"default_view"`
	LogLevel    string      `yaml:"log_level"`
	Cache       CacheConfig `yaml:"cache"`

	// MapURL is prefixed to the escaped venue address when opening a map.
	MapURL string `yaml:"map_url"`
}

func DefaultConfig() *Config {
	return &Config{
		APIBase:       service.DefaultBaseURL,
		Timeout:       12 * time.Second,
		RetryAttempts: 1,
		Timezone:      "",
		DefaultView:   calendar.ModeMonth.String(),
		LogLevel:      "info",
		Cache: CacheConfig{
			Venues:       store.DefaultVenueTTL,
			Performances: store.DefaultMonthTTL,
		},
		MapURL: DefaultMapURL,
	}
}

// Normalize fills zero values with defaults and repairs invalid ones.
func (c *Config) Normalize() {
	def := DefaultConfig()
	c.APIBase = strings.TrimRight(strings.TrimSpace(c.APIBase), "/")
	if c.APIBase == "" {
		c.APIBase = def.APIBase
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.RetryAttempts < 1 {
		c.RetryAttempts = def.RetryAttempts
	}
	if _, err := calendar.ParseMode(c.DefaultView); err != nil {
		c.DefaultView = def.DefaultView
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	default:
		c.LogLevel = def.LogLevel
	}
	if c.Cache.Venues < 0 {
		c.Cache.Venues = 0
	}
	if c.Cache.Performances < 0 {
		c.Cache.Performances = 0
	}
	if strings.TrimSpace(c.MapURL) == "" {
		c.MapURL = def.MapURL
	}
}

// Location resolves Timezone; an unknown zone is an error, empty means time.Local.
func (c *Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIBase)); v != "" {
		c.APIBase = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	c.Normalize()
}

// DefaultPath is $BUSKPORT_CONFIG or config.yaml in the user config dir.
func DefaultPath() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvConfig)); v != "" {
		return v, nil
	}
	return store.ConfigPath("config.yaml")
}

// Load reads the YAML file at path. On first run the defaults are written
// there and returned.
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

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save writes cfg atomically with 0600 permissions.
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

	tmp, err := os.CreateTemp(dir, ".buskport-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
