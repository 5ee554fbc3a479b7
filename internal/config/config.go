// Package config loads zonedash settings from defaults, an optional YAML
// file and ZONEDASH_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/zonedash/internal/graphql"
	"github.com/abhisek/zonedash/internal/rank"
	"github.com/abhisek/zonedash/internal/xp"
)

// Config defines zonedash configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Dashboard DashboardConfig `yaml:"dashboard"`

	// Ranks overrides the built-in rank table when non-empty.
	Ranks rank.Table `yaml:"ranks,omitempty"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	EventID int           `yaml:"event_id"`
	Timeout time.Duration `yaml:"timeout"`
}

type DBConfig struct {
	Path string `yaml:"path"` // empty = store.DefaultDBPath
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"` // TUI log file; empty = <data home>/zonedash.log
}

type DashboardConfig struct {
	RangeMonths int `yaml:"range_months"`
	// KeepSnapshots is how many raw dataset snapshots the store retains.
	KeepSnapshots int `yaml:"keep_snapshots"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: graphql.DefaultBaseURL,
			EventID: graphql.DefaultEventID,
			Timeout: graphql.DefaultTimeout,
		},
		Log: LogConfig{
			Level: "info",
		},
		Dashboard: DashboardConfig{
			RangeMonths:   xp.DefaultRangeMonths,
			KeepSnapshots: 5,
		},
	}
}

// RankTable returns the configured rank table, or the default one.
func (c Config) RankTable() rank.Table {
	if len(c.Ranks) > 0 {
		return c.Ranks
	}
	return rank.DefaultTable()
}

// GraphQL returns the client configuration.
func (c Config) GraphQL() graphql.Config {
	return graphql.Config{
		BaseURL: c.API.BaseURL,
		EventID: c.API.EventID,
		Timeout: c.API.Timeout,
	}
}

// Load reads configuration. path names an explicit YAML file and must exist;
// when empty, ZONEDASH_CONFIG and then the default location are tried, and a
// missing default file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if p := os.Getenv("ZONEDASH_CONFIG"); p != "" {
			path, explicit = p, true
		} else if p, err := DefaultPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return Config{}, err
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/zonedash/config.yaml (or the
// ~/.config equivalent).
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "zonedash", "config.yaml"), nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("ZONEDASH_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("ZONEDASH_EVENT_ID"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ZONEDASH_EVENT_ID: %w", err)
		}
		cfg.API.EventID = id
	}
	if v := os.Getenv("ZONEDASH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ZONEDASH_TIMEOUT: %w", err)
		}
		cfg.API.Timeout = d
	}
	if v := os.Getenv("ZONEDASH_DB"); v != "" {
		cfg.DB.Path = v
	}
	if v := os.Getenv("ZONEDASH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ZONEDASH_LOG_PATH"); v != "" {
		cfg.Log.Path = v
	}
	if v := os.Getenv("ZONEDASH_XP_RANGE"); v != "" {
		months, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ZONEDASH_XP_RANGE: %w", err)
		}
		cfg.Dashboard.RangeMonths = months
	}
	return nil
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url: %q is not an http(s) URL", c.API.BaseURL))
	}
	if c.API.EventID <= 0 {
		errs = append(errs, fmt.Errorf("api.event_id: must be positive, got %d", c.API.EventID))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, fmt.Errorf("api.timeout: must not be negative"))
	}
	if !ValidRange(c.Dashboard.RangeMonths) {
		errs = append(errs, fmt.Errorf("dashboard.range_months: %d is not one of 0, 1, 3, 6, 12", c.Dashboard.RangeMonths))
	}
	if c.Dashboard.KeepSnapshots < 1 {
		errs = append(errs, fmt.Errorf("dashboard.keep_snapshots: must be at least 1"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	if len(c.Ranks) > 0 {
		if err := c.Ranks.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("ranks: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ValidRange reports whether months is one of the selectable XP windows.
func ValidRange(months int) bool {
	for _, r := range xp.Ranges() {
		if r.Months == months {
			return true
		}
	}
	return false
}
