// Package config loads the pagewindow YAML configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sushant-115/pagewindow/pkg/logger"
	"github.com/sushant-115/pagewindow/pkg/telemetry"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

type Config struct {
	Logger    logger.Config    `yaml:"logger"`
	Telemetry telemetry.Config `yaml:"telemetry"`
	Window    WindowConfig     `yaml:"window"`
	Store     StoreConfig      `yaml:"store"`
}

type WindowConfig struct {
	PageSize int `yaml:"page_size"`
	// MaxPages is the number of pages kept loaded before the least recently
	// used unpinned page is evicted.
	MaxPages int `yaml:"max_pages"`
	// LoadRate limits page loads from the store, per second. 0 disables it.
	LoadRate  float64 `yaml:"load_rate"`
	LoadBurst int     `yaml:"load_burst"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // memory, sqlite or bolt
	Path   string `yaml:"path"`
	// CacheMaxCost is the number of records the page cache may hold. 0
	// disables the cache.
	CacheMaxCost int64 `yaml:"cache_max_cost"`
	// SeedRecords is the number of records generated into an empty store.
	SeedRecords int `yaml:"seed_records"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Logger: logger.Config{
			Level:      "info",
			Format:     "console",
			OutputFile: "stderr",
		},
		Telemetry: telemetry.Config{
			Enabled:          false,
			ServiceName:      "pagewindow",
			PrometheusPort:   9464,
			TraceSampleRatio: 1.0,
		},
		Window: WindowConfig{
			PageSize:  10,
			MaxPages:  8,
			LoadRate:  0,
			LoadBurst: 1,
		},
		Store: StoreConfig{
			Driver:       DriverMemory,
			CacheMaxCost: 1024,
			SeedRecords:  100,
		},
	}
}

// Load reads the configuration at path on top of the defaults. An empty path
// looks for pagewindow.yaml in configs/ and the working directory and falls
// back to the defaults if neither exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, p := range []string{"configs/pagewindow.yaml", "pagewindow.yaml"} {
			data, err := os.ReadFile(p)
			if err == nil {
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return cfg, fmt.Errorf("config: parse %s: %w", p, err)
				}
				applyDefaults(cfg)
				return cfg, cfg.Validate()
			}
		}
		applyDefaults(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyDefaults(cfg)
	return cfg, cfg.Validate()
}

func applyDefaults(cfg *Config) {
	if cfg.Window.PageSize <= 0 {
		cfg.Window.PageSize = 10
	}
	if cfg.Window.MaxPages <= 0 {
		cfg.Window.MaxPages = 8
	}
	if cfg.Window.LoadRate < 0 {
		cfg.Window.LoadRate = 0
	}
	if cfg.Window.LoadBurst <= 0 {
		cfg.Window.LoadBurst = 1
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DriverMemory
	}
	if cfg.Store.CacheMaxCost < 0 {
		cfg.Store.CacheMaxCost = 0
	}
	if cfg.Store.SeedRecords < 0 {
		cfg.Store.SeedRecords = 0
	}
}

// Validate checks the settings defaults cannot repair.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite, DriverBolt:
		if c.Store.Path == "" {
			return fmt.Errorf("config: store.path is required for driver %q", c.Store.Driver)
		}
	default:
		return fmt.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	return nil
}
