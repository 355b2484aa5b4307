package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all service configuration.
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Database struct {
		UseMemory     bool   `yaml:"use_memory"`
		PostgresDSN   string `yaml:"postgres_dsn"`
		ClickhouseDSN string `yaml:"clickhouse_dsn"` // optional claim mirror
	} `yaml:"database"`
	Trading struct {
		WSURL string `yaml:"ws_url"` // empty disables order submission
	} `yaml:"trading"`
	Scheduler struct {
		Timezone        string `yaml:"timezone"`
		RefreshInterval string `yaml:"refresh_interval"`
		SweepCron       string `yaml:"sweep_cron"`
		StatusCron      string `yaml:"status_cron"`
	} `yaml:"scheduler"`
	SeedFile string `yaml:"seed_file"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error; overrides and
// defaults still apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Database.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		cfg.Database.ClickhouseDSN = v
	}
	if v := os.Getenv("TRADING_WS_URL"); v != "" {
		cfg.Trading.WSURL = v
	}
	if v := os.Getenv("SCHEDULER_TIMEZONE"); v != "" {
		cfg.Scheduler.Timezone = v
	}
	if v := os.Getenv("SEED_FILE"); v != "" {
		cfg.SeedFile = v
	}

	// Defaults
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Scheduler.Timezone == "" {
		cfg.Scheduler.Timezone = "UTC"
	}
	if cfg.Scheduler.RefreshInterval == "" {
		cfg.Scheduler.RefreshInterval = "1m"
	}
	if cfg.Scheduler.SweepCron == "" {
		cfg.Scheduler.SweepCron = "*/10 * * * *"
	}
	if cfg.Scheduler.StatusCron == "" {
		cfg.Scheduler.StatusCron = "0 * * * *"
	}

	return cfg, nil
}

// Validate checks that required fields are set for the selected store mode.
func (c *Config) Validate() error {
	if !c.Database.UseMemory && c.Database.PostgresDSN == "" {
		return fmt.Errorf("database.postgres_dsn is required unless database.use_memory is set")
	}
	return nil
}
