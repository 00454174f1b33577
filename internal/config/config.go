package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/papapumpkin/aprx/internal/mapview"
)

// Config holds all runtime configuration for an aprx session.
// Values are populated from .aprx.yaml, APRX_* env vars, and CLI flags.
type Config struct {
	WorkDir      string            `mapstructure:"work_dir"`
	Verbose      bool              `mapstructure:"verbose"`
	Workers      int               `mapstructure:"workers"`
	ResultsDB    string            `mapstructure:"results_db"`
	TelemetryDir string            `mapstructure:"telemetry_dir"`
	Baseline     string            `mapstructure:"baseline"`
	ArchiveGlob  string            `mapstructure:"archive_glob"`
	Tolerance    mapview.Tolerance `mapstructure:"tolerance"`
	MemoSize     int               `mapstructure:"memo_size"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("work_dir", "")
	viper.SetDefault("verbose", false)
	viper.SetDefault("workers", 4)
	viper.SetDefault("results_db", ".aprx/results.db")
	viper.SetDefault("telemetry_dir", ".aprx/telemetry")
	viper.SetDefault("baseline", "baseline.toml")
	viper.SetDefault("archive_glob", "*.aprx")
	viper.SetDefault("tolerance.x", 0.0)
	viper.SetDefault("tolerance.y", 0.0)
	viper.SetDefault("tolerance.scale", 0.0)
	viper.SetDefault("memo_size", 256)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.Workers < 1 {
		return Config{}, fmt.Errorf("config: workers must be at least 1, got %d", cfg.Workers)
	}
	if cfg.MemoSize < 1 {
		return Config{}, fmt.Errorf("config: memo_size must be at least 1, got %d", cfg.MemoSize)
	}
	return cfg, nil
}
