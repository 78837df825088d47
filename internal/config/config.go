// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/lmoroni/dropzone/internal/sim"
)

// Config represents the complete application configuration.
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	League     LeagueConfig     `mapstructure:"league"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SimulationConfig holds the Monte Carlo batch settings.
type SimulationConfig struct {
	Trials            int           `mapstructure:"trials"`
	ChaosFactor       float64       `mapstructure:"chaos_factor"`
	BaseSeed          int64         `mapstructure:"base_seed"`
	Workers           int           `mapstructure:"workers"` // 0 = all CPUs
	ParallelMinTrials int           `mapstructure:"parallel_min_trials"`
	Timeout           time.Duration `mapstructure:"timeout"` // 0 = no deadline
	AllowPartial      bool          `mapstructure:"allow_partial"`
}

// LeagueConfig holds league-wide scoring and baseline settings.
type LeagueConfig struct {
	AvgGoalsHome     float64 `mapstructure:"avg_goals_home"`
	AvgGoalsAway     float64 `mapstructure:"avg_goals_away"`
	PointsWin        int     `mapstructure:"points_win"`
	PointsDraw       int     `mapstructure:"points_draw"`
	PointsLoss       int     `mapstructure:"points_loss"`
	RelegationSlots  int     `mapstructure:"relegation_slots"`
	SafePointsCutoff int     `mapstructure:"safe_points_cutoff"` // report hides teams above this
}

// StorageConfig holds snapshot persistence configuration.
type StorageConfig struct {
	DBPath       string `mapstructure:"db_path"`
	MaxSnapshots int    `mapstructure:"max_snapshots"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("DROPZONE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options.
// League defaults match the original Serie A parameterization.
func setDefaults(v *viper.Viper) {
	v.SetDefault("simulation.trials", 100000)
	v.SetDefault("simulation.chaos_factor", 0.25)
	v.SetDefault("simulation.base_seed", 42)
	v.SetDefault("simulation.workers", 0)
	v.SetDefault("simulation.parallel_min_trials", sim.DefaultParallelMinTrials)
	v.SetDefault("simulation.timeout", "0s")
	v.SetDefault("simulation.allow_partial", false)

	v.SetDefault("league.avg_goals_home", 1.45)
	v.SetDefault("league.avg_goals_away", 1.15)
	v.SetDefault("league.points_win", 3)
	v.SetDefault("league.points_draw", 1)
	v.SetDefault("league.points_loss", 0)
	v.SetDefault("league.relegation_slots", 3)
	v.SetDefault("league.safe_points_cutoff", 40)

	v.SetDefault("storage.db_path", "")
	v.SetDefault("storage.max_snapshots", 50)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid.
func (c *Config) Validate() error {
	if c.Simulation.Trials < 1 {
		return fmt.Errorf("simulation.trials must be at least 1")
	}
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("simulation.workers must not be negative")
	}
	if c.Simulation.ParallelMinTrials < 1 {
		return fmt.Errorf("simulation.parallel_min_trials must be at least 1")
	}
	if c.Simulation.Timeout < 0 {
		return fmt.Errorf("simulation.timeout must not be negative")
	}

	// Engine parameter constraints (chaos factor range, goal baselines,
	// points ordering, slot count) live with the engine.
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("league configuration: %w", err)
	}
	if c.League.SafePointsCutoff < 0 {
		return fmt.Errorf("league.safe_points_cutoff must not be negative")
	}

	if c.Storage.MaxSnapshots < 1 {
		return fmt.Errorf("storage.max_snapshots must be at least 1")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// Params assembles the engine parameters from the simulation and league
// sections.
func (c *Config) Params() sim.Params {
	return sim.Params{
		ChaosFactor:     c.Simulation.ChaosFactor,
		AvgGoalsHome:    c.League.AvgGoalsHome,
		AvgGoalsAway:    c.League.AvgGoalsAway,
		PointsWin:       c.League.PointsWin,
		PointsDraw:      c.League.PointsDraw,
		PointsLoss:      c.League.PointsLoss,
		RelegationSlots: c.League.RelegationSlots,
	}
}
