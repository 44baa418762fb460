package backtest

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config holds the strategy and account parameters of a backtest run.
type Config struct {
	StartingCash float64 `toml:"starting_cash"`
	RiskFreeRate float64 `toml:"risk_free_rate"`
	Significance float64 `toml:"significance"`
	ZEntry       float64 `toml:"z_entry"`
	ZExit        float64 `toml:"z_exit"`
	MinOverlap   int     `toml:"min_overlap"`
	Workers      int     `toml:"workers"`
}

// DefaultConfig returns the standard parameters: 100k starting cash, 2.5%
// risk-free rate, 5% significance, 2.0/0.5 entry/exit thresholds.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads a TOML configuration file, fills in defaults and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.StartingCash == 0 {
		cfg.StartingCash = 100_000
	}
	if cfg.RiskFreeRate == 0 {
		cfg.RiskFreeRate = 0.025
	}
	if cfg.Significance == 0 {
		cfg.Significance = 0.05
	}
	if cfg.ZEntry == 0 {
		cfg.ZEntry = DefaultZEntry
	}
	if cfg.ZExit == 0 {
		cfg.ZExit = DefaultZExit
	}
	if cfg.MinOverlap == 0 {
		cfg.MinOverlap = DefaultMinOverlap
	}
}

// Validate checks the parameter ranges.
func (cfg *Config) Validate() error {
	if cfg.StartingCash <= 0 {
		return fmt.Errorf("starting_cash must be positive, got %v", cfg.StartingCash)
	}
	if cfg.Significance <= 0 || cfg.Significance >= 1 {
		return fmt.Errorf("significance must be in (0,1), got %v", cfg.Significance)
	}
	if cfg.ZExit <= 0 {
		return fmt.Errorf("z_exit must be positive, got %v", cfg.ZExit)
	}
	if cfg.ZEntry < cfg.ZExit {
		return fmt.Errorf("z_entry %v must be at least z_exit %v", cfg.ZEntry, cfg.ZExit)
	}
	if cfg.MinOverlap < 3 {
		return fmt.Errorf("min_overlap must be at least 3, got %d", cfg.MinOverlap)
	}
	return nil
}
