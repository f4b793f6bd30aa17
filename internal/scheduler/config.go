package scheduler

import (
	"time"

	"github.com/smallbiznis/canopact/internal/config"
)

// Config controls scheduler intervals, batch sizes and job timeouts.
type Config struct {
	RunInterval     time.Duration
	BatchSize       int
	EnabledJobs     []string
	Disabled        bool
	MaxCarbonPasses int

	IngestTimeout      time.Duration
	CarbonTimeout      time.Duration
	ExpireTrialTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunInterval:        10 * time.Second,
		BatchSize:          100,
		MaxCarbonPasses:    20,
		IngestTimeout:      10 * time.Minute,
		CarbonTimeout:      5 * time.Minute,
		ExpireTrialTimeout: 30 * time.Second,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval: cfg.Scheduler.Interval,
		BatchSize:   cfg.Scheduler.BatchSize,
		EnabledJobs: cfg.Scheduler.Jobs,
		Disabled:    cfg.Scheduler.Disabled,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.MaxCarbonPasses <= 0 {
		c.MaxCarbonPasses = defaults.MaxCarbonPasses
	}
	if c.IngestTimeout <= 0 {
		c.IngestTimeout = defaults.IngestTimeout
	}
	if c.CarbonTimeout <= 0 {
		c.CarbonTimeout = defaults.CarbonTimeout
	}
	if c.ExpireTrialTimeout <= 0 {
		c.ExpireTrialTimeout = defaults.ExpireTrialTimeout
	}
	return c
}
