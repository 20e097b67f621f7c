// Package config loads user-overridable engine settings.
// Settings come from .semaconfig in the workspace root; every field is
// optional and unset fields fall back to built-in defaults.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the settings file looked up in the workspace root.
const FileName = ".semaconfig"

// TierPolicy selects which validator tiers run for a lifecycle event.
type TierPolicy string

const (
	PolicyNone     TierPolicy = "none"
	PolicyFast     TierPolicy = "fast"
	PolicyThorough TierPolicy = "thorough"
	PolicyBoth     TierPolicy = "both"
)

func (p TierPolicy) valid() bool {
	switch p {
	case PolicyNone, PolicyFast, PolicyThorough, PolicyBoth:
		return true
	}
	return false
}

// Config holds user-overridable engine settings.
type Config struct {
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Validation ValidationConfig `yaml:"validation"`

	// CatalogPath points at the standard-library catalog database.
	CatalogPath *string `yaml:"catalog_path"`
}

// ClassConfig overrides one priority class's limits.
type ClassConfig struct {
	// QueueCapacity bounds the class queue.
	QueueCapacity *int `yaml:"queue_capacity"`
	// Concurrency caps simultaneously running tasks of the class.
	Concurrency *int `yaml:"concurrency"`
}

// SchedulerConfig holds scheduler-specific settings.
type SchedulerConfig struct {
	// Classes is keyed by class name: critical, immediate, high, normal,
	// low, background.
	Classes map[string]ClassConfig `yaml:"classes"`

	// MaxStreak is how many consecutive dispatches one class may take
	// while lower classes wait. Default: 8.
	MaxStreak *int `yaml:"max_streak"`

	// IdleIntervalMS is the dispatcher sleep when nothing is runnable.
	// Default: 25.
	IdleIntervalMS *int `yaml:"idle_interval_ms"`

	// NotifyIntervalS is the period of the advisory stats report.
	// 0 disables it. Default: 60.
	NotifyIntervalS *int `yaml:"notify_interval_s"`
}

// ValidationConfig maps lifecycle events to validator tier policies.
type ValidationConfig struct {
	// OnOpen runs when a file is opened. Default: fast.
	OnOpen *TierPolicy `yaml:"on_open"`
	// OnChange runs on every edit. Default: fast.
	OnChange *TierPolicy `yaml:"on_change"`
	// OnSave runs when a file is saved. Default: both.
	OnSave *TierPolicy `yaml:"on_save"`

	// YieldEvery is the number of work items between cooperative
	// checkpoints in long passes. Default: 64.
	YieldEvery *int `yaml:"yield_every"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{}
}

// Load reads .semaconfig from the given directory.
// Returns the default config if the file doesn't exist or is invalid.
func Load(dir string) *Config {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return cfg // file not found or unreadable — use defaults
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return Default() // invalid YAML — use defaults
	}
	return cfg
}

// EffectiveClassLimits returns a class's configured queue capacity and
// concurrency; 0 means not set.
func (c *Config) EffectiveClassLimits(class string) (capacity, concurrency int) {
	cc, ok := c.Scheduler.Classes[class]
	if !ok {
		return 0, 0
	}
	if cc.QueueCapacity != nil && *cc.QueueCapacity > 0 {
		capacity = *cc.QueueCapacity
	}
	if cc.Concurrency != nil && *cc.Concurrency > 0 {
		concurrency = *cc.Concurrency
	}
	return capacity, concurrency
}

// EffectiveMaxStreak returns the configured streak limit, or the default
// (8) if not set.
func (c *Config) EffectiveMaxStreak() int {
	if c.Scheduler.MaxStreak != nil && *c.Scheduler.MaxStreak > 0 {
		return *c.Scheduler.MaxStreak
	}
	return 8
}

// EffectiveIdleInterval returns the configured dispatcher idle interval,
// or the default (25ms) if not set.
func (c *Config) EffectiveIdleInterval() time.Duration {
	if c.Scheduler.IdleIntervalMS != nil && *c.Scheduler.IdleIntervalMS > 0 {
		return time.Duration(*c.Scheduler.IdleIntervalMS) * time.Millisecond
	}
	return 25 * time.Millisecond
}

// EffectiveNotifyInterval returns the configured stats report period, or
// the default (60s) if not set. 0 disables reporting.
func (c *Config) EffectiveNotifyInterval() time.Duration {
	if c.Scheduler.NotifyIntervalS != nil {
		if *c.Scheduler.NotifyIntervalS <= 0 {
			return 0
		}
		return time.Duration(*c.Scheduler.NotifyIntervalS) * time.Second
	}
	return time.Minute
}

// EffectivePolicy returns the tier policy for a lifecycle event:
// "open", "change" or "save".
func (c *Config) EffectivePolicy(event string) TierPolicy {
	var p *TierPolicy
	var def TierPolicy
	switch event {
	case "open":
		p, def = c.Validation.OnOpen, PolicyFast
	case "change":
		p, def = c.Validation.OnChange, PolicyFast
	case "save":
		p, def = c.Validation.OnSave, PolicyBoth
	default:
		return PolicyNone
	}
	if p != nil && p.valid() {
		return *p
	}
	return def
}

// EffectiveYieldEvery returns the configured checkpoint stride, or the
// default (64) if not set.
func (c *Config) EffectiveYieldEvery() int {
	if c.Validation.YieldEvery != nil && *c.Validation.YieldEvery > 0 {
		return *c.Validation.YieldEvery
	}
	return 64
}

// EffectiveCatalogPath returns the configured catalog location, or "" when
// no catalog is configured.
func (c *Config) EffectiveCatalogPath() string {
	if c.CatalogPath != nil {
		return *c.CatalogPath
	}
	return ""
}
