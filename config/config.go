// Package config holds the engine settings read by host processes. Values
// are layered from defaults, an optional TOML file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-gamification/pkg/rules"
)

// Config is the root settings document.
type Config struct {
	Database    DatabaseConfig    `toml:"database"`
	Streak      StreakConfig      `toml:"streak"`
	Reputation  ReputationConfig  `toml:"reputation"`
	Leaderboard LeaderboardConfig `toml:"leaderboard"`
	Badges      BadgesConfig      `toml:"badges"`
	Scheduler   SchedulerConfig   `toml:"scheduler"`
	Log         LogConfig         `toml:"log"`
}

// DatabaseConfig implements persistence.Config for go-persistence-bun.
type DatabaseConfig struct {
	Debug          bool   `toml:"debug"`
	Driver         string `toml:"driver"`
	Server         string `toml:"server"`
	PingTimeout    string `toml:"ping_timeout"`
	OtelIdentifier string `toml:"otel_identifier"`
	Migrate        bool   `toml:"migrate"`
}

func (c DatabaseConfig) GetDebug() bool                { return c.Debug }
func (c DatabaseConfig) GetDriver() string             { return c.Driver }
func (c DatabaseConfig) GetServer() string             { return c.Server }
func (c DatabaseConfig) GetPingTimeout() time.Duration { return mustDuration(c.PingTimeout) }
func (c DatabaseConfig) GetOtelIdentifier() string     { return c.OtelIdentifier }

// StreakConfig controls calendar day boundaries.
type StreakConfig struct {
	Timezone string `toml:"timezone"`
}

// ReputationConfig tunes the weekly decay pass.
type ReputationConfig struct {
	DecayPercent      int `toml:"decay_percent"`
	ActivityThreshold int `toml:"activity_threshold"`
}

// LeaderboardConfig tunes board reads and rebuilds.
type LeaderboardConfig struct {
	CacheSize int `toml:"cache_size"`
	BatchSize int `toml:"batch_size"`
}

// BadgesConfig tunes the badge catalog and sweeps.
type BadgesConfig struct {
	SeedCatalog      bool   `toml:"seed_catalog"`
	CatalogCache     bool   `toml:"catalog_cache"`
	SweepConcurrency int    `toml:"sweep_concurrency"`
	ActiveWindow     string `toml:"active_window"`
}

// SchedulerConfig selects the job guard and bounds.
type SchedulerConfig struct {
	Enabled bool `toml:"enabled"`
	// Guard is "memory" or "lease".
	Guard      string `toml:"guard"`
	LeaseTTL   string `toml:"lease_ttl"`
	JobTimeout string `toml:"job_timeout"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns a complete, valid configuration.
func Default() Config {
	decay := rules.DefaultDecayPolicy()
	return Config{
		Database: DatabaseConfig{
			Driver:         "sqlite",
			Server:         "file:gamification.db?cache=shared&_fk=1",
			PingTimeout:    "5s",
			OtelIdentifier: "go-gamification",
			Migrate:        true,
		},
		Streak: StreakConfig{Timezone: "UTC"},
		Reputation: ReputationConfig{
			DecayPercent:      decay.Percent,
			ActivityThreshold: decay.ActivityThreshold,
		},
		Leaderboard: LeaderboardConfig{CacheSize: 256, BatchSize: 500},
		Badges: BadgesConfig{
			SeedCatalog:      true,
			CatalogCache:     true,
			SweepConcurrency: 4,
			ActiveWindow:     "1h",
		},
		Scheduler: SchedulerConfig{
			Enabled:    true,
			Guard:      "memory",
			LeaseTTL:   "30m",
			JobTimeout: "0s",
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported %q", c.Database.Driver))
	}
	if c.Database.Server == "" {
		errs = append(errs, errors.New("database.server: required"))
	}
	if _, err := time.LoadLocation(c.Streak.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("streak.timezone: %w", err))
	}
	if c.Reputation.DecayPercent < 0 || c.Reputation.DecayPercent > 100 {
		errs = append(errs, fmt.Errorf("reputation.decay_percent: %d outside 0..100", c.Reputation.DecayPercent))
	}
	if c.Reputation.ActivityThreshold < 0 {
		errs = append(errs, errors.New("reputation.activity_threshold: negative"))
	}
	if c.Leaderboard.CacheSize < 0 || c.Leaderboard.BatchSize < 0 {
		errs = append(errs, errors.New("leaderboard: sizes must not be negative"))
	}
	if c.Badges.SweepConcurrency < 0 {
		errs = append(errs, errors.New("badges.sweep_concurrency: negative"))
	}
	switch c.Scheduler.Guard {
	case "memory", "lease":
	default:
		errs = append(errs, fmt.Errorf("scheduler.guard: unsupported %q", c.Scheduler.Guard))
	}
	for key, raw := range map[string]string{
		"database.ping_timeout": c.Database.PingTimeout,
		"badges.active_window":  c.Badges.ActiveWindow,
		"scheduler.lease_ttl":   c.Scheduler.LeaseTTL,
		"scheduler.job_timeout": c.Scheduler.JobTimeout,
	} {
		if _, err := parseDuration(raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unsupported %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Location resolves the streak timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Streak.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DecayPolicy merges the configured decay knobs over the default policy.
func (c Config) DecayPolicy() rules.DecayPolicy {
	policy := rules.DefaultDecayPolicy()
	policy.Percent = c.Reputation.DecayPercent
	policy.ActivityThreshold = c.Reputation.ActivityThreshold
	return policy
}

// ActiveWindowDuration is the trailing window used by the periodic badge sweep.
func (c BadgesConfig) ActiveWindowDuration() time.Duration {
	return mustDuration(c.ActiveWindow)
}

// LeaseTTLDuration bounds how long a crashed instance holds a job lease.
func (c SchedulerConfig) LeaseTTLDuration() time.Duration {
	return mustDuration(c.LeaseTTL)
}

// JobTimeoutDuration bounds one job run; zero disables the limit.
func (c SchedulerConfig) JobTimeoutDuration() time.Duration {
	return mustDuration(c.JobTimeout)
}

func parseDuration(raw string) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", raw)
	}
	return d, nil
}

func mustDuration(raw string) time.Duration {
	d, _ := parseDuration(raw)
	return d
}
