package service

import (
	"context"
	"time"

	featuregate "github.com/goliatone/go-featuregate/gate"

	"github.com/goliatone/go-gamification/command"
	"github.com/goliatone/go-gamification/pkg/rules"
	"github.com/goliatone/go-gamification/pkg/types"
	"github.com/goliatone/go-gamification/query"
	"github.com/goliatone/go-gamification/scheduler"
)

// Engine is the entry point for go-gamification. It wires the stores supplied
// by the host into command and query facades, inbound event handlers and the
// periodic job table.
type Engine struct {
	cfg       Config
	commands  Commands
	queries   Queries
	handlers  *Handlers
	scheduler *scheduler.Scheduler
}

// Commands exposes the engine command handlers.
type Commands struct {
	RecordActivity       *command.ActivityRecordCommand
	RecordStreak         *command.StreakRecordCommand
	StreakRiskSweep      *command.StreakRiskSweepCommand
	StreakBreakSweep     *command.StreakBreakSweepCommand
	AwardReputation      *command.ReputationAwardCommand
	AwardStreakBonus     *command.StreakBonusCommand
	WeeklyDecay          *command.WeeklyDecayCommand
	CheckBadges          *command.BadgeCheckCommand
	AwardBadge           *command.BadgeAwardCommand
	SetBadgeDisplayed    *command.BadgeDisplayCommand
	BadgeSweep           *command.BadgeSweepCommand
	PercentileBadgeSweep *command.PercentileBadgeSweepCommand
	RecomputeLeaderboard *command.LeaderboardRecomputeCommand
	NotifyLeaderboard    *command.LeaderboardNotifyCommand
	SnapshotLeaderboard  *command.LeaderboardSnapshotCommand
}

// Queries exposes read-model helpers.
type Queries struct {
	Leaderboard   *query.LeaderboardQuery
	UserRanks     *query.UserRanksQuery
	UserPosition  *query.UserPositionQuery
	Reputation    *query.ReputationQuery
	TopReputation *query.TopReputationQuery
	Streak        *query.StreakQuery
	StreakRisk    *query.StreakRiskQuery
	AtRiskStreaks *query.AtRiskStreaksQuery
	UserBadges    *query.UserBadgesQuery
	BadgeCatalog  *query.BadgeCatalogQuery
	BadgeDetail   *query.BadgeDetailQuery
}

// Config captures all required dependencies so callers can provide their own
// instances (bun-backed stores, cached repositories, buses, etc.).
type Config struct {
	ActivityRepository    types.ActivityRepository
	StreakRepository      types.StreakRepository
	ReputationRepository  types.ReputationRepository
	BadgeRepository       types.BadgeRepository
	LeaderboardRepository types.LeaderboardRepository
	Publisher             types.Publisher
	Clock                 types.Clock
	IDGenerator           types.IDGenerator
	Logger                types.Logger
	// Location defines calendar days for streaks and job schedules.
	Location    *time.Location
	FeatureGate featuregate.FeatureGate
	// JobGuard serializes job runs. Defaults to a process local guard.
	JobGuard    scheduler.Guard
	DecayPolicy rules.DecayPolicy
	// SweepConcurrency bounds the periodic badge sweep workers.
	SweepConcurrency     int
	BadgeActiveWindow    time.Duration
	LeaderboardCacheSize int
	BatchSize            int
	// Schedules overrides the default cadence per job name.
	Schedules map[string]scheduler.Schedule
	// JobTimeout bounds every job run when set.
	JobTimeout time.Duration
}

// New constructs an Engine from the supplied configuration.
func New(cfg Config) (*Engine, error) {
	norm := normalizeConfig(cfg)
	if err := validateConfig(norm); err != nil {
		return nil, err
	}

	e := &Engine{cfg: norm}
	queries, err := e.buildQueries()
	if err != nil {
		return nil, err
	}
	e.queries = queries
	e.commands = e.buildCommands()
	e.handlers = newHandlers(e.commands, norm.ActivityRepository, norm.Clock, norm.Logger)

	e.scheduler = scheduler.New(scheduler.Config{
		Guard:       norm.JobGuard,
		FeatureGate: norm.FeatureGate,
		Clock:       norm.Clock,
		Logger:      norm.Logger,
	})
	for _, job := range e.Jobs() {
		if err := e.scheduler.Register(job); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func normalizeConfig(cfg Config) Config {
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = types.UUIDGenerator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = types.NopLogger{}
	}
	if cfg.Publisher == nil {
		cfg.Publisher = types.NopPublisher{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return cfg
}

func validateConfig(cfg Config) error {
	switch {
	case cfg.ActivityRepository == nil:
		return types.ErrMissingActivityRepository
	case cfg.StreakRepository == nil:
		return types.ErrMissingStreakRepository
	case cfg.ReputationRepository == nil:
		return types.ErrMissingReputationRepository
	case cfg.BadgeRepository == nil:
		return types.ErrMissingBadgeRepository
	case cfg.LeaderboardRepository == nil:
		return types.ErrMissingLeaderboardRepository
	}
	return nil
}

// Commands returns the command facade.
func (e *Engine) Commands() Commands {
	return e.commands
}

// Queries returns the query facade.
func (e *Engine) Queries() Queries {
	return e.queries
}

// Handlers returns the inbound event handlers.
func (e *Engine) Handlers() *Handlers {
	return e.handlers
}

// Scheduler returns the scheduler holding the engine job table.
func (e *Engine) Scheduler() *scheduler.Scheduler {
	return e.scheduler
}

// Subscribe registers the inbound handlers on the subscriber and returns a
// function that removes them.
func (e *Engine) Subscribe(sub types.Subscriber) func() {
	if e == nil || sub == nil {
		return func() {}
	}
	return e.handlers.Subscribe(sub)
}

// Start launches the job loops. They stop when ctx is done.
func (e *Engine) Start(ctx context.Context) {
	e.scheduler.Start(ctx)
}

// Ready reports whether the engine has the required dependencies wired in.
func (e *Engine) Ready() bool {
	return e != nil && validateConfig(e.cfg) == nil
}

// HealthCheck surfaces missing configuration so upstream transports can
// refuse traffic early.
func (e *Engine) HealthCheck(context.Context) error {
	if e == nil {
		return types.ErrServiceNotReady
	}
	return validateConfig(e.cfg)
}

func (e *Engine) buildCommands() Commands {
	streakCfg := command.StreakCommandConfig{
		Repository: e.cfg.StreakRepository,
		Publisher:  e.cfg.Publisher,
		Clock:      e.cfg.Clock,
		Logger:     e.cfg.Logger,
		Location:   e.cfg.Location,
		BatchSize:  e.cfg.BatchSize,
	}
	reputationCfg := command.ReputationCommandConfig{
		Repository: e.cfg.ReputationRepository,
		Activity:   e.cfg.ActivityRepository,
		Publisher:  e.cfg.Publisher,
		Clock:      e.cfg.Clock,
		IDGen:      e.cfg.IDGenerator,
		Logger:     e.cfg.Logger,
		Decay:      e.cfg.DecayPolicy,
		BatchSize:  e.cfg.BatchSize,
	}
	badgeCfg := command.BadgeCommandConfig{
		Repository:   e.cfg.BadgeRepository,
		Activity:     e.cfg.ActivityRepository,
		Streaks:      e.cfg.StreakRepository,
		Reputation:   e.cfg.ReputationRepository,
		Leaderboard:  e.cfg.LeaderboardRepository,
		Publisher:    e.cfg.Publisher,
		Clock:        e.cfg.Clock,
		IDGen:        e.cfg.IDGenerator,
		Logger:       e.cfg.Logger,
		Concurrency:  e.cfg.SweepConcurrency,
		ActiveWindow: e.cfg.BadgeActiveWindow,
	}
	leaderboardCfg := command.LeaderboardCommandConfig{
		Repository:  e.cfg.LeaderboardRepository,
		Activity:    e.cfg.ActivityRepository,
		Reputation:  e.cfg.ReputationRepository,
		Publisher:   e.cfg.Publisher,
		Clock:       e.cfg.Clock,
		Logger:      e.cfg.Logger,
		Invalidator: e.queries.Leaderboard,
		BatchSize:   e.cfg.BatchSize,
	}
	return Commands{
		RecordActivity: command.NewActivityRecordCommand(command.ActivityCommandConfig{
			Repository: e.cfg.ActivityRepository,
			Clock:      e.cfg.Clock,
		}),
		RecordStreak:         command.NewStreakRecordCommand(streakCfg),
		StreakRiskSweep:      command.NewStreakRiskSweepCommand(streakCfg),
		StreakBreakSweep:     command.NewStreakBreakSweepCommand(streakCfg),
		AwardReputation:      command.NewReputationAwardCommand(reputationCfg),
		AwardStreakBonus:     command.NewStreakBonusCommand(reputationCfg),
		WeeklyDecay:          command.NewWeeklyDecayCommand(reputationCfg),
		CheckBadges:          command.NewBadgeCheckCommand(badgeCfg),
		AwardBadge:           command.NewBadgeAwardCommand(badgeCfg),
		SetBadgeDisplayed:    command.NewBadgeDisplayCommand(badgeCfg),
		BadgeSweep:           command.NewBadgeSweepCommand(badgeCfg),
		PercentileBadgeSweep: command.NewPercentileBadgeSweepCommand(badgeCfg),
		RecomputeLeaderboard: command.NewLeaderboardRecomputeCommand(leaderboardCfg),
		NotifyLeaderboard:    command.NewLeaderboardNotifyCommand(leaderboardCfg),
		SnapshotLeaderboard:  command.NewLeaderboardSnapshotCommand(leaderboardCfg),
	}
}

func (e *Engine) buildQueries() (Queries, error) {
	leaderboard, err := query.NewLeaderboardQuery(e.cfg.LeaderboardRepository, e.cfg.LeaderboardCacheSize)
	if err != nil {
		return Queries{}, err
	}
	streakCfg := query.StreakQueryConfig{
		Repository: e.cfg.StreakRepository,
		Clock:      e.cfg.Clock,
		Location:   e.cfg.Location,
	}
	return Queries{
		Leaderboard:   leaderboard,
		UserRanks:     query.NewUserRanksQuery(e.cfg.LeaderboardRepository),
		UserPosition:  query.NewUserPositionQuery(e.cfg.LeaderboardRepository),
		Reputation:    query.NewReputationQuery(e.cfg.ReputationRepository, e.cfg.Clock),
		TopReputation: query.NewTopReputationQuery(e.cfg.ReputationRepository),
		Streak:        query.NewStreakQuery(streakCfg),
		StreakRisk:    query.NewStreakRiskQuery(streakCfg),
		AtRiskStreaks: query.NewAtRiskStreaksQuery(streakCfg),
		UserBadges:    query.NewUserBadgesQuery(e.cfg.BadgeRepository),
		BadgeCatalog:  query.NewBadgeCatalogQuery(e.cfg.BadgeRepository),
		BadgeDetail:   query.NewBadgeDetailQuery(e.cfg.BadgeRepository),
	}, nil
}
