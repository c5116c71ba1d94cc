package service

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-gamification/command"
	"github.com/goliatone/go-gamification/scheduler"
)

// Job names registered by the engine.
const (
	JobStreakRisk           = "streak.risk"
	JobStreakBreak          = "streak.break"
	JobReputationDecay      = "reputation.decay"
	JobLeaderboardRecompute = "leaderboard.recompute"
	JobLeaderboardWeekly    = "leaderboard.weekly"
	JobBadgeSweep           = "badge.sweep"
	JobBadgePercentile      = "badge.percentile"
)

// DefaultSchedules returns the default cadence per job in loc.
func DefaultSchedules(loc *time.Location) map[string]scheduler.Schedule {
	return map[string]scheduler.Schedule{
		JobStreakRisk:           scheduler.Every(time.Hour),
		JobStreakBreak:          scheduler.DailyAt(0, 5, loc),
		JobReputationDecay:      scheduler.WeeklyAt(time.Monday, 0, 30, loc),
		JobLeaderboardRecompute: scheduler.DailyAt(1, 0, loc),
		JobLeaderboardWeekly:    scheduler.WeeklyAt(time.Monday, 1, 30, loc),
		JobBadgeSweep:           scheduler.Every(15 * time.Minute),
		JobBadgePercentile:      scheduler.WeeklyAt(time.Monday, 2, 0, loc),
	}
}

// Jobs returns the engine job table. Config.Schedules entries replace the
// default cadence of the matching job.
func (e *Engine) Jobs() []scheduler.Job {
	schedules := DefaultSchedules(e.cfg.Location)
	for name, schedule := range e.cfg.Schedules {
		if schedule != nil {
			schedules[name] = schedule
		}
	}
	c := e.commands
	runs := []struct {
		name string
		run  func(ctx context.Context) error
	}{
		{JobStreakRisk, func(ctx context.Context) error {
			var result command.SweepResult
			if err := c.StreakRiskSweep.Execute(ctx, command.StreakRiskSweepInput{Result: &result}); err != nil {
				return err
			}
			return result.Err()
		}},
		{JobStreakBreak, func(ctx context.Context) error {
			var result command.SweepResult
			if err := c.StreakBreakSweep.Execute(ctx, command.StreakBreakSweepInput{Result: &result}); err != nil {
				return err
			}
			return result.Err()
		}},
		{JobReputationDecay, func(ctx context.Context) error {
			var result command.SweepResult
			if err := c.WeeklyDecay.Execute(ctx, command.WeeklyDecayInput{Result: &result}); err != nil {
				return err
			}
			return result.Err()
		}},
		{JobLeaderboardRecompute, func(ctx context.Context) error {
			var result command.RecomputeResult
			if err := c.RecomputeLeaderboard.Execute(ctx, command.LeaderboardRecomputeInput{Result: &result}); err != nil {
				return err
			}
			return result.Err()
		}},
		{JobLeaderboardWeekly, func(ctx context.Context) error {
			var notified, snapshot command.SweepResult
			if err := c.NotifyLeaderboard.Execute(ctx, command.LeaderboardNotifyInput{Result: &notified}); err != nil {
				return err
			}
			if err := c.SnapshotLeaderboard.Execute(ctx, command.LeaderboardSnapshotInput{Result: &snapshot}); err != nil {
				return err
			}
			return errors.Join(notified.Err(), snapshot.Err())
		}},
		{JobBadgeSweep, func(ctx context.Context) error {
			var result command.SweepResult
			if err := c.BadgeSweep.Execute(ctx, command.BadgeSweepInput{Result: &result}); err != nil {
				return err
			}
			return result.Err()
		}},
		{JobBadgePercentile, func(ctx context.Context) error {
			var result command.SweepResult
			if err := c.PercentileBadgeSweep.Execute(ctx, command.PercentileBadgeSweepInput{Result: &result}); err != nil {
				return err
			}
			return result.Err()
		}},
	}

	jobs := make([]scheduler.Job, 0, len(runs))
	for _, entry := range runs {
		jobs = append(jobs, scheduler.Job{
			Name:     entry.name,
			Schedule: schedules[entry.name],
			Run:      entry.run,
			Timeout:  e.cfg.JobTimeout,
		})
	}
	return jobs
}

// RunJob executes one job immediately through the scheduler guard.
func (e *Engine) RunJob(ctx context.Context, name string) error {
	return e.scheduler.RunNow(ctx, name)
}
