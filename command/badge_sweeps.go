package command

import (
	"context"
	"fmt"
	"time"

	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/goliatone/go-gamification/pkg/rules"
	"github.com/goliatone/go-gamification/pkg/types"
)

// BadgeSweepInput triggers the periodic badge evaluation.
type BadgeSweepInput struct {
	// Since overrides the start of the activity window.
	Since  *time.Time
	Result *SweepResult
}

// Type implements gocommand.Message.
func (BadgeSweepInput) Type() string {
	return "command.badge.sweep"
}

// Validate implements gocommand.Message.
func (BadgeSweepInput) Validate() error { return nil }

// BadgeSweepCommand evaluates every badge for recently active users.
type BadgeSweepCommand struct {
	check       *BadgeCheckCommand
	activity    types.ActivityRepository
	clock       types.Clock
	logger      types.Logger
	concurrency int
	window      time.Duration
}

// NewBadgeSweepCommand constructs the sweep.
func NewBadgeSweepCommand(cfg BadgeCommandConfig) *BadgeSweepCommand {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultSweepConcurrency
	}
	window := cfg.ActiveWindow
	if window <= 0 {
		window = defaultActiveWindow
	}
	return &BadgeSweepCommand{
		check:       NewBadgeCheckCommand(cfg),
		activity:    cfg.Activity,
		clock:       safeClock(cfg.Clock),
		logger:      safeLogger(cfg.Logger),
		concurrency: concurrency,
		window:      window,
	}
}

var _ gocommand.Commander[BadgeSweepInput] = (*BadgeSweepCommand)(nil)

// Execute checks users active in the window with bounded concurrency. A
// failing user does not stop the others.
func (c *BadgeSweepCommand) Execute(ctx context.Context, input BadgeSweepInput) error {
	if c.check.awarder.repo == nil {
		return types.ErrMissingBadgeRepository
	}
	if c.activity == nil {
		return types.ErrMissingActivityRepository
	}
	since := now(c.clock).Add(-c.window)
	if input.Since != nil {
		since = *input.Since
	}
	users, err := c.activity.ActiveUsersSince(ctx, since)
	if err != nil {
		return err
	}

	var shared syncResult
	sem := semaphore.NewWeighted(int64(c.concurrency))
	g, gctx := errgroup.WithContext(ctx)
	for _, userID := range users {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			var awarded []types.UserBadge
			err := c.check.Execute(gctx, BadgeCheckInput{UserID: userID, Scope: rules.ScopeAll, Result: &awarded})
			shared.update(func(r *SweepResult) {
				r.Processed++
				switch {
				case err != nil:
					r.fail(fmt.Errorf("badges %s: %w", userID, err))
				case len(awarded) > 0:
					r.Affected++
				default:
					r.Skipped++
				}
			})
			if err != nil {
				c.logger.Error("badge sweep user failed", err, "user_id", userID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	result := shared.snapshot()
	c.logger.Info("badge sweep finished",
		"processed", result.Processed,
		"awarded_users", result.Affected,
		"failed", result.Failed,
	)
	if input.Result != nil {
		*input.Result = result
	}
	return ctx.Err()
}

// PercentileBadgeSweepInput triggers the top percent badge pass.
type PercentileBadgeSweepInput struct {
	Result *SweepResult
}

// Type implements gocommand.Message.
func (PercentileBadgeSweepInput) Type() string {
	return "command.badge.percentile_sweep"
}

// Validate implements gocommand.Message.
func (PercentileBadgeSweepInput) Validate() error { return nil }

// PercentileBadgeSweepCommand awards top percent badges from the
// reputation all time board. The board is only read.
type PercentileBadgeSweepCommand struct {
	awarder badgeAwarder
	board   types.LeaderboardRepository
	logger  types.Logger
}

// NewPercentileBadgeSweepCommand constructs the percentile sweep.
func NewPercentileBadgeSweepCommand(cfg BadgeCommandConfig) *PercentileBadgeSweepCommand {
	return &PercentileBadgeSweepCommand{
		awarder: newBadgeAwarder(cfg),
		board:   cfg.Leaderboard,
		logger:  safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[PercentileBadgeSweepInput] = (*PercentileBadgeSweepCommand)(nil)

// Execute awards each active top percent badge to the leading
// ceil(total*pct/100) ranked users that lack it.
func (c *PercentileBadgeSweepCommand) Execute(ctx context.Context, input PercentileBadgeSweepInput) error {
	if c.awarder.repo == nil {
		return types.ErrMissingBadgeRepository
	}
	if c.board == nil {
		return types.ErrMissingLeaderboardRepository
	}
	badges, err := c.awarder.repo.ListBadges(ctx, types.BadgeFilter{
		ActiveOnly: true,
		Kinds:      []types.RequirementKind{types.RequirementTopPercentWeekly},
	})
	if err != nil {
		return err
	}
	var result SweepResult
	if len(badges) == 0 {
		if input.Result != nil {
			*input.Result = result
		}
		return nil
	}

	total, err := c.board.CountRanked(ctx, types.CategoryReputation, types.TimeframeAllTime)
	if err != nil {
		return err
	}
	for _, badge := range badges {
		target := rules.PercentileTarget(total, badge.ThresholdValue)
		if target == 0 {
			continue
		}
		leaders, err := c.leaders(ctx, target)
		if err != nil {
			return err
		}
		for _, userID := range leaders {
			result.Processed++
			_, created, err := c.awarder.award(ctx, userID, badge)
			switch {
			case err != nil:
				c.logger.Error("percentile badge award failed", err, "user_id", userID, "badge", badge.Name)
				result.fail(fmt.Errorf("badge %s for %s: %w", badge.Name, userID, err))
			case created:
				result.Affected++
			default:
				result.Skipped++
			}
		}
	}
	c.logger.Info("percentile badge sweep finished",
		"ranked", total,
		"awarded", result.Affected,
		"failed", result.Failed,
	)
	if input.Result != nil {
		*input.Result = result
	}
	return nil
}

const leaderboardPageSize = 100

func (c *PercentileBadgeSweepCommand) leaders(ctx context.Context, target int) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, target)
	for offset := 0; len(out) < target; offset += leaderboardPageSize {
		entries, _, err := c.board.ListEntries(ctx, types.LeaderboardFilter{
			Category:   types.CategoryReputation,
			Timeframe:  types.TimeframeAllTime,
			Pagination: types.Pagination{Limit: leaderboardPageSize, Offset: offset},
		})
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if len(out) == target {
				break
			}
			out = append(out, entry.UserID)
		}
		if len(entries) < leaderboardPageSize {
			break
		}
	}
	return out, nil
}
