package command

import (
	"context"
	"fmt"
	"time"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-gamification/pkg/rules"
	"github.com/goliatone/go-gamification/pkg/types"
)

// StreakSweepInput triggers one streak sweep.
type StreakSweepInput struct {
	Result *SweepResult
}

// StreakRiskSweepInput triggers the at-risk sweep.
type StreakRiskSweepInput StreakSweepInput

// Type implements gocommand.Message.
func (StreakRiskSweepInput) Type() string {
	return "command.streak.risk_sweep"
}

// Validate implements gocommand.Message.
func (StreakRiskSweepInput) Validate() error { return nil }

// StreakBreakSweepInput triggers the break sweep.
type StreakBreakSweepInput StreakSweepInput

// Type implements gocommand.Message.
func (StreakBreakSweepInput) Type() string {
	return "command.streak.break_sweep"
}

// Validate implements gocommand.Message.
func (StreakBreakSweepInput) Validate() error { return nil }

type streakSweeper struct {
	repo      types.StreakRepository
	pub       types.Publisher
	clock     types.Clock
	logger    types.Logger
	loc       *time.Location
	batchSize int
}

func newStreakSweeper(cfg StreakCommandConfig) streakSweeper {
	return streakSweeper{
		repo:      cfg.Repository,
		pub:       safePublisher(cfg.Publisher),
		clock:     safeClock(cfg.Clock),
		logger:    safeLogger(cfg.Logger),
		loc:       safeLocation(cfg.Location),
		batchSize: safeBatchSize(cfg.BatchSize),
	}
}

// collect reads every candidate page before any row is modified so resets
// cannot shift the offsets.
func (s streakSweeper) collect(ctx context.Context, filter types.StreakFilter) ([]types.StreakState, error) {
	var out []types.StreakState
	for offset := 0; ; offset += s.batchSize {
		filter.Pagination = types.Pagination{Limit: s.batchSize, Offset: offset}
		page, err := s.repo.ListStreaks(ctx, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < s.batchSize {
			return out, nil
		}
	}
}

// StreakRiskSweepCommand emits at-risk signals for streaks whose last active
// day was yesterday and that have not been extended today.
type StreakRiskSweepCommand struct {
	streakSweeper
}

// NewStreakRiskSweepCommand constructs the at-risk sweep.
func NewStreakRiskSweepCommand(cfg StreakCommandConfig) *StreakRiskSweepCommand {
	return &StreakRiskSweepCommand{streakSweeper: newStreakSweeper(cfg)}
}

var _ gocommand.Commander[StreakRiskSweepInput] = (*StreakRiskSweepCommand)(nil)

// Execute scans yesterday's active streaks and signals the ones at risk.
func (c *StreakRiskSweepCommand) Execute(ctx context.Context, input StreakRiskSweepInput) error {
	if c.repo == nil {
		return types.ErrMissingStreakRepository
	}
	current := now(c.clock)
	today := rules.DayStart(current, c.loc)
	from := today.AddDate(0, 0, -1).UTC()
	to := today.UTC()
	candidates, err := c.collect(ctx, types.StreakFilter{
		LastActivityFrom: &from,
		LastActivityTo:   &to,
		MinCurrent:       1,
	})
	if err != nil {
		return err
	}

	var result SweepResult
	for _, state := range candidates {
		result.Processed++
		hours, atRisk := rules.StreakAtRisk(state, current, c.loc)
		if !atRisk {
			result.Skipped++
			continue
		}
		result.Affected++
		emitSignal(ctx, c.pub, c.logger, types.StreakAtRiskSignal{
			UserID:        state.UserID,
			CurrentStreak: state.CurrentStreak,
			HoursSince:    hours,
		})
	}
	c.logger.Info("streak risk sweep finished",
		"processed", result.Processed,
		"at_risk", result.Affected,
	)
	if input.Result != nil {
		*input.Result = result
	}
	return nil
}

// StreakBreakSweepCommand resets streaks that missed a full day.
type StreakBreakSweepCommand struct {
	streakSweeper
}

// NewStreakBreakSweepCommand constructs the break sweep.
func NewStreakBreakSweepCommand(cfg StreakCommandConfig) *StreakBreakSweepCommand {
	return &StreakBreakSweepCommand{streakSweeper: newStreakSweeper(cfg)}
}

var _ gocommand.Commander[StreakBreakSweepInput] = (*StreakBreakSweepCommand)(nil)

// Execute resets every positive streak whose last active day is before
// yesterday and emits a broken signal with the previous length.
func (c *StreakBreakSweepCommand) Execute(ctx context.Context, input StreakBreakSweepInput) error {
	if c.repo == nil {
		return types.ErrMissingStreakRepository
	}
	current := now(c.clock)
	before := rules.DayStart(current, c.loc).AddDate(0, 0, -1).UTC()
	candidates, err := c.collect(ctx, types.StreakFilter{
		LastActivityTo: &before,
		MinCurrent:     1,
	})
	if err != nil {
		return err
	}

	var result SweepResult
	for _, state := range candidates {
		result.Processed++
		if !rules.StreakBroken(state, current, c.loc) {
			result.Skipped++
			continue
		}
		previous := state.CurrentStreak
		state.CurrentStreak = 0
		state.UpdatedAt = current
		if _, err := c.repo.SaveStreak(ctx, state); err != nil {
			c.logger.Error("streak reset failed", err, "user_id", state.UserID)
			result.fail(fmt.Errorf("streak %s: %w", state.UserID, err))
			continue
		}
		result.Affected++
		emitSignal(ctx, c.pub, c.logger, types.StreakBrokenSignal{
			UserID:         state.UserID,
			PreviousStreak: previous,
		})
	}
	c.logger.Info("streak break sweep finished",
		"processed", result.Processed,
		"broken", result.Affected,
		"failed", result.Failed,
	)
	if input.Result != nil {
		*input.Result = result
	}
	return nil
}
