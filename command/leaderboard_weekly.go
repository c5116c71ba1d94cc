package command

import (
	"context"
	"fmt"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-gamification/pkg/rules"
	"github.com/goliatone/go-gamification/pkg/types"
)

// LeaderboardNotifyInput triggers the weekly significant change pass.
type LeaderboardNotifyInput struct {
	Result *SweepResult
}

// Type implements gocommand.Message.
func (LeaderboardNotifyInput) Type() string {
	return "command.leaderboard.notify"
}

// Validate implements gocommand.Message.
func (LeaderboardNotifyInput) Validate() error { return nil }

// LeaderboardNotifyCommand compares every entry with its weekly snapshot and
// signals significant changes.
type LeaderboardNotifyCommand struct {
	repo   types.LeaderboardRepository
	pub    types.Publisher
	logger types.Logger
}

// NewLeaderboardNotifyCommand constructs the notifier.
func NewLeaderboardNotifyCommand(cfg LeaderboardCommandConfig) *LeaderboardNotifyCommand {
	return &LeaderboardNotifyCommand{
		repo:   cfg.Repository,
		pub:    safePublisher(cfg.Publisher),
		logger: safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[LeaderboardNotifyInput] = (*LeaderboardNotifyCommand)(nil)

// Execute emits one position change signal per significant movement.
func (c *LeaderboardNotifyCommand) Execute(ctx context.Context, input LeaderboardNotifyInput) error {
	if c.repo == nil {
		return types.ErrMissingLeaderboardRepository
	}
	var result SweepResult
	for _, board := range AllBoards() {
		entries, err := c.repo.ListAllEntries(ctx, board.Category, board.Timeframe)
		if err != nil {
			c.logger.Error("leaderboard notify failed", err,
				"category", string(board.Category),
				"timeframe", string(board.Timeframe),
			)
			result.fail(fmt.Errorf("%s/%s: %w", board.Category, board.Timeframe, err))
			continue
		}
		for _, entry := range entries {
			result.Processed++
			rank := 0
			if entry.Score > 0 {
				rank = entry.Rank
			}
			change, ok := rules.SignificantChange(entry.SnapshotRank, rank)
			if !ok {
				result.Skipped++
				continue
			}
			result.Affected++
			emitSignal(ctx, c.pub, c.logger, types.LeaderboardChangeSignal{
				UserID:       entry.UserID,
				Category:     board.Category,
				Timeframe:    board.Timeframe,
				Kind:         change.Kind,
				PreviousRank: change.Previous,
				Rank:         change.Rank,
				Band:         change.Band,
			})
		}
	}
	c.logger.Info("leaderboard notify finished",
		"entries", result.Processed,
		"signals", result.Affected,
		"failed", result.Failed,
	)
	if input.Result != nil {
		*input.Result = result
	}
	return nil
}

// LeaderboardSnapshotInput triggers the weekly snapshot pass.
type LeaderboardSnapshotInput struct {
	Result *SweepResult
}

// Type implements gocommand.Message.
func (LeaderboardSnapshotInput) Type() string {
	return "command.leaderboard.snapshot"
}

// Validate implements gocommand.Message.
func (LeaderboardSnapshotInput) Validate() error { return nil }

// LeaderboardSnapshotCommand copies current ranks into the weekly baseline.
type LeaderboardSnapshotCommand struct {
	repo   types.LeaderboardRepository
	logger types.Logger
}

// NewLeaderboardSnapshotCommand constructs the snapshot pass.
func NewLeaderboardSnapshotCommand(cfg LeaderboardCommandConfig) *LeaderboardSnapshotCommand {
	return &LeaderboardSnapshotCommand{
		repo:   cfg.Repository,
		logger: safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[LeaderboardSnapshotInput] = (*LeaderboardSnapshotCommand)(nil)

// Execute snapshots every board; unranked rows get a nil baseline.
func (c *LeaderboardSnapshotCommand) Execute(ctx context.Context, input LeaderboardSnapshotInput) error {
	if c.repo == nil {
		return types.ErrMissingLeaderboardRepository
	}
	var result SweepResult
	for _, board := range AllBoards() {
		result.Processed++
		rows, err := c.repo.SnapshotRanks(ctx, board.Category, board.Timeframe)
		if err != nil {
			c.logger.Error("leaderboard snapshot failed", err,
				"category", string(board.Category),
				"timeframe", string(board.Timeframe),
			)
			result.fail(fmt.Errorf("%s/%s: %w", board.Category, board.Timeframe, err))
			continue
		}
		result.Affected += rows
	}
	c.logger.Info("leaderboard snapshot finished", "boards", result.Processed, "rows", result.Affected)
	if input.Result != nil {
		*input.Result = result
	}
	return nil
}
