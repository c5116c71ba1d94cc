package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"

	"github.com/goliatone/go-gamification/pkg/rules"
	"github.com/goliatone/go-gamification/pkg/types"
)

// LeaderboardInvalidator drops cached leaderboard reads after a recompute.
type LeaderboardInvalidator interface {
	InvalidateLeaderboards()
}

// LeaderboardCommandConfig wires dependencies for leaderboard commands.
type LeaderboardCommandConfig struct {
	Repository  types.LeaderboardRepository
	Activity    types.ActivityRepository
	Reputation  types.ReputationRepository
	Publisher   types.Publisher
	Clock       types.Clock
	Logger      types.Logger
	Invalidator LeaderboardInvalidator
	BatchSize   int
}

// Board names one category and timeframe pair.
type Board struct {
	Category  types.LeaderboardCategory
	Timeframe types.LeaderboardTimeframe
}

// AllBoards lists every category and timeframe combination.
func AllBoards() []Board {
	boards := make([]Board, 0, len(types.LeaderboardCategories())*len(types.LeaderboardTimeframes()))
	for _, category := range types.LeaderboardCategories() {
		for _, timeframe := range types.LeaderboardTimeframes() {
			boards = append(boards, Board{Category: category, Timeframe: timeframe})
		}
	}
	return boards
}

// boardsFor expands optional category and timeframe selectors.
func boardsFor(category types.LeaderboardCategory, timeframe types.LeaderboardTimeframe) []Board {
	var out []Board
	for _, board := range AllBoards() {
		if category != "" && board.Category != category {
			continue
		}
		if timeframe != "" && board.Timeframe != timeframe {
			continue
		}
		out = append(out, board)
	}
	return out
}

func validateBoardSelector(category types.LeaderboardCategory, timeframe types.LeaderboardTimeframe) error {
	if category != "" {
		if _, err := types.ParseCategory(string(category)); err != nil {
			return err
		}
	}
	if timeframe != "" {
		if _, err := types.ParseTimeframe(string(timeframe)); err != nil {
			return err
		}
	}
	return nil
}

// RecomputeResult summarizes a recompute run.
type RecomputeResult struct {
	Boards   int
	Ranked   int
	Improved int
	Errors   []error
}

// Err joins the per-board failures.
func (r RecomputeResult) Err() error {
	return errors.Join(r.Errors...)
}

// LeaderboardRecomputeInput selects the boards to rebuild. Empty selectors
// match every value.
type LeaderboardRecomputeInput struct {
	Category  types.LeaderboardCategory
	Timeframe types.LeaderboardTimeframe
	Result    *RecomputeResult
}

// Type implements gocommand.Message.
func (LeaderboardRecomputeInput) Type() string {
	return "command.leaderboard.recompute"
}

// Validate implements gocommand.Message.
func (input LeaderboardRecomputeInput) Validate() error {
	return validateBoardSelector(input.Category, input.Timeframe)
}

// LeaderboardRecomputeCommand rebuilds ranked entries from raw scores.
type LeaderboardRecomputeCommand struct {
	repo        types.LeaderboardRepository
	scores      leaderboardScores
	pub         types.Publisher
	clock       types.Clock
	logger      types.Logger
	invalidator LeaderboardInvalidator
}

// NewLeaderboardRecomputeCommand constructs the recompute handler.
func NewLeaderboardRecomputeCommand(cfg LeaderboardCommandConfig) *LeaderboardRecomputeCommand {
	return &LeaderboardRecomputeCommand{
		repo: cfg.Repository,
		scores: leaderboardScores{
			activity:   cfg.Activity,
			reputation: cfg.Reputation,
			batchSize:  safeBatchSize(cfg.BatchSize),
		},
		pub:         safePublisher(cfg.Publisher),
		clock:       safeClock(cfg.Clock),
		logger:      safeLogger(cfg.Logger),
		invalidator: cfg.Invalidator,
	}
}

var _ gocommand.Commander[LeaderboardRecomputeInput] = (*LeaderboardRecomputeCommand)(nil)

// Execute recomputes the selected boards. A failing board is recorded and the
// remaining boards still run.
func (c *LeaderboardRecomputeCommand) Execute(ctx context.Context, input LeaderboardRecomputeInput) error {
	if c.repo == nil {
		return types.ErrMissingLeaderboardRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}
	at := now(c.clock)

	var result RecomputeResult
	for _, board := range boardsFor(input.Category, input.Timeframe) {
		ranked, improved, err := c.recompute(ctx, board, at)
		if err != nil {
			var unsupported errUnsupportedBoard
			if errors.As(err, &unsupported) {
				c.logger.Warn("leaderboard board skipped",
					"category", string(board.Category),
					"timeframe", string(board.Timeframe),
				)
				continue
			}
			c.logger.Error("leaderboard recompute failed", err,
				"category", string(board.Category),
				"timeframe", string(board.Timeframe),
			)
			result.Errors = append(result.Errors, fmt.Errorf("%s/%s: %w", board.Category, board.Timeframe, err))
			continue
		}
		result.Boards++
		result.Ranked += ranked
		result.Improved += improved
	}
	if c.invalidator != nil {
		c.invalidator.InvalidateLeaderboards()
	}

	c.logger.Info("leaderboard recompute finished",
		"boards", result.Boards,
		"ranked", result.Ranked,
		"improved", result.Improved,
		"failed", len(result.Errors),
	)
	if input.Result != nil {
		*input.Result = result
	}
	return nil
}

func (c *LeaderboardRecomputeCommand) recompute(ctx context.Context, board Board, at time.Time) (int, int, error) {
	raw, err := c.scores.scores(ctx, board.Category, board.Timeframe, at)
	if err != nil {
		return 0, 0, err
	}
	ranked := rules.RankScores(raw)

	current, err := c.repo.ListAllEntries(ctx, board.Category, board.Timeframe)
	if err != nil {
		return 0, 0, err
	}
	existing := make(map[uuid.UUID]types.LeaderboardEntry, len(current))
	for _, entry := range current {
		existing[entry.UserID] = entry
	}

	entries := make([]types.LeaderboardEntry, 0, len(ranked)+len(current))
	var improvements []types.LeaderboardChangeSignal
	for _, row := range ranked {
		entry := types.LeaderboardEntry{
			UserID:    row.UserID,
			Category:  board.Category,
			Timeframe: board.Timeframe,
			Rank:      row.Rank,
			Score:     row.Score,
		}
		if prior, ok := existing[row.UserID]; ok {
			entry.ID = prior.ID
			entry.PreviousRank = carriedRank(prior)
			entry.SnapshotRank = prior.SnapshotRank
			if rules.RankImproved(entry.PreviousRank, row.Rank) {
				improvements = append(improvements, types.LeaderboardChangeSignal{
					UserID:       row.UserID,
					Category:     board.Category,
					Timeframe:    board.Timeframe,
					Kind:         types.PositionImproved,
					PreviousRank: *entry.PreviousRank,
					Rank:         row.Rank,
				})
			}
			delete(existing, row.UserID)
		}
		entries = append(entries, entry)
	}

	// users that fell off the board keep a zero score row so their
	// previous rank survives until they rank again.
	dropRank := len(ranked) + 1
	for _, prior := range current {
		if _, ok := existing[prior.UserID]; !ok {
			continue
		}
		entries = append(entries, types.LeaderboardEntry{
			ID:           prior.ID,
			UserID:       prior.UserID,
			Category:     board.Category,
			Timeframe:    board.Timeframe,
			Rank:         dropRank,
			Score:        0,
			PreviousRank: carriedRank(prior),
			SnapshotRank: prior.SnapshotRank,
		})
	}

	if err := c.repo.UpsertEntries(ctx, entries); err != nil {
		return 0, 0, err
	}
	for _, signal := range improvements {
		emitSignal(ctx, c.pub, c.logger, signal)
	}
	return len(ranked), len(improvements), nil
}

// carriedRank is the rank to remember as previous: the live rank of a ranked
// row, or the remembered one of a row that already dropped out.
func carriedRank(prior types.LeaderboardEntry) *int {
	if prior.Score > 0 {
		rank := prior.Rank
		return &rank
	}
	if prior.PreviousRank == nil {
		return nil
	}
	rank := *prior.PreviousRank
	return &rank
}
