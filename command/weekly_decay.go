package command

import (
	"context"
	"fmt"
	"time"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-gamification/pkg/rules"
	"github.com/goliatone/go-gamification/pkg/types"
)

// WeeklyDecayInput triggers one decay pass over every reputation row.
type WeeklyDecayInput struct {
	Result *SweepResult
}

// Type implements gocommand.Message.
func (WeeklyDecayInput) Type() string {
	return "command.reputation.weekly_decay"
}

// Validate implements gocommand.Message.
func (WeeklyDecayInput) Validate() error { return nil }

// WeeklyDecayCommand reduces weekly and total points of inactive users.
type WeeklyDecayCommand struct {
	repo      types.ReputationRepository
	activity  types.ActivityRepository
	clock     types.Clock
	idGen     types.IDGenerator
	logger    types.Logger
	policy    rules.DecayPolicy
	batchSize int
}

// NewWeeklyDecayCommand constructs the decay pass.
func NewWeeklyDecayCommand(cfg ReputationCommandConfig) *WeeklyDecayCommand {
	policy := cfg.Decay
	if policy.Percent == 0 {
		policy = rules.DefaultDecayPolicy()
	}
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}
	return &WeeklyDecayCommand{
		repo:      cfg.Repository,
		activity:  cfg.Activity,
		clock:     safeClock(cfg.Clock),
		idGen:     idGen,
		logger:    safeLogger(cfg.Logger),
		policy:    policy,
		batchSize: safeBatchSize(cfg.BatchSize),
	}
}

var _ gocommand.Commander[WeeklyDecayInput] = (*WeeklyDecayCommand)(nil)

// Execute pages through reputations. Users with enough trailing activity are
// skipped; per-user failures are counted and the pass continues.
func (c *WeeklyDecayCommand) Execute(ctx context.Context, input WeeklyDecayInput) error {
	if c.repo == nil {
		return types.ErrMissingReputationRepository
	}
	if c.activity == nil {
		return types.ErrMissingActivityRepository
	}
	at := now(c.clock)
	since := at.Add(-rules.WeeklyWindow)

	var result SweepResult
	for offset := 0; ; offset += c.batchSize {
		page, _, err := c.repo.ListReputations(ctx, types.Pagination{Limit: c.batchSize, Offset: offset})
		if err != nil {
			return err
		}
		for _, state := range page {
			result.Processed++
			reduced, err := c.decayOne(ctx, state, since)
			switch {
			case err != nil:
				c.logger.Error("reputation decay failed", err, "user_id", state.UserID)
				result.fail(fmt.Errorf("decay %s: %w", state.UserID, err))
			case reduced:
				result.Affected++
			default:
				result.Skipped++
			}
		}
		if len(page) < c.batchSize {
			break
		}
	}

	c.logger.Info("weekly decay finished",
		"processed", result.Processed,
		"reduced", result.Affected,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	if input.Result != nil {
		*input.Result = result
	}
	return nil
}

func (c *WeeklyDecayCommand) decayOne(ctx context.Context, state types.ReputationState, since time.Time) (bool, error) {
	recent, err := c.activity.CountActivity(ctx, types.ActivityCountFilter{UserID: state.UserID, Since: &since})
	if err != nil {
		return false, err
	}
	if c.policy.Exempt(recent) {
		return false, nil
	}
	next, reduction := c.policy.Decay(state)
	if reduction == 0 {
		return false, nil
	}
	at := now(c.clock)
	next.UpdatedAt = at
	if _, err := c.repo.SaveReputation(ctx, next); err != nil {
		return false, err
	}
	if err := c.repo.AppendEvent(ctx, types.ReputationEvent{
		ID:         c.idGen.UUID(),
		UserID:     state.UserID,
		Kind:       types.ReputationEventDecay,
		Delta:      next.TotalPoints - state.TotalPoints,
		Reason:     "weekly_decay",
		TotalAfter: next.TotalPoints,
		CreatedAt:  at,
	}); err != nil {
		c.logger.Error("reputation decay event not recorded", err,
			"user_id", state.UserID,
			"delta", next.TotalPoints-state.TotalPoints,
		)
	}
	return true, nil
}
