package command

import (
	"context"
	"time"

	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"

	"github.com/goliatone/go-gamification/pkg/rules"
	"github.com/goliatone/go-gamification/pkg/types"
)

// StreakCommandConfig wires dependencies for streak commands.
type StreakCommandConfig struct {
	Repository types.StreakRepository
	Publisher  types.Publisher
	Clock      types.Clock
	Logger     types.Logger
	// Location defines calendar days. Defaults to UTC.
	Location  *time.Location
	BatchSize int
}

// StreakRecordInput records a qualifying activity for the streak tracker.
type StreakRecordInput struct {
	UserID     uuid.UUID
	OccurredAt time.Time
	Result     *types.StreakState
	Transition *rules.StreakTransition
}

// Type implements gocommand.Message.
func (StreakRecordInput) Type() string {
	return "command.streak.record"
}

// Validate implements gocommand.Message.
func (input StreakRecordInput) Validate() error {
	if input.UserID == uuid.Nil {
		return ErrUserIDRequired
	}
	return nil
}

// StreakRecordCommand advances a user's streak.
type StreakRecordCommand struct {
	repo   types.StreakRepository
	pub    types.Publisher
	clock  types.Clock
	logger types.Logger
	loc    *time.Location
}

// NewStreakRecordCommand constructs the streak recorder.
func NewStreakRecordCommand(cfg StreakCommandConfig) *StreakRecordCommand {
	return &StreakRecordCommand{
		repo:   cfg.Repository,
		pub:    safePublisher(cfg.Publisher),
		clock:  safeClock(cfg.Clock),
		logger: safeLogger(cfg.Logger),
		loc:    safeLocation(cfg.Location),
	}
}

var _ gocommand.Commander[StreakRecordInput] = (*StreakRecordCommand)(nil)

// Execute loads or creates the streak, applies the day transition and
// persists it. A milestone signal fires when the new length lands on one.
func (c *StreakRecordCommand) Execute(ctx context.Context, input StreakRecordInput) error {
	if c.repo == nil {
		return types.ErrMissingStreakRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}
	at := input.OccurredAt
	if at.IsZero() {
		at = now(c.clock)
	}

	current := types.StreakState{UserID: input.UserID}
	existing, err := c.repo.GetStreak(ctx, input.UserID)
	if err != nil {
		return err
	}
	if existing != nil {
		current = *existing
	}

	next, transition := rules.AdvanceStreak(current, at, c.loc)
	next.UpdatedAt = now(c.clock)
	saved, err := c.repo.SaveStreak(ctx, next)
	if err != nil {
		return err
	}
	if saved != nil {
		next = *saved
	}

	if transition.MilestoneReached() {
		emitSignal(ctx, c.pub, c.logger, types.StreakMilestoneSignal{
			UserID:    input.UserID,
			Milestone: transition.Milestone,
		})
	}
	if input.Result != nil {
		*input.Result = next
	}
	if input.Transition != nil {
		*input.Transition = transition
	}
	return nil
}
