package command

import (
	"context"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"

	"github.com/goliatone/go-gamification/pkg/rules"
	"github.com/goliatone/go-gamification/pkg/types"
)

// ReputationAwardInput awards the points of one activity.
type ReputationAwardInput struct {
	UserID       uuid.UUID
	ActivityType types.ActivityType
	Result       *types.ReputationState
}

// Type implements gocommand.Message.
func (ReputationAwardInput) Type() string {
	return "command.reputation.award"
}

// Validate implements gocommand.Message.
func (input ReputationAwardInput) Validate() error {
	if input.UserID == uuid.Nil {
		return ErrUserIDRequired
	}
	if input.ActivityType == "" {
		return ErrActivityTypeRequired
	}
	if !input.ActivityType.Valid() {
		return types.ErrInvalidActivityType
	}
	return nil
}

// ReputationAwardCommand adds activity points to a user's reputation.
type ReputationAwardCommand struct {
	ledger reputationLedger
}

// NewReputationAwardCommand constructs the award handler.
func NewReputationAwardCommand(cfg ReputationCommandConfig) *ReputationAwardCommand {
	return &ReputationAwardCommand{ledger: newReputationLedger(cfg)}
}

var _ gocommand.Commander[ReputationAwardInput] = (*ReputationAwardCommand)(nil)

// Execute applies the points table entry for the activity.
func (c *ReputationAwardCommand) Execute(ctx context.Context, input ReputationAwardInput) error {
	if c.ledger.repo == nil {
		return types.ErrMissingReputationRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}
	points := rules.PointsFor(input.ActivityType)
	if points == 0 {
		return nil
	}
	state, err := c.ledger.apply(ctx, pointChange{
		userID: input.UserID,
		delta:  points,
		kind:   types.ReputationEventAward,
		reason: string(input.ActivityType),
	})
	if err != nil {
		return err
	}
	if input.Result != nil {
		*input.Result = state
	}
	return nil
}

// StreakBonusInput awards the bonus for a streak length.
type StreakBonusInput struct {
	UserID        uuid.UUID
	CurrentStreak int
	Result        *types.ReputationState
	// Bonus receives the points applied, zero when the streak earns none.
	Bonus *int
}

// Type implements gocommand.Message.
func (StreakBonusInput) Type() string {
	return "command.reputation.streak_bonus"
}

// Validate implements gocommand.Message.
func (input StreakBonusInput) Validate() error {
	if input.UserID == uuid.Nil {
		return ErrUserIDRequired
	}
	if input.CurrentStreak <= 0 {
		return ErrStreakLengthRequired
	}
	return nil
}

// StreakBonusCommand applies the streak bonus table.
type StreakBonusCommand struct {
	ledger reputationLedger
}

// NewStreakBonusCommand constructs the bonus handler.
func NewStreakBonusCommand(cfg ReputationCommandConfig) *StreakBonusCommand {
	return &StreakBonusCommand{ledger: newReputationLedger(cfg)}
}

var _ gocommand.Commander[StreakBonusInput] = (*StreakBonusCommand)(nil)

// Execute awards the highest bonus step reached by the streak. Streaks below
// the first step are a no-op.
func (c *StreakBonusCommand) Execute(ctx context.Context, input StreakBonusInput) error {
	if c.ledger.repo == nil {
		return types.ErrMissingReputationRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}
	bonus := rules.StreakBonusFor(input.CurrentStreak)
	if input.Bonus != nil {
		*input.Bonus = bonus
	}
	if bonus == 0 {
		return nil
	}
	state, err := c.ledger.apply(ctx, pointChange{
		userID: input.UserID,
		delta:  bonus,
		kind:   types.ReputationEventStreakBonus,
		reason: fmt.Sprintf("streak_%d", input.CurrentStreak),
	})
	if err != nil {
		return err
	}
	if input.Result != nil {
		*input.Result = state
	}
	return nil
}
