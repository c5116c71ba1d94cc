package command

import (
	"context"
	"time"

	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"

	"github.com/goliatone/go-gamification/pkg/types"
)

// ActivityCommandConfig wires dependencies for the activity recorder.
type ActivityCommandConfig struct {
	Repository types.ActivityRepository
	Clock      types.Clock
}

// ActivityRecordInput captures one user action.
type ActivityRecordInput struct {
	UserID       uuid.UUID
	ActivityType types.ActivityType
	EntityID     string
	EntityType   string
	TargetUserID uuid.UUID
	OccurredAt   time.Time
	Result       *types.ActivityRecord
}

// Type implements gocommand.Message.
func (ActivityRecordInput) Type() string {
	return "command.activity.record"
}

// Validate implements gocommand.Message.
func (input ActivityRecordInput) Validate() error {
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

// ActivityRecordCommand appends activity rows.
type ActivityRecordCommand struct {
	repo  types.ActivityRepository
	clock types.Clock
}

// NewActivityRecordCommand constructs the recorder.
func NewActivityRecordCommand(cfg ActivityCommandConfig) *ActivityRecordCommand {
	return &ActivityRecordCommand{
		repo:  cfg.Repository,
		clock: safeClock(cfg.Clock),
	}
}

var _ gocommand.Commander[ActivityRecordInput] = (*ActivityRecordCommand)(nil)

// Execute persists the activity, stamping OccurredAt when omitted.
func (c *ActivityRecordCommand) Execute(ctx context.Context, input ActivityRecordInput) error {
	if c.repo == nil {
		return types.ErrMissingActivityRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}
	at := input.OccurredAt
	if at.IsZero() {
		at = now(c.clock)
	}
	record, err := c.repo.AppendActivity(ctx, types.ActivityRecord{
		UserID:       input.UserID,
		Type:         input.ActivityType,
		EntityID:     input.EntityID,
		EntityType:   input.EntityType,
		TargetUserID: input.TargetUserID,
		CreatedAt:    at,
	})
	if err != nil {
		return err
	}
	if input.Result != nil {
		*input.Result = record
	}
	return nil
}
