package command

import (
	"context"
	"time"

	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"

	"github.com/goliatone/go-gamification/pkg/types"
)

// BadgeCommandConfig wires dependencies for badge commands.
type BadgeCommandConfig struct {
	Repository  types.BadgeRepository
	Activity    types.ActivityRepository
	Streaks     types.StreakRepository
	Reputation  types.ReputationRepository
	Leaderboard types.LeaderboardRepository
	Publisher   types.Publisher
	Clock       types.Clock
	IDGen       types.IDGenerator
	Logger      types.Logger
	// Concurrency bounds the periodic sweep workers. Defaults to 4.
	Concurrency int
	// ActiveWindow selects the users evaluated by the sweep. Defaults to one hour.
	ActiveWindow time.Duration
}

const (
	defaultSweepConcurrency = 4
	defaultActiveWindow     = time.Hour
)

// badgeAwarder grants badges idempotently and signals new awards.
type badgeAwarder struct {
	repo   types.BadgeRepository
	pub    types.Publisher
	clock  types.Clock
	idGen  types.IDGenerator
	logger types.Logger
}

func newBadgeAwarder(cfg BadgeCommandConfig) badgeAwarder {
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}
	return badgeAwarder{
		repo:   cfg.Repository,
		pub:    safePublisher(cfg.Publisher),
		clock:  safeClock(cfg.Clock),
		idGen:  idGen,
		logger: safeLogger(cfg.Logger),
	}
}

// award returns the user badge and whether this call created it. The signal
// fires only for new rows.
func (a badgeAwarder) award(ctx context.Context, userID uuid.UUID, badge types.Badge) (*types.UserBadge, bool, error) {
	award, created, err := a.repo.CreateUserBadge(ctx, types.UserBadge{
		ID:          a.idGen.UUID(),
		UserID:      userID,
		BadgeID:     badge.ID,
		EarnedAt:    now(a.clock),
		IsDisplayed: true,
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		a.logger.Info("badge awarded", "user_id", userID, "badge", badge.Name)
		emitSignal(ctx, a.pub, a.logger, types.BadgeEarnedSignal{
			UserID:    userID,
			BadgeID:   badge.ID,
			BadgeName: badge.Name,
		})
	}
	return award, created, nil
}

// BadgeAwardInput grants one badge manually.
type BadgeAwardInput struct {
	UserID  uuid.UUID
	BadgeID uuid.UUID
	Result  *types.UserBadge
	// Created reports whether this call granted the badge.
	Created *bool
}

// Type implements gocommand.Message.
func (BadgeAwardInput) Type() string {
	return "command.badge.award"
}

// Validate implements gocommand.Message.
func (input BadgeAwardInput) Validate() error {
	if input.UserID == uuid.Nil {
		return ErrUserIDRequired
	}
	if input.BadgeID == uuid.Nil {
		return ErrBadgeIDRequired
	}
	return nil
}

// BadgeAwardCommand grants a badge regardless of its requirement.
type BadgeAwardCommand struct {
	awarder badgeAwarder
}

// NewBadgeAwardCommand constructs the manual award handler.
func NewBadgeAwardCommand(cfg BadgeCommandConfig) *BadgeAwardCommand {
	return &BadgeAwardCommand{awarder: newBadgeAwarder(cfg)}
}

var _ gocommand.Commander[BadgeAwardInput] = (*BadgeAwardCommand)(nil)

// Execute awards the badge. Awarding an owned badge returns the existing row.
func (c *BadgeAwardCommand) Execute(ctx context.Context, input BadgeAwardInput) error {
	if c.awarder.repo == nil {
		return types.ErrMissingBadgeRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}
	badge, err := c.awarder.repo.GetBadge(ctx, input.BadgeID)
	if err != nil {
		return err
	}
	if badge == nil {
		return ErrBadgeNotFound
	}
	award, created, err := c.awarder.award(ctx, input.UserID, *badge)
	if err != nil {
		return err
	}
	if input.Result != nil && award != nil {
		*input.Result = *award
	}
	if input.Created != nil {
		*input.Created = created
	}
	return nil
}

// BadgeDisplayInput toggles whether an earned badge is shown.
type BadgeDisplayInput struct {
	UserID    uuid.UUID
	BadgeID   uuid.UUID
	Displayed bool
	Result    *types.UserBadge
}

// Type implements gocommand.Message.
func (BadgeDisplayInput) Type() string {
	return "command.badge.display"
}

// Validate implements gocommand.Message.
func (input BadgeDisplayInput) Validate() error {
	if input.UserID == uuid.Nil {
		return ErrUserIDRequired
	}
	if input.BadgeID == uuid.Nil {
		return ErrBadgeIDRequired
	}
	return nil
}

// BadgeDisplayCommand updates the display flag of a user badge.
type BadgeDisplayCommand struct {
	repo types.BadgeRepository
}

// NewBadgeDisplayCommand constructs the display toggle.
func NewBadgeDisplayCommand(cfg BadgeCommandConfig) *BadgeDisplayCommand {
	return &BadgeDisplayCommand{repo: cfg.Repository}
}

var _ gocommand.Commander[BadgeDisplayInput] = (*BadgeDisplayCommand)(nil)

// Execute sets the flag. Badges the user has not earned yield
// types.ErrUserBadgeNotFound.
func (c *BadgeDisplayCommand) Execute(ctx context.Context, input BadgeDisplayInput) error {
	if c.repo == nil {
		return types.ErrMissingBadgeRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}
	updated, err := c.repo.SetDisplayed(ctx, input.UserID, input.BadgeID, input.Displayed)
	if err != nil {
		return err
	}
	if input.Result != nil && updated != nil {
		*input.Result = *updated
	}
	return nil
}
