package command

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"

	"github.com/goliatone/go-gamification/pkg/rules"
	"github.com/goliatone/go-gamification/pkg/types"
)

// BadgeCheckInput evaluates a user against the active catalog. Scope narrows
// the requirement kinds considered; the zero value checks every kind.
type BadgeCheckInput struct {
	UserID uuid.UUID
	Scope  rules.BadgeScope
	Result *[]types.UserBadge
}

// Type implements gocommand.Message.
func (BadgeCheckInput) Type() string {
	return "command.badge.check"
}

// Validate implements gocommand.Message.
func (input BadgeCheckInput) Validate() error {
	if input.UserID == uuid.Nil {
		return ErrUserIDRequired
	}
	if _, ok := rules.ParseBadgeScope(string(input.Scope)); !ok {
		return ErrInvalidBadgeScope
	}
	return nil
}

// BadgeCheckCommand awards every eligible badge the user does not own.
type BadgeCheckCommand struct {
	awarder    badgeAwarder
	activity   types.ActivityRepository
	streaks    types.StreakRepository
	reputation types.ReputationRepository
	logger     types.Logger
}

// NewBadgeCheckCommand constructs the badge evaluator.
func NewBadgeCheckCommand(cfg BadgeCommandConfig) *BadgeCheckCommand {
	return &BadgeCheckCommand{
		awarder:    newBadgeAwarder(cfg),
		activity:   cfg.Activity,
		streaks:    cfg.Streaks,
		reputation: cfg.Reputation,
		logger:     safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[BadgeCheckInput] = (*BadgeCheckCommand)(nil)

// Execute evaluates the scoped badges. Kinds without a per-event predicate
// are skipped, and unknown kinds are logged.
func (c *BadgeCheckCommand) Execute(ctx context.Context, input BadgeCheckInput) error {
	if c.awarder.repo == nil {
		return types.ErrMissingBadgeRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}
	scope, _ := rules.ParseBadgeScope(string(input.Scope))

	badges, err := c.awarder.repo.ListBadges(ctx, types.BadgeFilter{
		ActiveOnly: true,
		Kinds:      rules.ScopeKinds(scope),
	})
	if err != nil {
		return err
	}
	owned, err := c.awarder.repo.OwnedBadgeIDs(ctx, input.UserID)
	if err != nil {
		return err
	}

	facts := newBadgeFacts(input.UserID, c.activity, c.streaks, c.reputation)
	awarded := make([]types.UserBadge, 0)
	for _, badge := range badges {
		if _, ok := owned[badge.ID]; ok {
			continue
		}
		if badge.RequirementKind == types.RequirementTopPercentWeekly {
			continue
		}
		if !rules.Evaluable(badge.RequirementKind) {
			c.logger.Warn("badge requirement kind unknown",
				"badge", badge.Name,
				"kind", string(badge.RequirementKind),
			)
			continue
		}
		current, err := facts.load(ctx, badge.RequirementKind)
		if err != nil {
			return err
		}
		eligible, _ := rules.Evaluate(badge.RequirementKind, current, badge.ThresholdValue)
		if !eligible {
			continue
		}
		award, created, err := c.awarder.award(ctx, input.UserID, badge)
		if err != nil {
			return err
		}
		if created && award != nil {
			awarded = append(awarded, *award)
		}
	}
	if input.Result != nil {
		*input.Result = awarded
	}
	return nil
}
