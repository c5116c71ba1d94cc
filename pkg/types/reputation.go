package types

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReputationState stores lifetime and weekly points for a user. Totals are
// never negative.
type ReputationState struct {
	UserID                uuid.UUID
	TotalPoints           int
	WeeklyPoints          int
	WeeklyPointsLastReset *time.Time
	UpdatedAt             time.Time
}

// ReputationEventKind classifies ledger rows.
type ReputationEventKind string

const (
	ReputationEventAward       ReputationEventKind = "award"
	ReputationEventStreakBonus ReputationEventKind = "streak_bonus"
	ReputationEventDecay       ReputationEventKind = "decay"
)

// ReputationEvent is one signed change applied to a reputation total.
type ReputationEvent struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Kind       ReputationEventKind
	Delta      int
	Reason     string
	TotalAfter int
	CreatedAt  time.Time
}

// ReputationEventFilter narrows ledger aggregates.
type ReputationEventFilter struct {
	UserID uuid.UUID
	Kinds  []ReputationEventKind
	Since  *time.Time
	Until  *time.Time
}

// ReputationTier buckets reputation totals.
type ReputationTier string

const (
	TierBronze   ReputationTier = "BRONZE"
	TierSilver   ReputationTier = "SILVER"
	TierGold     ReputationTier = "GOLD"
	TierPlatinum ReputationTier = "PLATINUM"
)

// TrendDirection summarizes week over week movement.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendSteady    TrendDirection = "steady"
)

// ReputationTrend compares the net ledger delta of the trailing week with
// the week before it.
type ReputationTrend struct {
	WeekDelta         int
	PreviousWeekDelta int
	Direction         TrendDirection
}

// ReputationRepository persists reputation state and its ledger.
// GetReputation returns nil, nil when the user has no record yet.
type ReputationRepository interface {
	GetReputation(ctx context.Context, userID uuid.UUID) (*ReputationState, error)
	SaveReputation(ctx context.Context, state ReputationState) (*ReputationState, error)
	ListReputations(ctx context.Context, page Pagination) ([]ReputationState, int, error)
	TopReputations(ctx context.Context, limit int) ([]ReputationState, error)
	AppendEvent(ctx context.Context, event ReputationEvent) error
	SumEvents(ctx context.Context, filter ReputationEventFilter) (int, error)
	NetPointsByUser(ctx context.Context, since time.Time) ([]UserScore, error)
}
