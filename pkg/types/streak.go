package types

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StreakState tracks consecutive calendar days of activity for one user.
// LastActivityDate is the midnight (in the engine location) of the last day
// with activity; LastActivityAt is the precise time of that activity.
type StreakState struct {
	UserID           uuid.UUID
	CurrentStreak    int
	LongestStreak    int
	LastActivityDate *time.Time
	LastActivityAt   *time.Time
	UpdatedAt        time.Time
}

// StreakFilter narrows streak listings used by the sweeps.
type StreakFilter struct {
	// LastActivityFrom and LastActivityTo bound LastActivityDate (inclusive
	// lower, exclusive upper).
	LastActivityFrom *time.Time
	LastActivityTo   *time.Time
	MinCurrent       int
	Pagination       Pagination
}

// StreakRepository persists streak state. GetStreak returns nil, nil when the
// user has no state yet.
type StreakRepository interface {
	GetStreak(ctx context.Context, userID uuid.UUID) (*StreakState, error)
	SaveStreak(ctx context.Context, state StreakState) (*StreakState, error)
	ListStreaks(ctx context.Context, filter StreakFilter) ([]StreakState, error)
}
