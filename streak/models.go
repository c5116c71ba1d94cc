package streak

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-gamification/pkg/types"
)

// Record models the gamification_streaks row.
type Record struct {
	bun.BaseModel `bun:"table:gamification_streaks"`

	UserID           uuid.UUID  `bun:"user_id,pk,type:uuid"`
	CurrentStreak    int        `bun:"current_streak"`
	LongestStreak    int        `bun:"longest_streak"`
	LastActivityDate *time.Time `bun:"last_activity_date"`
	LastActivityAt   *time.Time `bun:"last_activity_at"`
	UpdatedAt        time.Time  `bun:"updated_at"`
}

func fromDomain(state types.StreakState) *Record {
	return &Record{
		UserID:           state.UserID,
		CurrentStreak:    state.CurrentStreak,
		LongestStreak:    state.LongestStreak,
		LastActivityDate: utcPtr(state.LastActivityDate),
		LastActivityAt:   utcPtr(state.LastActivityAt),
		UpdatedAt:        state.UpdatedAt,
	}
}

func toDomain(rec *Record) *types.StreakState {
	if rec == nil {
		return nil
	}
	return &types.StreakState{
		UserID:           rec.UserID,
		CurrentStreak:    rec.CurrentStreak,
		LongestStreak:    rec.LongestStreak,
		LastActivityDate: utcPtr(rec.LastActivityDate),
		LastActivityAt:   utcPtr(rec.LastActivityAt),
		UpdatedAt:        rec.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.UTC()
	return &v
}
