package reputation

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-gamification/pkg/types"
)

// Record models the gamification_reputation row.
type Record struct {
	bun.BaseModel `bun:"table:gamification_reputation"`

	UserID                uuid.UUID  `bun:"user_id,pk,type:uuid"`
	TotalPoints           int        `bun:"total_points"`
	WeeklyPoints          int        `bun:"weekly_points"`
	WeeklyPointsLastReset *time.Time `bun:"weekly_points_last_reset"`
	UpdatedAt             time.Time  `bun:"updated_at"`
}

// EventRecord models one gamification_reputation_events ledger row.
type EventRecord struct {
	bun.BaseModel `bun:"table:gamification_reputation_events"`

	ID         uuid.UUID `bun:",pk,type:uuid"`
	UserID     uuid.UUID `bun:"user_id,type:uuid"`
	Kind       string    `bun:"kind"`
	Delta      int       `bun:"delta"`
	Reason     string    `bun:"reason"`
	TotalAfter int       `bun:"total_after"`
	CreatedAt  time.Time `bun:"created_at"`
}

func fromDomain(state types.ReputationState) *Record {
	rec := &Record{
		UserID:       state.UserID,
		TotalPoints:  max(state.TotalPoints, 0),
		WeeklyPoints: max(state.WeeklyPoints, 0),
		UpdatedAt:    state.UpdatedAt,
	}
	if state.WeeklyPointsLastReset != nil {
		reset := state.WeeklyPointsLastReset.UTC()
		rec.WeeklyPointsLastReset = &reset
	}
	return rec
}

func toDomain(rec *Record) *types.ReputationState {
	if rec == nil {
		return nil
	}
	state := &types.ReputationState{
		UserID:       rec.UserID,
		TotalPoints:  rec.TotalPoints,
		WeeklyPoints: rec.WeeklyPoints,
		UpdatedAt:    rec.UpdatedAt.UTC(),
	}
	if rec.WeeklyPointsLastReset != nil && !rec.WeeklyPointsLastReset.IsZero() {
		reset := rec.WeeklyPointsLastReset.UTC()
		state.WeeklyPointsLastReset = &reset
	}
	return state
}

func fromEvent(event types.ReputationEvent) *EventRecord {
	return &EventRecord{
		ID:         event.ID,
		UserID:     event.UserID,
		Kind:       string(event.Kind),
		Delta:      event.Delta,
		Reason:     event.Reason,
		TotalAfter: event.TotalAfter,
		CreatedAt:  event.CreatedAt,
	}
}
