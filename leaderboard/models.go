package leaderboard

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-gamification/pkg/types"
)

// Record models the gamification_leaderboard_entries row.
type Record struct {
	bun.BaseModel `bun:"table:gamification_leaderboard_entries"`

	ID           uuid.UUID `bun:",pk,type:uuid"`
	UserID       uuid.UUID `bun:"user_id,type:uuid"`
	Category     string    `bun:"category"`
	Timeframe    string    `bun:"timeframe"`
	Rank         int       `bun:"rank"`
	Score        int       `bun:"score"`
	PreviousRank *int      `bun:"previous_rank"`
	SnapshotRank *int      `bun:"snapshot_rank"`
	UpdatedAt    time.Time `bun:"updated_at"`
}

func fromDomain(entry types.LeaderboardEntry) *Record {
	return &Record{
		ID:           entry.ID,
		UserID:       entry.UserID,
		Category:     string(entry.Category),
		Timeframe:    string(entry.Timeframe),
		Rank:         entry.Rank,
		Score:        entry.Score,
		PreviousRank: copyInt(entry.PreviousRank),
		SnapshotRank: copyInt(entry.SnapshotRank),
		UpdatedAt:    entry.UpdatedAt,
	}
}

func toDomain(rec *Record) types.LeaderboardEntry {
	if rec == nil {
		return types.LeaderboardEntry{}
	}
	return types.LeaderboardEntry{
		ID:           rec.ID,
		UserID:       rec.UserID,
		Category:     types.LeaderboardCategory(rec.Category),
		Timeframe:    types.LeaderboardTimeframe(rec.Timeframe),
		Rank:         rec.Rank,
		Score:        rec.Score,
		PreviousRank: copyInt(rec.PreviousRank),
		SnapshotRank: copyInt(rec.SnapshotRank),
		UpdatedAt:    rec.UpdatedAt.UTC(),
	}
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
