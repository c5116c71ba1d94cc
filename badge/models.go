package badge

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-gamification/pkg/types"
)

// Record models the gamification_badges catalog row.
type Record struct {
	bun.BaseModel `bun:"table:gamification_badges"`

	ID              uuid.UUID `bun:",pk,type:uuid"`
	Name            string    `bun:"name"`
	Description     string    `bun:"description"`
	Category        string    `bun:"category"`
	RequirementKind string    `bun:"requirement_kind"`
	ThresholdValue  int       `bun:"threshold_value"`
	IsActive        bool      `bun:"is_active"`
	CreatedAt       time.Time `bun:"created_at"`
	UpdatedAt       time.Time `bun:"updated_at"`
}

// AwardRecord models the gamification_user_badges row.
type AwardRecord struct {
	bun.BaseModel `bun:"table:gamification_user_badges"`

	ID          uuid.UUID `bun:",pk,type:uuid"`
	UserID      uuid.UUID `bun:"user_id,type:uuid"`
	BadgeID     uuid.UUID `bun:"badge_id,type:uuid"`
	EarnedAt    time.Time `bun:"earned_at"`
	IsDisplayed bool      `bun:"is_displayed"`
}

func fromBadge(b types.Badge) *Record {
	return &Record{
		ID:              b.ID,
		Name:            b.Name,
		Description:     b.Description,
		Category:        string(b.Category),
		RequirementKind: string(b.RequirementKind),
		ThresholdValue:  b.ThresholdValue,
		IsActive:        b.IsActive,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func toBadge(rec *Record) types.Badge {
	if rec == nil {
		return types.Badge{}
	}
	return types.Badge{
		ID:              rec.ID,
		Name:            rec.Name,
		Description:     rec.Description,
		Category:        types.BadgeCategory(rec.Category),
		RequirementKind: types.RequirementKind(rec.RequirementKind),
		ThresholdValue:  rec.ThresholdValue,
		IsActive:        rec.IsActive,
		CreatedAt:       rec.CreatedAt.UTC(),
		UpdatedAt:       rec.UpdatedAt.UTC(),
	}
}

func fromAward(a types.UserBadge) *AwardRecord {
	return &AwardRecord{
		ID:          a.ID,
		UserID:      a.UserID,
		BadgeID:     a.BadgeID,
		EarnedAt:    a.EarnedAt,
		IsDisplayed: a.IsDisplayed,
	}
}

func toAward(rec *AwardRecord) *types.UserBadge {
	if rec == nil {
		return nil
	}
	return &types.UserBadge{
		ID:          rec.ID,
		UserID:      rec.UserID,
		BadgeID:     rec.BadgeID,
		EarnedAt:    rec.EarnedAt.UTC(),
		IsDisplayed: rec.IsDisplayed,
	}
}
