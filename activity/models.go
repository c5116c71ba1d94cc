package activity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-gamification/pkg/types"
)

// Entry models the persisted row in gamification_activity.
type Entry struct {
	bun.BaseModel `bun:"table:gamification_activity"`

	ID           uuid.UUID `bun:",pk,type:uuid"`
	UserID       uuid.UUID `bun:"user_id,type:uuid"`
	ActivityType string    `bun:"activity_type"`
	EntityID     string    `bun:"entity_id,nullzero"`
	EntityType   string    `bun:"entity_type,nullzero"`
	TargetUserID uuid.UUID `bun:"target_user_id,type:uuid,nullzero"`
	CreatedAt    time.Time `bun:"created_at"`
}

func toEntry(record types.ActivityRecord) *Entry {
	return &Entry{
		ID:           record.ID,
		UserID:       record.UserID,
		ActivityType: string(record.Type),
		EntityID:     record.EntityID,
		EntityType:   record.EntityType,
		TargetUserID: record.TargetUserID,
		CreatedAt:    record.CreatedAt,
	}
}

func toRecord(entry *Entry) types.ActivityRecord {
	if entry == nil {
		return types.ActivityRecord{}
	}
	return types.ActivityRecord{
		ID:           entry.ID,
		UserID:       entry.UserID,
		Type:         types.ActivityType(entry.ActivityType),
		EntityID:     entry.EntityID,
		EntityType:   entry.EntityType,
		TargetUserID: entry.TargetUserID,
		CreatedAt:    entry.CreatedAt,
	}
}
