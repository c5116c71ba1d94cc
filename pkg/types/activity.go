package types

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActivityType enumerates the qualifying actions that feed the engine.
type ActivityType string

const (
	ActivityPost     ActivityType = "post"
	ActivityComment  ActivityType = "comment"
	ActivityUpvote   ActivityType = "upvote"
	ActivityDownvote ActivityType = "downvote"
	ActivityLogin    ActivityType = "login"
)

// ActivityTypes lists every known activity type.
func ActivityTypes() []ActivityType {
	return []ActivityType{ActivityPost, ActivityComment, ActivityUpvote, ActivityDownvote, ActivityLogin}
}

// Valid reports whether the activity type is known.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityPost, ActivityComment, ActivityUpvote, ActivityDownvote, ActivityLogin:
		return true
	default:
		return false
	}
}

// ParseActivityType normalizes and validates the supplied value.
func ParseActivityType(raw string) (ActivityType, error) {
	t := ActivityType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", ErrInvalidActivityType
	}
	return t, nil
}

// Entity types stamped on activity records.
const (
	EntityTypePost    = "post"
	EntityTypeComment = "comment"
)

// ActivityRecord is an immutable, append-only record of a qualifying action.
// TargetUserID identifies the owner of the entity that received the
// interaction (vote target or reply parent owner) and is uuid.Nil otherwise.
type ActivityRecord struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Type         ActivityType
	EntityID     string
	EntityType   string
	TargetUserID uuid.UUID
	CreatedAt    time.Time
}

// ActivityCountFilter narrows activity count queries.
type ActivityCountFilter struct {
	UserID       uuid.UUID
	TargetUserID uuid.UUID
	Types        []ActivityType
	EntityID     string
	EntityType   string
	Since        *time.Time
}

// ScoreGroup selects which user column an aggregate groups by.
type ScoreGroup string

const (
	// ScoreByActor groups by the user who performed the action.
	ScoreByActor ScoreGroup = "actor"
	// ScoreByTarget groups by the user who received the interaction.
	ScoreByTarget ScoreGroup = "target"
)

// ActivityScoreFilter drives grouped counts used by leaderboards.
type ActivityScoreFilter struct {
	Type    ActivityType
	GroupBy ScoreGroup
	Since   *time.Time
}

// EntityScoreFilter drives per-entity counts used by quality badges.
type EntityScoreFilter struct {
	OwnerID    uuid.UUID
	Type       ActivityType
	EntityType string
}

// ActivityRepository persists activity records and exposes the aggregates
// the engine needs.
type ActivityRepository interface {
	AppendActivity(ctx context.Context, record ActivityRecord) (ActivityRecord, error)
	CountActivity(ctx context.Context, filter ActivityCountFilter) (int, error)
	ActiveUsersSince(ctx context.Context, since time.Time) ([]uuid.UUID, error)
	ScoreByUser(ctx context.Context, filter ActivityScoreFilter) ([]UserScore, error)
	MaxEntityScore(ctx context.Context, filter EntityScoreFilter) (int, error)
	FindCreation(ctx context.Context, entityID string) (*ActivityRecord, error)
}
