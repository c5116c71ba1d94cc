package types

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RequirementKind selects how a badge threshold is evaluated.
type RequirementKind string

const (
	RequirementCurrentStreak        RequirementKind = "current_streak"
	RequirementLongestStreak        RequirementKind = "longest_streak"
	RequirementPostsCount           RequirementKind = "posts_count"
	RequirementCommentsCount        RequirementKind = "comments_count"
	RequirementUpvotesGivenCount    RequirementKind = "upvotes_given_count"
	RequirementUpvotesReceivedCount RequirementKind = "upvotes_received_count"
	RequirementRepliesReceivedCount RequirementKind = "replies_received_count"
	RequirementPostUpvotes          RequirementKind = "post_upvotes"
	RequirementCommentUpvotes       RequirementKind = "comment_upvotes"
	RequirementReputationPoints     RequirementKind = "reputation_points"
	RequirementTopPercentWeekly     RequirementKind = "top_percent_weekly"
)

// BadgeCategory groups badges for presentation.
type BadgeCategory string

const (
	BadgeCategoryActivity    BadgeCategory = "activity"
	BadgeCategoryStreak      BadgeCategory = "streak"
	BadgeCategoryQuality     BadgeCategory = "quality"
	BadgeCategorySocial      BadgeCategory = "social"
	BadgeCategoryReputation  BadgeCategory = "reputation"
	BadgeCategoryLeaderboard BadgeCategory = "leaderboard"
)

// Badge is a catalog entry. Name is unique.
type Badge struct {
	ID              uuid.UUID
	Name            string
	Description     string
	Category        BadgeCategory
	RequirementKind RequirementKind
	ThresholdValue  int
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// UserBadge records that a user earned a badge. Unique per (UserID, BadgeID).
type UserBadge struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	BadgeID     uuid.UUID
	EarnedAt    time.Time
	IsDisplayed bool
}

// BadgeFilter narrows catalog listings.
type BadgeFilter struct {
	ActiveOnly bool
	Kinds      []RequirementKind
	Category   BadgeCategory
}

// UserBadgeFilter narrows a user's earned badges.
type UserBadgeFilter struct {
	UserID        uuid.UUID
	DisplayedOnly bool
}

// BadgeRepository persists the catalog and awards. GetBadge and
// GetUserBadge return nil, nil when nothing matches.
type BadgeRepository interface {
	ListBadges(ctx context.Context, filter BadgeFilter) ([]Badge, error)
	GetBadge(ctx context.Context, id uuid.UUID) (*Badge, error)
	GetBadgeByName(ctx context.Context, name string) (*Badge, error)
	SaveBadge(ctx context.Context, badge Badge) (*Badge, error)
	OwnedBadgeIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]struct{}, error)
	GetUserBadge(ctx context.Context, userID, badgeID uuid.UUID) (*UserBadge, error)
	// CreateUserBadge returns created=false when the pair already exists.
	CreateUserBadge(ctx context.Context, award UserBadge) (*UserBadge, bool, error)
	ListUserBadges(ctx context.Context, filter UserBadgeFilter) ([]UserBadge, error)
	SetDisplayed(ctx context.Context, userID, badgeID uuid.UUID, displayed bool) (*UserBadge, error)
}
