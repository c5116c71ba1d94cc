package badge

import (
	"context"
	"errors"

	"github.com/goliatone/go-gamification/pkg/types"
)

// DefaultCatalog returns the built-in badge definitions.
func DefaultCatalog() []types.Badge {
	return []types.Badge{
		{Name: "First Post", Description: "Published a first post", Category: types.BadgeCategoryActivity, RequirementKind: types.RequirementPostsCount, ThresholdValue: 1},
		{Name: "Prolific Author", Description: "Published 50 posts", Category: types.BadgeCategoryActivity, RequirementKind: types.RequirementPostsCount, ThresholdValue: 50},
		{Name: "Conversationalist", Description: "Wrote 10 comments", Category: types.BadgeCategoryActivity, RequirementKind: types.RequirementCommentsCount, ThresholdValue: 10},
		{Name: "Commentator", Description: "Wrote 100 comments", Category: types.BadgeCategoryActivity, RequirementKind: types.RequirementCommentsCount, ThresholdValue: 100},
		{Name: "Supporter", Description: "Gave 25 upvotes", Category: types.BadgeCategorySocial, RequirementKind: types.RequirementUpvotesGivenCount, ThresholdValue: 25},
		{Name: "Appreciated", Description: "Received 50 upvotes", Category: types.BadgeCategorySocial, RequirementKind: types.RequirementUpvotesReceivedCount, ThresholdValue: 50},
		{Name: "Discussion Starter", Description: "Received 25 replies", Category: types.BadgeCategorySocial, RequirementKind: types.RequirementRepliesReceivedCount, ThresholdValue: 25},
		{Name: "Hot Take", Description: "A single post earned 10 upvotes", Category: types.BadgeCategoryQuality, RequirementKind: types.RequirementPostUpvotes, ThresholdValue: 10},
		{Name: "Great Answer", Description: "A single comment earned 10 upvotes", Category: types.BadgeCategoryQuality, RequirementKind: types.RequirementCommentUpvotes, ThresholdValue: 10},
		{Name: "Three Day Streak", Description: "Active 3 days in a row", Category: types.BadgeCategoryStreak, RequirementKind: types.RequirementCurrentStreak, ThresholdValue: 3},
		{Name: "Week Warrior", Description: "Active 7 days in a row", Category: types.BadgeCategoryStreak, RequirementKind: types.RequirementCurrentStreak, ThresholdValue: 7},
		{Name: "Monthly Regular", Description: "Active 30 days in a row", Category: types.BadgeCategoryStreak, RequirementKind: types.RequirementCurrentStreak, ThresholdValue: 30},
		{Name: "Centurion", Description: "Reached a 100 day streak", Category: types.BadgeCategoryStreak, RequirementKind: types.RequirementLongestStreak, ThresholdValue: 100},
		{Name: "Rising Voice", Description: "Earned 1000 reputation", Category: types.BadgeCategoryReputation, RequirementKind: types.RequirementReputationPoints, ThresholdValue: 1000},
		{Name: "Top Contributor", Description: "Ranked in the top 10% by reputation", Category: types.BadgeCategoryLeaderboard, RequirementKind: types.RequirementTopPercentWeekly, ThresholdValue: 10},
	}
}

// Seed upserts the supplied definitions by name and marks them active.
func Seed(ctx context.Context, repo types.BadgeRepository, badges []types.Badge) ([]types.Badge, error) {
	if repo == nil {
		return nil, types.ErrMissingBadgeRepository
	}
	out := make([]types.Badge, 0, len(badges))
	var errs []error
	for _, b := range badges {
		b.IsActive = true
		saved, err := repo.SaveBadge(ctx, b)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, *saved)
	}
	return out, errors.Join(errs...)
}
