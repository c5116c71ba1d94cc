package command

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-gamification/pkg/rules"
	"github.com/goliatone/go-gamification/pkg/types"
)

// badgeFacts loads only the facts the pending badges need, at most once per
// check.
type badgeFacts struct {
	userID     uuid.UUID
	activity   types.ActivityRepository
	streaks    types.StreakRepository
	reputation types.ReputationRepository

	facts  rules.BadgeFacts
	loaded map[types.RequirementKind]bool
}

func newBadgeFacts(userID uuid.UUID, activity types.ActivityRepository, streaks types.StreakRepository, reputation types.ReputationRepository) *badgeFacts {
	return &badgeFacts{
		userID:     userID,
		activity:   activity,
		streaks:    streaks,
		reputation: reputation,
		loaded:     make(map[types.RequirementKind]bool),
	}
}

func (f *badgeFacts) load(ctx context.Context, kind types.RequirementKind) (rules.BadgeFacts, error) {
	if f.loaded[kind] {
		return f.facts, nil
	}
	var err error
	switch kind {
	case types.RequirementCurrentStreak, types.RequirementLongestStreak:
		err = f.loadStreak(ctx)
	case types.RequirementPostsCount:
		f.facts.Posts, err = f.count(ctx, types.ActivityCountFilter{UserID: f.userID, Types: []types.ActivityType{types.ActivityPost}})
	case types.RequirementCommentsCount:
		f.facts.Comments, err = f.count(ctx, types.ActivityCountFilter{UserID: f.userID, Types: []types.ActivityType{types.ActivityComment}})
	case types.RequirementUpvotesGivenCount:
		f.facts.UpvotesGiven, err = f.count(ctx, types.ActivityCountFilter{UserID: f.userID, Types: []types.ActivityType{types.ActivityUpvote}})
	case types.RequirementUpvotesReceivedCount:
		f.facts.UpvotesReceived, err = f.count(ctx, types.ActivityCountFilter{TargetUserID: f.userID, Types: []types.ActivityType{types.ActivityUpvote}})
	case types.RequirementRepliesReceivedCount:
		f.facts.RepliesReceived, err = f.count(ctx, types.ActivityCountFilter{TargetUserID: f.userID, Types: []types.ActivityType{types.ActivityComment}})
	case types.RequirementPostUpvotes:
		f.facts.BestPostUpvotes, err = f.best(ctx, types.EntityTypePost)
	case types.RequirementCommentUpvotes:
		f.facts.BestCommentUpvotes, err = f.best(ctx, types.EntityTypeComment)
	case types.RequirementReputationPoints:
		err = f.loadReputation(ctx)
	}
	if err != nil {
		return f.facts, err
	}
	f.loaded[kind] = true
	return f.facts, nil
}

func (f *badgeFacts) loadStreak(ctx context.Context) error {
	if f.streaks == nil {
		return types.ErrMissingStreakRepository
	}
	state, err := f.streaks.GetStreak(ctx, f.userID)
	if err != nil {
		return err
	}
	if state != nil {
		f.facts.CurrentStreak = state.CurrentStreak
		f.facts.LongestStreak = state.LongestStreak
	}
	f.loaded[types.RequirementCurrentStreak] = true
	f.loaded[types.RequirementLongestStreak] = true
	return nil
}

func (f *badgeFacts) loadReputation(ctx context.Context) error {
	if f.reputation == nil {
		return types.ErrMissingReputationRepository
	}
	state, err := f.reputation.GetReputation(ctx, f.userID)
	if err != nil {
		return err
	}
	if state != nil {
		f.facts.ReputationPoints = state.TotalPoints
	}
	return nil
}

func (f *badgeFacts) count(ctx context.Context, filter types.ActivityCountFilter) (int, error) {
	if f.activity == nil {
		return 0, types.ErrMissingActivityRepository
	}
	return f.activity.CountActivity(ctx, filter)
}

func (f *badgeFacts) best(ctx context.Context, entityType string) (int, error) {
	if f.activity == nil {
		return 0, types.ErrMissingActivityRepository
	}
	return f.activity.MaxEntityScore(ctx, types.EntityScoreFilter{
		OwnerID:    f.userID,
		Type:       types.ActivityUpvote,
		EntityType: entityType,
	})
}
