package command

import (
	"context"
	"time"

	"github.com/goliatone/go-gamification/pkg/rules"
	"github.com/goliatone/go-gamification/pkg/types"
)

// leaderboardScores reads raw scores for one board. Every source orders ties
// by user id so ranking stays deterministic.
type leaderboardScores struct {
	activity   types.ActivityRepository
	reputation types.ReputationRepository
	batchSize  int
}

// errUnsupportedBoard marks a category the score source cannot serve.
type errUnsupportedBoard struct {
	category types.LeaderboardCategory
}

func (e errUnsupportedBoard) Error() string {
	return "go-gamification: unsupported leaderboard category " + string(e.category)
}

func (s leaderboardScores) scores(ctx context.Context, category types.LeaderboardCategory, timeframe types.LeaderboardTimeframe, at time.Time) ([]types.UserScore, error) {
	var since *time.Time
	if window := timeframe.Window(); window > 0 {
		from := at.Add(-window)
		since = &from
	}

	switch category {
	case types.CategoryPosts:
		return s.activityScores(ctx, types.ActivityPost, types.ScoreByActor, since)
	case types.CategoryComments:
		return s.activityScores(ctx, types.ActivityComment, types.ScoreByActor, since)
	case types.CategoryUpvotesGiven:
		return s.activityScores(ctx, types.ActivityUpvote, types.ScoreByActor, since)
	case types.CategoryUpvotesReceived:
		return s.activityScores(ctx, types.ActivityUpvote, types.ScoreByTarget, since)
	case types.CategoryReputation:
		return s.reputationScores(ctx, timeframe, at)
	default:
		return nil, errUnsupportedBoard{category: category}
	}
}

func (s leaderboardScores) activityScores(ctx context.Context, activityType types.ActivityType, group types.ScoreGroup, since *time.Time) ([]types.UserScore, error) {
	if s.activity == nil {
		return nil, types.ErrMissingActivityRepository
	}
	return s.activity.ScoreByUser(ctx, types.ActivityScoreFilter{
		Type:    activityType,
		GroupBy: group,
		Since:   since,
	})
}

func (s leaderboardScores) reputationScores(ctx context.Context, timeframe types.LeaderboardTimeframe, at time.Time) ([]types.UserScore, error) {
	if s.reputation == nil {
		return nil, types.ErrMissingReputationRepository
	}
	if timeframe == types.TimeframeMonthly {
		return s.reputation.NetPointsByUser(ctx, at.Add(-timeframe.Window()))
	}

	var out []types.UserScore
	for offset := 0; ; offset += s.batchSize {
		page, _, err := s.reputation.ListReputations(ctx, types.Pagination{Limit: s.batchSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, state := range page {
			score := state.TotalPoints
			if timeframe == types.TimeframeWeekly {
				score = weeklyScore(state, at)
			}
			out = append(out, types.UserScore{UserID: state.UserID, Score: score})
		}
		if len(page) < s.batchSize {
			return out, nil
		}
	}
}

// weeklyScore ignores weekly points whose window already expired; the
// counter itself only resets on the next award.
func weeklyScore(state types.ReputationState, at time.Time) int {
	if state.WeeklyPointsLastReset == nil || at.Sub(*state.WeeklyPointsLastReset) > rules.WeeklyWindow {
		return 0
	}
	return state.WeeklyPoints
}
