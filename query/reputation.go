package query

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"

	"github.com/goliatone/go-gamification/pkg/rules"
	"github.com/goliatone/go-gamification/pkg/types"
)

const (
	defaultTopLimit = 10
	maxTopLimit     = 100
)

// ReputationSummary is a user's reputation with derived tier and trend.
type ReputationSummary struct {
	State types.ReputationState
	Tier  types.ReputationTier
	Trend types.ReputationTrend
}

// ReputationInput selects one user.
type ReputationInput struct {
	UserID uuid.UUID
}

// ReputationQuery reads reputation and computes the week over week trend
// from the ledger.
type ReputationQuery struct {
	repo  types.ReputationRepository
	clock types.Clock
}

// NewReputationQuery constructs the reputation reader.
func NewReputationQuery(repo types.ReputationRepository, clock types.Clock) *ReputationQuery {
	if clock == nil {
		clock = types.SystemClock{}
	}
	return &ReputationQuery{repo: repo, clock: clock}
}

var _ gocommand.Querier[ReputationInput, ReputationSummary] = (*ReputationQuery)(nil)

// Query fails with a not found error for users without reputation.
func (q *ReputationQuery) Query(ctx context.Context, input ReputationInput) (ReputationSummary, error) {
	if q.repo == nil {
		return ReputationSummary{}, types.ErrMissingReputationRepository
	}
	if input.UserID == uuid.Nil {
		return ReputationSummary{}, invalidInput(types.ErrUserIDRequired, "user id required")
	}
	state, err := q.repo.GetReputation(ctx, input.UserID)
	if err != nil {
		return ReputationSummary{}, err
	}
	if state == nil {
		return ReputationSummary{}, notFound(types.ErrReputationNotFound, "reputation not found")
	}

	now := q.clock.Now()
	weekStart := now.Add(-rules.WeeklyWindow)
	previousStart := weekStart.Add(-rules.WeeklyWindow)
	week, err := q.repo.SumEvents(ctx, types.ReputationEventFilter{UserID: input.UserID, Since: &weekStart})
	if err != nil {
		return ReputationSummary{}, err
	}
	previous, err := q.repo.SumEvents(ctx, types.ReputationEventFilter{UserID: input.UserID, Since: &previousStart, Until: &weekStart})
	if err != nil {
		return ReputationSummary{}, err
	}
	return ReputationSummary{
		State: *state,
		Tier:  rules.TierFor(state.TotalPoints),
		Trend: rules.TrendFor(week, previous),
	}, nil
}

// TopReputationInput bounds the result size. Zero selects 10.
type TopReputationInput struct {
	Limit int
}

// TopReputationQuery lists the highest reputation totals.
type TopReputationQuery struct {
	repo types.ReputationRepository
}

// NewTopReputationQuery constructs the ranking reader.
func NewTopReputationQuery(repo types.ReputationRepository) *TopReputationQuery {
	return &TopReputationQuery{repo: repo}
}

var _ gocommand.Querier[TopReputationInput, []types.ReputationState] = (*TopReputationQuery)(nil)

// Query returns users ordered by total descending.
func (q *TopReputationQuery) Query(ctx context.Context, input TopReputationInput) ([]types.ReputationState, error) {
	if q.repo == nil {
		return nil, types.ErrMissingReputationRepository
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultTopLimit
	}
	return q.repo.TopReputations(ctx, min(limit, maxTopLimit))
}
