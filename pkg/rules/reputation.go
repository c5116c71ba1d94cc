package rules

import (
	"time"

	"github.com/goliatone/go-gamification/pkg/types"
)

// WeeklyWindow is the length of the weekly points window.
const WeeklyWindow = 7 * 24 * time.Hour

var activityPoints = map[types.ActivityType]int{
	types.ActivityPost:     10,
	types.ActivityComment:  5,
	types.ActivityUpvote:   2,
	types.ActivityDownvote: 1,
	types.ActivityLogin:    1,
}

// PointsFor returns the reputation awarded for an activity type.
func PointsFor(t types.ActivityType) int {
	return activityPoints[t]
}

// ReputationMilestones are the totals that emit a milestone signal.
var ReputationMilestones = []int{100, 500, 1000, 2500, 5000, 10000, 25000, 50000, 100000}

// HighestCrossedMilestone returns the largest milestone m with before < m <= after.
func HighestCrossedMilestone(before, after int) (int, bool) {
	found := 0
	for _, m := range ReputationMilestones {
		if before < m && after >= m {
			found = m
		}
	}
	return found, found > 0
}

type bonusStep struct {
	streak int
	points int
}

var streakBonusTable = []bonusStep{
	{3, 5},
	{7, 15},
	{14, 30},
	{30, 75},
	{60, 150},
	{100, 300},
	{365, 1000},
}

// StreakBonusFor returns the bonus for the highest table entry not above the
// current streak, or zero below the first entry.
func StreakBonusFor(current int) int {
	bonus := 0
	for _, step := range streakBonusTable {
		if current >= step.streak {
			bonus = step.points
		}
	}
	return bonus
}

// RollWeeklyWindow resets the weekly counter when its window expired. A
// missing reset stamp starts a new window at now.
func RollWeeklyWindow(state types.ReputationState, now time.Time) types.ReputationState {
	stamp := now.UTC()
	switch {
	case state.WeeklyPointsLastReset == nil:
		state.WeeklyPointsLastReset = &stamp
	case now.Sub(*state.WeeklyPointsLastReset) > WeeklyWindow:
		state.WeeklyPoints = 0
		state.WeeklyPointsLastReset = &stamp
	}
	return state
}

// ApplyPoints adds points to both counters, flooring at zero.
func ApplyPoints(state types.ReputationState, delta int) types.ReputationState {
	state.TotalPoints = max(state.TotalPoints+delta, 0)
	state.WeeklyPoints = max(state.WeeklyPoints+delta, 0)
	return state
}

// DecayCapStep caps a reduction for totals up to MaxTotal. A zero MaxTotal
// matches every remaining total.
type DecayCapStep struct {
	MaxTotal int
	Cap      int
}

// DecayPolicy parameterizes the weekly decay pass.
type DecayPolicy struct {
	Percent           int
	ActivityThreshold int
	Caps              []DecayCapStep
}

// DefaultDecayPolicy decays 10% of weekly points for users with fewer than
// five activities in the trailing week.
func DefaultDecayPolicy() DecayPolicy {
	return DecayPolicy{
		Percent:           10,
		ActivityThreshold: 5,
		Caps: []DecayCapStep{
			{MaxTotal: 500, Cap: 25},
			{MaxTotal: 2000, Cap: 50},
			{MaxTotal: 5000, Cap: 75},
			{MaxTotal: 0, Cap: 100},
		},
	}
}

// Exempt reports whether recent activity suppresses decay.
func (p DecayPolicy) Exempt(recentActivity int) bool {
	return recentActivity >= p.ActivityThreshold
}

// Cap returns the maximum reduction allowed for a total.
func (p DecayPolicy) Cap(total int) int {
	for _, step := range p.Caps {
		if step.MaxTotal == 0 || total <= step.MaxTotal {
			return step.Cap
		}
	}
	return 0
}

// Reduction returns the points to remove for the given state.
func (p DecayPolicy) Reduction(state types.ReputationState) int {
	if state.WeeklyPoints <= 0 || p.Percent <= 0 {
		return 0
	}
	reduction := state.WeeklyPoints * p.Percent / 100
	reduction = min(reduction, p.Cap(state.TotalPoints))
	return max(reduction, 0)
}

// Decay subtracts the reduction from both counters without going negative.
func (p DecayPolicy) Decay(state types.ReputationState) (types.ReputationState, int) {
	reduction := p.Reduction(state)
	if reduction == 0 {
		return state, 0
	}
	state.TotalPoints = max(state.TotalPoints-reduction, 0)
	state.WeeklyPoints = max(state.WeeklyPoints-reduction, 0)
	return state, reduction
}

// TierFor buckets a reputation total.
func TierFor(total int) types.ReputationTier {
	switch {
	case total <= 500:
		return types.TierBronze
	case total <= 2000:
		return types.TierSilver
	case total <= 5000:
		return types.TierGold
	default:
		return types.TierPlatinum
	}
}

// TrendFor compares two consecutive weekly deltas.
func TrendFor(week, previous int) types.ReputationTrend {
	trend := types.ReputationTrend{WeekDelta: week, PreviousWeekDelta: previous, Direction: types.TrendSteady}
	switch {
	case week > previous:
		trend.Direction = types.TrendImproving
	case week < previous:
		trend.Direction = types.TrendDeclining
	}
	return trend
}
