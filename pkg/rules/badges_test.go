package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-gamification/pkg/types"
)

func TestEvaluate(t *testing.T) {
	facts := BadgeFacts{CurrentStreak: 7, Posts: 3, BestPostUpvotes: 12, ReputationPoints: 99}

	ok, known := Evaluate(types.RequirementCurrentStreak, facts, 7)
	require.True(t, known)
	require.True(t, ok)

	ok, _ = Evaluate(types.RequirementPostsCount, facts, 10)
	require.False(t, ok)

	ok, _ = Evaluate(types.RequirementPostUpvotes, facts, 10)
	require.True(t, ok)

	ok, _ = Evaluate(types.RequirementReputationPoints, facts, 100)
	require.False(t, ok)

	ok, known = Evaluate(types.RequirementTopPercentWeekly, facts, 10)
	require.False(t, known)
	require.False(t, ok)

	ok, known = Evaluate(types.RequirementKind("mystery"), facts, 1)
	require.False(t, known)
	require.False(t, ok)
}

func TestScopeKinds(t *testing.T) {
	require.Nil(t, ScopeKinds(ScopeAll))
	require.ElementsMatch(t, []types.RequirementKind{
		types.RequirementCurrentStreak,
		types.RequirementLongestStreak,
	}, ScopeKinds(ScopeStreak))

	kinds := ScopeKinds(ScopePostQuality)
	kinds[0] = types.RequirementPostsCount
	require.Equal(t, types.RequirementPostUpvotes, ScopeKinds(ScopePostQuality)[0])
}

func TestParseBadgeScope(t *testing.T) {
	scope, ok := ParseBadgeScope("")
	require.True(t, ok)
	require.Equal(t, ScopeAll, scope)

	scope, ok = ParseBadgeScope(" Streak ")
	require.True(t, ok)
	require.Equal(t, ScopeStreak, scope)

	_, ok = ParseBadgeScope("bogus")
	require.False(t, ok)
}
