package rules

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-gamification/pkg/types"
)

func intPtr(v int) *int { return &v }

func TestRankScores_StableTies(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	ranked := RankScores([]types.UserScore{
		{UserID: a, Score: 5},
		{UserID: b, Score: 9},
		{UserID: c, Score: 5},
		{UserID: d, Score: 0},
	})

	require.Len(t, ranked, 3)
	require.Equal(t, b, ranked[0].UserID)
	require.Equal(t, 1, ranked[0].Rank)
	require.Equal(t, a, ranked[1].UserID, "ties keep input order")
	require.Equal(t, c, ranked[2].UserID)
	require.Equal(t, 3, ranked[2].Rank)
}

func TestRankScores_Deterministic(t *testing.T) {
	input := make([]types.UserScore, 0, 20)
	for i := range 20 {
		input = append(input, types.UserScore{UserID: uuid.New(), Score: i % 4})
	}
	require.Equal(t, RankScores(input), RankScores(input))
}

func TestRankImproved(t *testing.T) {
	require.True(t, RankImproved(intPtr(15), 5))
	require.False(t, RankImproved(intPtr(14), 5))
	require.False(t, RankImproved(nil, 1))
}

func TestSignificantChange(t *testing.T) {
	change, ok := SignificantChange(intPtr(30), 4)
	require.True(t, ok)
	require.Equal(t, types.PositionReachedBand, change.Kind)
	require.Equal(t, 5, change.Band)

	change, ok = SignificantChange(intPtr(12), 8)
	require.True(t, ok)
	require.Equal(t, types.PositionEnteredTop10, change.Kind)

	change, ok = SignificantChange(intPtr(8), 12)
	require.True(t, ok)
	require.Equal(t, types.PositionLeftTop10, change.Kind)

	change, ok = SignificantChange(intPtr(9), 0)
	require.True(t, ok)
	require.Equal(t, types.PositionLeftTop10, change.Kind)

	change, ok = SignificantChange(intPtr(70), 60)
	require.True(t, ok)
	require.Equal(t, types.PositionMoved, change.Kind)

	_, ok = SignificantChange(intPtr(70), 66)
	require.False(t, ok)

	_, ok = SignificantChange(intPtr(3), 3)
	require.False(t, ok)

	change, ok = SignificantChange(nil, 40)
	require.True(t, ok)
	require.Equal(t, 50, change.Band)
}

func TestPercentileTarget(t *testing.T) {
	require.Equal(t, 1, PercentileTarget(5, 10))
	require.Equal(t, 10, PercentileTarget(100, 10))
	require.Equal(t, 11, PercentileTarget(101, 10))
	require.Zero(t, PercentileTarget(0, 10))
	require.Equal(t, 3, PercentileTarget(3, 150))
}
