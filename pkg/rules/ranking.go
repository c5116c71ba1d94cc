package rules

import (
	"sort"

	"github.com/google/uuid"

	"github.com/goliatone/go-gamification/pkg/types"
)

// RankImprovementThreshold is the minimum climb that emits an improvement signal.
const RankImprovementThreshold = 10

// SignificantMoveThreshold is the movement beyond which the weekly pass notifies.
const SignificantMoveThreshold = 5

// TopTen is the boundary tracked for entering or leaving the top of a board.
const TopTen = 10

// RankBands are the milestone bands reported by the weekly pass.
var RankBands = []int{1, 5, 10, 25, 50}

// RankedScore is a positioned score.
type RankedScore struct {
	UserID uuid.UUID
	Score  int
	Rank   int
}

// RankScores drops non-positive scores, sorts by score descending keeping the
// incoming order for ties, and assigns ranks by position starting at 1.
func RankScores(scores []types.UserScore) []RankedScore {
	ranked := make([]RankedScore, 0, len(scores))
	for _, s := range scores {
		if s.Score <= 0 || s.UserID == uuid.Nil {
			continue
		}
		ranked = append(ranked, RankedScore{UserID: s.UserID, Score: s.Score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// RankImproved reports whether the move from previous to rank is a climb of
// at least RankImprovementThreshold positions.
func RankImproved(previous *int, rank int) bool {
	if previous == nil || rank <= 0 {
		return false
	}
	return *previous-rank >= RankImprovementThreshold
}

// PositionChange is the outcome of comparing a baseline rank to the current one.
type PositionChange struct {
	Kind     types.PositionChangeKind
	Previous int
	Rank     int
	Band     int
}

// SignificantChange compares a weekly baseline with the current rank. A
// current rank of zero means the user is no longer ranked. Reaching a band
// takes precedence over crossing the top ten, which takes precedence over a
// plain move.
func SignificantChange(baseline *int, rank int) (PositionChange, bool) {
	prev := 0
	if baseline != nil {
		prev = *baseline
	}
	change := PositionChange{Previous: prev, Rank: rank}
	ranked := rank > 0
	wasRanked := prev > 0

	if ranked {
		for _, band := range RankBands {
			if rank <= band && (!wasRanked || prev > band) {
				change.Band = band
				change.Kind = types.PositionReachedBand
				if band == TopTen {
					change.Kind = types.PositionEnteredTop10
				}
				return change, true
			}
		}
	}

	if wasRanked && prev <= TopTen && (!ranked || rank > TopTen) {
		change.Kind = types.PositionLeftTop10
		return change, true
	}

	if wasRanked && ranked && absInt(prev-rank) > SignificantMoveThreshold {
		change.Kind = types.PositionMoved
		return change, true
	}
	return change, false
}

// PercentileTarget returns ceil(total * pct / 100), bounded by total.
func PercentileTarget(total, pct int) int {
	if total <= 0 || pct <= 0 {
		return 0
	}
	target := (total*pct + 99) / 100
	return min(target, total)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
