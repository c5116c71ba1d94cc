// Package rules holds the pure algorithms behind streaks, reputation,
// ranking and badge eligibility. Nothing here touches storage.
package rules

import (
	"time"

	"github.com/goliatone/go-gamification/pkg/types"
)

// StreakMilestones are the streak lengths that emit a milestone signal.
var StreakMilestones = []int{3, 7, 14, 30, 60, 100, 365}

const (
	atRiskFromHours = 20
	atRiskToHours   = 24
)

// StreakTransition describes what AdvanceStreak changed.
type StreakTransition struct {
	Previous  int
	Current   int
	Extended  bool
	Reset     bool
	Milestone int
}

// MilestoneReached reports whether the transition landed on a milestone.
func (t StreakTransition) MilestoneReached() bool { return t.Milestone > 0 }

// DayStart returns midnight of the calendar day containing t in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DayGap returns the number of calendar days between from and to in loc.
func DayGap(from, to time.Time, loc *time.Location) int {
	a := DayStart(from, loc)
	b := DayStart(to, loc)
	return civilDay(b) - civilDay(a)
}

func civilDay(t time.Time) int {
	return int(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// AdvanceStreak applies one qualifying activity at the given instant.
func AdvanceStreak(state types.StreakState, at time.Time, loc *time.Location) (types.StreakState, StreakTransition) {
	today := DayStart(at, loc).UTC()
	stamp := at.UTC()
	next := state
	tr := StreakTransition{Previous: state.CurrentStreak}

	switch {
	case state.LastActivityDate == nil:
		next.CurrentStreak = 1
		next.LongestStreak = max(state.LongestStreak, 1)
		next.LastActivityDate = &today
		tr.Extended = true
	default:
		gap := DayGap(*state.LastActivityDate, at, loc)
		switch {
		case gap <= 0:
			// same day, or an out of order activity for an earlier day
		case gap == 1:
			next.CurrentStreak = state.CurrentStreak + 1
			next.LongestStreak = max(state.LongestStreak, next.CurrentStreak)
			next.LastActivityDate = &today
			tr.Extended = true
		default:
			next.CurrentStreak = 1
			next.LongestStreak = max(state.LongestStreak, 1)
			next.LastActivityDate = &today
			tr.Reset = true
		}
	}

	if state.LastActivityAt == nil || stamp.After(*state.LastActivityAt) {
		next.LastActivityAt = &stamp
	}
	tr.Current = next.CurrentStreak
	if m, ok := StreakMilestoneReached(tr.Previous, tr.Current); ok {
		tr.Milestone = m
	}
	return next, tr
}

// StreakMilestoneReached reports a milestone when next lands exactly on one
// and is strictly greater than previous.
func StreakMilestoneReached(previous, next int) (int, bool) {
	if next <= previous {
		return 0, false
	}
	for _, m := range StreakMilestones {
		if m == next {
			return m, true
		}
	}
	return 0, false
}

// StreakAtRisk reports whether the streak breaks unless the user acts before
// the current day ends: the last activity was yesterday and the local clock
// is within the final hours of today. The returned hours are measured from
// the last known activity, so they fall anywhere from 20 to 47 and are not the
// window itself.
func StreakAtRisk(state types.StreakState, now time.Time, loc *time.Location) (int, bool) {
	if state.CurrentStreak <= 0 || state.LastActivityDate == nil {
		return 0, false
	}
	if DayGap(*state.LastActivityDate, now, loc) != 1 {
		return 0, false
	}
	since := DayStart(*state.LastActivityDate, loc)
	if state.LastActivityAt != nil {
		since = *state.LastActivityAt
	}
	hours := int(now.Sub(since) / time.Hour)
	intoDay := int(now.Sub(DayStart(now, loc)) / time.Hour)
	return hours, intoDay >= atRiskFromHours && intoDay < atRiskToHours
}

// StreakBroken reports whether a positive streak missed at least one full day.
func StreakBroken(state types.StreakState, now time.Time, loc *time.Location) bool {
	if state.CurrentStreak <= 0 || state.LastActivityDate == nil {
		return false
	}
	return DayGap(*state.LastActivityDate, now, loc) >= 2
}
