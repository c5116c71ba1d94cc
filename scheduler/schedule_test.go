package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEvery(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	require.Equal(t, now.Add(15*time.Minute), Every(15*time.Minute).Next(now))
	require.Equal(t, now.Add(time.Minute), Every(0).Next(now))
}

func TestDailyAt(t *testing.T) {
	s := DailyAt(0, 5, time.UTC)

	before := time.Date(2024, 3, 10, 0, 1, 0, 0, time.UTC)
	require.Equal(t, time.Date(2024, 3, 10, 0, 5, 0, 0, time.UTC), s.Next(before))

	exact := time.Date(2024, 3, 10, 0, 5, 0, 0, time.UTC)
	require.Equal(t, time.Date(2024, 3, 11, 0, 5, 0, 0, time.UTC), s.Next(exact))

	endOfMonth := time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2024, 4, 1, 0, 5, 0, 0, time.UTC), s.Next(endOfMonth))
}

func TestDailyAtLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	s := DailyAt(1, 0, loc)

	after := time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC)
	next := s.Next(after)
	require.Equal(t, time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC), next.UTC())
}

func TestWeeklyAt(t *testing.T) {
	s := WeeklyAt(time.Monday, 0, 30, time.UTC)

	// 2024-03-10 is a Sunday.
	sunday := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2024, 3, 11, 0, 30, 0, 0, time.UTC), s.Next(sunday))

	mondayLate := time.Date(2024, 3, 11, 1, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2024, 3, 18, 0, 30, 0, 0, time.UTC), s.Next(mondayLate))

	mondayEarly := time.Date(2024, 3, 11, 0, 10, 0, 0, time.UTC)
	require.Equal(t, time.Date(2024, 3, 11, 0, 30, 0, 0, time.UTC), s.Next(mondayEarly))
}
