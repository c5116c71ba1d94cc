package scheduler

import (
	"time"
)

// Schedule reports the next run strictly after the given instant.
type Schedule interface {
	Next(after time.Time) time.Time
}

type interval struct {
	every time.Duration
}

// Every runs at a fixed interval measured from the previous run.
func Every(d time.Duration) Schedule {
	if d <= 0 {
		d = time.Minute
	}
	return interval{every: d}
}

func (s interval) Next(after time.Time) time.Time {
	return after.Add(s.every)
}

type daily struct {
	hour, minute int
	loc          *time.Location
}

// DailyAt runs once a day at hour:minute in loc (UTC when nil).
func DailyAt(hour, minute int, loc *time.Location) Schedule {
	if loc == nil {
		loc = time.UTC
	}
	return daily{hour: hour, minute: minute, loc: loc}
}

func (s daily) Next(after time.Time) time.Time {
	local := after.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, s.hour, s.minute, 0, 0, s.loc)
	}
	return next
}

type weekly struct {
	day          time.Weekday
	hour, minute int
	loc          *time.Location
}

// WeeklyAt runs once a week on day at hour:minute in loc (UTC when nil).
func WeeklyAt(day time.Weekday, hour, minute int, loc *time.Location) Schedule {
	if loc == nil {
		loc = time.UTC
	}
	return weekly{day: day, hour: hour, minute: minute, loc: loc}
}

func (s weekly) Next(after time.Time) time.Time {
	local := after.In(s.loc)
	offset := (int(s.day) - int(local.Weekday()) + 7) % 7
	next := time.Date(local.Year(), local.Month(), local.Day()+offset, s.hour, s.minute, 0, 0, s.loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+offset+7, s.hour, s.minute, 0, 0, s.loc)
	}
	return next
}
