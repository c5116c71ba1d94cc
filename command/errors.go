package command

import (
	"errors"

	"github.com/goliatone/go-gamification/pkg/types"
)

var (
	// ErrUserIDRequired occurs when a command omits the user.
	ErrUserIDRequired = types.ErrUserIDRequired
	// ErrBadgeIDRequired occurs when a badge command omits the badge.
	ErrBadgeIDRequired = types.ErrBadgeIDRequired
	// ErrBadgeNotFound indicates the badge catalog has no matching entry.
	ErrBadgeNotFound = types.ErrBadgeNotFound
	// ErrActivityTypeRequired indicates the activity type was missing.
	ErrActivityTypeRequired = errors.New("go-gamification: activity type required")
	// ErrInvalidBadgeScope indicates an unknown badge check scope.
	ErrInvalidBadgeScope = errors.New("go-gamification: invalid badge scope")
	// ErrStreakLengthRequired indicates a streak bonus was requested without a streak.
	ErrStreakLengthRequired = errors.New("go-gamification: streak length required")
)
