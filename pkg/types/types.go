package types

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Pagination supports offset based listing across leaderboards and sweeps.
type Pagination struct {
	Limit  int
	Offset int
}

// UserScore pairs a user with an aggregate score. Aggregate queries return
// slices ordered by score descending, then user id ascending.
type UserScore struct {
	UserID uuid.UUID
	Score  int
}

// Clock abstracts time retrieval for deterministic testing.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID creation.
type IDGenerator interface {
	UUID() uuid.UUID
}

// Logger captures basic logging hooks used by the engine.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, err error, fields ...any)
}

// SystemClock defers to time.Now for production usage.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator produces UUIDv4 identifiers.
type UUIDGenerator struct{}

// UUID returns a randomly generated UUID.
func (UUIDGenerator) UUID() uuid.UUID { return uuid.New() }

// NopLogger discards all log lines.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(string, ...any) {}

// Info implements Logger.
func (NopLogger) Info(string, ...any) {}

// Warn implements Logger.
func (NopLogger) Warn(string, ...any) {}

// Error implements Logger.
func (NopLogger) Error(string, error, ...any) {}

var (
	// ErrUserIDRequired indicates a user identifier was omitted.
	ErrUserIDRequired = errors.New("go-gamification: user id required")
	// ErrBadgeIDRequired indicates a badge identifier was omitted.
	ErrBadgeIDRequired = errors.New("go-gamification: badge id required")
	// ErrStreakNotFound indicates the user has no streak state yet.
	ErrStreakNotFound = errors.New("go-gamification: streak not found")
	// ErrReputationNotFound indicates the user has no reputation record yet.
	ErrReputationNotFound = errors.New("go-gamification: reputation not found")
	// ErrBadgeNotFound indicates the badge catalog has no matching entry.
	ErrBadgeNotFound = errors.New("go-gamification: badge not found")
	// ErrUserBadgeNotFound indicates the user has not earned the badge.
	ErrUserBadgeNotFound = errors.New("go-gamification: user badge not found")
	// ErrLeaderboardEntryNotFound indicates the user is not ranked on the board.
	ErrLeaderboardEntryNotFound = errors.New("go-gamification: leaderboard entry not found")
	// ErrInvalidCategory indicates an unknown leaderboard category.
	ErrInvalidCategory = errors.New("go-gamification: invalid leaderboard category")
	// ErrInvalidTimeframe indicates an unknown leaderboard timeframe.
	ErrInvalidTimeframe = errors.New("go-gamification: invalid leaderboard timeframe")
	// ErrInvalidActivityType indicates an unknown activity type.
	ErrInvalidActivityType = errors.New("go-gamification: invalid activity type")
	// ErrMissingActivityRepository occurs when no activity store was supplied.
	ErrMissingActivityRepository = errors.New("go-gamification: missing activity repository")
	// ErrMissingStreakRepository occurs when no streak store was supplied.
	ErrMissingStreakRepository = errors.New("go-gamification: missing streak repository")
	// ErrMissingReputationRepository occurs when no reputation store was supplied.
	ErrMissingReputationRepository = errors.New("go-gamification: missing reputation repository")
	// ErrMissingBadgeRepository occurs when no badge store was supplied.
	ErrMissingBadgeRepository = errors.New("go-gamification: missing badge repository")
	// ErrMissingLeaderboardRepository occurs when no leaderboard store was supplied.
	ErrMissingLeaderboardRepository = errors.New("go-gamification: missing leaderboard repository")
	// ErrServiceNotReady indicates the engine has not been properly configured.
	ErrServiceNotReady = errors.New("go-gamification: service not ready")
)
