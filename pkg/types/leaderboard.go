package types

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LeaderboardCategory selects what a board ranks.
type LeaderboardCategory string

const (
	CategoryPosts           LeaderboardCategory = "posts"
	CategoryComments        LeaderboardCategory = "comments"
	CategoryUpvotesGiven    LeaderboardCategory = "upvotes_given"
	CategoryUpvotesReceived LeaderboardCategory = "upvotes_received"
	CategoryReputation      LeaderboardCategory = "reputation"
)

// LeaderboardTimeframe selects the trailing window a board covers.
type LeaderboardTimeframe string

const (
	TimeframeWeekly  LeaderboardTimeframe = "weekly"
	TimeframeMonthly LeaderboardTimeframe = "monthly"
	TimeframeAllTime LeaderboardTimeframe = "all_time"
)

// LeaderboardCategories lists every supported category in recompute order.
func LeaderboardCategories() []LeaderboardCategory {
	return []LeaderboardCategory{
		CategoryPosts,
		CategoryComments,
		CategoryUpvotesGiven,
		CategoryUpvotesReceived,
		CategoryReputation,
	}
}

// LeaderboardTimeframes lists every supported timeframe.
func LeaderboardTimeframes() []LeaderboardTimeframe {
	return []LeaderboardTimeframe{TimeframeWeekly, TimeframeMonthly, TimeframeAllTime}
}

// ParseCategory normalizes and validates a category value.
func ParseCategory(raw string) (LeaderboardCategory, error) {
	c := LeaderboardCategory(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range LeaderboardCategories() {
		if c == known {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

// ParseTimeframe normalizes and validates a timeframe value.
func ParseTimeframe(raw string) (LeaderboardTimeframe, error) {
	tf := LeaderboardTimeframe(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range LeaderboardTimeframes() {
		if tf == known {
			return tf, nil
		}
	}
	return "", ErrInvalidTimeframe
}

// Window returns the trailing duration covered by the timeframe. All time
// boards report zero.
func (tf LeaderboardTimeframe) Window() time.Duration {
	switch tf {
	case TimeframeWeekly:
		return 7 * 24 * time.Hour
	case TimeframeMonthly:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// LeaderboardEntry is one ranked row. Unique per (UserID, Category, Timeframe).
type LeaderboardEntry struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Category     LeaderboardCategory
	Timeframe    LeaderboardTimeframe
	Rank         int
	Score        int
	PreviousRank *int
	SnapshotRank *int
	UpdatedAt    time.Time
}

// LeaderboardFilter narrows entry listings. Only entries with a positive
// score are returned.
type LeaderboardFilter struct {
	Category   LeaderboardCategory
	Timeframe  LeaderboardTimeframe
	Pagination Pagination
}

// LeaderboardPage is a paginated slice of a board.
type LeaderboardPage struct {
	Category  LeaderboardCategory
	Timeframe LeaderboardTimeframe
	Entries   []LeaderboardEntry
	Total     int
	Page      int
	PageSize  int
}

// LeaderboardRepository persists ranked entries.
// GetEntry returns nil, nil when there is no row.
type LeaderboardRepository interface {
	ListEntries(ctx context.Context, filter LeaderboardFilter) ([]LeaderboardEntry, int, error)
	ListAllEntries(ctx context.Context, category LeaderboardCategory, timeframe LeaderboardTimeframe) ([]LeaderboardEntry, error)
	GetEntry(ctx context.Context, userID uuid.UUID, category LeaderboardCategory, timeframe LeaderboardTimeframe) (*LeaderboardEntry, error)
	ListUserEntries(ctx context.Context, userID uuid.UUID) ([]LeaderboardEntry, error)
	UpsertEntries(ctx context.Context, entries []LeaderboardEntry) error
	CountRanked(ctx context.Context, category LeaderboardCategory, timeframe LeaderboardTimeframe) (int, error)
	SnapshotRanks(ctx context.Context, category LeaderboardCategory, timeframe LeaderboardTimeframe) (int, error)
}
