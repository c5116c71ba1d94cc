package query

import (
	"context"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"

	"github.com/goliatone/go-gamification/pkg/types"
)

const (
	defaultPageSize  = 25
	maxPageSize      = 100
	defaultCacheSize = 256
)

// LeaderboardInput selects one page of a board. Page is 1 based.
type LeaderboardInput struct {
	Category  string
	Timeframe string
	Page      int
	PageSize  int
}

// LeaderboardQuery serves board pages through an LRU cache that a
// recompute purges.
type LeaderboardQuery struct {
	repo  types.LeaderboardRepository
	cache *lru.Cache
}

// NewLeaderboardQuery constructs the board reader. cacheSize <= 0 selects
// the default size.
func NewLeaderboardQuery(repo types.LeaderboardRepository, cacheSize int) (*LeaderboardQuery, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &LeaderboardQuery{repo: repo, cache: cache}, nil
}

var _ gocommand.Querier[LeaderboardInput, types.LeaderboardPage] = (*LeaderboardQuery)(nil)

// Query returns the requested page with the ranked total.
func (q *LeaderboardQuery) Query(ctx context.Context, input LeaderboardInput) (types.LeaderboardPage, error) {
	if q.repo == nil {
		return types.LeaderboardPage{}, types.ErrMissingLeaderboardRepository
	}
	category, timeframe, err := parseBoard(input.Category, input.Timeframe)
	if err != nil {
		return types.LeaderboardPage{}, err
	}
	page := max(input.Page, 1)
	size := input.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	size = min(size, maxPageSize)

	key := fmt.Sprintf("%s|%s|%d|%d", category, timeframe, page, size)
	if cached, ok := q.cache.Get(key); ok {
		if result, ok := cached.(types.LeaderboardPage); ok {
			return result, nil
		}
	}

	entries, total, err := q.repo.ListEntries(ctx, types.LeaderboardFilter{
		Category:   category,
		Timeframe:  timeframe,
		Pagination: types.Pagination{Limit: size, Offset: (page - 1) * size},
	})
	if err != nil {
		return types.LeaderboardPage{}, err
	}
	result := types.LeaderboardPage{
		Category:  category,
		Timeframe: timeframe,
		Entries:   entries,
		Total:     total,
		Page:      page,
		PageSize:  size,
	}
	q.cache.Add(key, result)
	return result, nil
}

// InvalidateLeaderboards drops every cached page.
func (q *LeaderboardQuery) InvalidateLeaderboards() {
	q.cache.Purge()
}

// UserRanksInput selects a user's positions across boards.
type UserRanksInput struct {
	UserID uuid.UUID
}

// UserRanksQuery lists every board a user currently ranks on.
type UserRanksQuery struct {
	repo types.LeaderboardRepository
}

// NewUserRanksQuery constructs the ranks reader.
func NewUserRanksQuery(repo types.LeaderboardRepository) *UserRanksQuery {
	return &UserRanksQuery{repo: repo}
}

var _ gocommand.Querier[UserRanksInput, []types.LeaderboardEntry] = (*UserRanksQuery)(nil)

// Query returns ranked entries only; rows of users that fell off a board are
// omitted.
func (q *UserRanksQuery) Query(ctx context.Context, input UserRanksInput) ([]types.LeaderboardEntry, error) {
	if q.repo == nil {
		return nil, types.ErrMissingLeaderboardRepository
	}
	if input.UserID == uuid.Nil {
		return nil, invalidInput(types.ErrUserIDRequired, "user id required")
	}
	entries, err := q.repo.ListUserEntries(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	ranked := make([]types.LeaderboardEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Score > 0 {
			ranked = append(ranked, entry)
		}
	}
	return ranked, nil
}

// UserPositionInput selects one board position.
type UserPositionInput struct {
	UserID    uuid.UUID
	Category  string
	Timeframe string
}

// UserPositionQuery returns a user's entry on one board.
type UserPositionQuery struct {
	repo types.LeaderboardRepository
}

// NewUserPositionQuery constructs the position reader.
func NewUserPositionQuery(repo types.LeaderboardRepository) *UserPositionQuery {
	return &UserPositionQuery{repo: repo}
}

var _ gocommand.Querier[UserPositionInput, *types.LeaderboardEntry] = (*UserPositionQuery)(nil)

// Query fails with a not found error when the user is not ranked.
func (q *UserPositionQuery) Query(ctx context.Context, input UserPositionInput) (*types.LeaderboardEntry, error) {
	if q.repo == nil {
		return nil, types.ErrMissingLeaderboardRepository
	}
	if input.UserID == uuid.Nil {
		return nil, invalidInput(types.ErrUserIDRequired, "user id required")
	}
	category, timeframe, err := parseBoard(input.Category, input.Timeframe)
	if err != nil {
		return nil, err
	}
	entry, err := q.repo.GetEntry(ctx, input.UserID, category, timeframe)
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.Score <= 0 {
		return nil, notFound(types.ErrLeaderboardEntryNotFound, "leaderboard position not found")
	}
	return entry, nil
}

func parseBoard(rawCategory, rawTimeframe string) (types.LeaderboardCategory, types.LeaderboardTimeframe, error) {
	category, err := types.ParseCategory(rawCategory)
	if err != nil {
		return "", "", invalidInput(err, fmt.Sprintf("invalid leaderboard category %q", rawCategory))
	}
	timeframe, err := types.ParseTimeframe(rawTimeframe)
	if err != nil {
		return "", "", invalidInput(err, fmt.Sprintf("invalid leaderboard timeframe %q", rawTimeframe))
	}
	return category, timeframe, nil
}
