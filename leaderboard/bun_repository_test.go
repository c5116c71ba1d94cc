package leaderboard

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-gamification/pkg/types"
)

type fixedClock struct {
	t time.Time
}

func (f fixedClock) Now() time.Time { return f.t }

func intPtr(v int) *int { return &v }

func TestRepository_UpsertAndList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, repo.UpsertEntries(ctx, []types.LeaderboardEntry{
		{UserID: a, Category: types.CategoryPosts, Timeframe: types.TimeframeWeekly, Rank: 1, Score: 9},
		{UserID: b, Category: types.CategoryPosts, Timeframe: types.TimeframeWeekly, Rank: 2, Score: 4},
		{UserID: c, Category: types.CategoryPosts, Timeframe: types.TimeframeWeekly, Rank: 3, Score: 0},
	}))

	entries, total, err := repo.ListEntries(ctx, types.LeaderboardFilter{
		Category:   types.CategoryPosts,
		Timeframe:  types.TimeframeWeekly,
		Pagination: types.Pagination{Limit: 10},
	})
	require.NoError(t, err)
	require.Equal(t, 2, total, "zero score rows are excluded")
	require.Len(t, entries, 2)
	require.Equal(t, a, entries[0].UserID)

	count, err := repo.CountRanked(ctx, types.CategoryPosts, types.TimeframeWeekly)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	all, err := repo.ListAllEntries(ctx, types.CategoryPosts, types.TimeframeWeekly)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestRepository_UpsertUpdatesExistingRows(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	userID := uuid.New()

	require.NoError(t, repo.UpsertEntries(ctx, []types.LeaderboardEntry{
		{UserID: userID, Category: types.CategoryReputation, Timeframe: types.TimeframeAllTime, Rank: 20, Score: 30},
	}))
	_, err := repo.SnapshotRanks(ctx, types.CategoryReputation, types.TimeframeAllTime)
	require.NoError(t, err)

	require.NoError(t, repo.UpsertEntries(ctx, []types.LeaderboardEntry{
		{UserID: userID, Category: types.CategoryReputation, Timeframe: types.TimeframeAllTime, Rank: 4, Score: 300, PreviousRank: intPtr(20)},
	}))

	entry, err := repo.GetEntry(ctx, userID, types.CategoryReputation, types.TimeframeAllTime)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, 4, entry.Rank)
	require.Equal(t, 300, entry.Score)
	require.NotNil(t, entry.PreviousRank)
	require.Equal(t, 20, *entry.PreviousRank)
	require.NotNil(t, entry.SnapshotRank, "snapshot survives upserts")
	require.Equal(t, 20, *entry.SnapshotRank)

	all, err := repo.ListAllEntries(ctx, types.CategoryReputation, types.TimeframeAllTime)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestRepository_SnapshotRanks(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	ranked, dropped := uuid.New(), uuid.New()

	require.NoError(t, repo.UpsertEntries(ctx, []types.LeaderboardEntry{
		{UserID: ranked, Category: types.CategoryComments, Timeframe: types.TimeframeMonthly, Rank: 1, Score: 5},
		{UserID: dropped, Category: types.CategoryComments, Timeframe: types.TimeframeMonthly, Rank: 2, Score: 0},
	}))

	affected, err := repo.SnapshotRanks(ctx, types.CategoryComments, types.TimeframeMonthly)
	require.NoError(t, err)
	require.Equal(t, 2, affected)

	entry, err := repo.GetEntry(ctx, ranked, types.CategoryComments, types.TimeframeMonthly)
	require.NoError(t, err)
	require.Equal(t, 1, *entry.SnapshotRank)

	entry, err = repo.GetEntry(ctx, dropped, types.CategoryComments, types.TimeframeMonthly)
	require.NoError(t, err)
	require.Nil(t, entry.SnapshotRank)
}

func TestRepository_ListUserEntries(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	userID := uuid.New()

	require.NoError(t, repo.UpsertEntries(ctx, []types.LeaderboardEntry{
		{UserID: userID, Category: types.CategoryPosts, Timeframe: types.TimeframeWeekly, Rank: 3, Score: 2},
		{UserID: userID, Category: types.CategoryComments, Timeframe: types.TimeframeWeekly, Rank: 5, Score: 0},
	}))

	entries, err := repo.ListUserEntries(ctx, userID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, types.CategoryPosts, entries[0].Category)

	missing, err := repo.GetEntry(ctx, uuid.New(), types.CategoryPosts, types.TimeframeWeekly)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
	})

	content, err := os.ReadFile("../data/sql/migrations/sqlite/00005_leaderboard.up.sql")
	require.NoError(t, err)
	for _, stmt := range strings.Split(string(content), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	repo, err := NewRepository(RepositoryConfig{DB: db, Clock: fixedClock{t: time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)}})
	require.NoError(t, err)
	return repo
}
