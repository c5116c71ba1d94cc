package service

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-gamification/activity"
	"github.com/goliatone/go-gamification/badge"
	"github.com/goliatone/go-gamification/leaderboard"
	"github.com/goliatone/go-gamification/pkg/types"
	"github.com/goliatone/go-gamification/query"
	"github.com/goliatone/go-gamification/reputation"
	"github.com/goliatone/go-gamification/scheduler"
	"github.com/goliatone/go-gamification/signals"
	"github.com/goliatone/go-gamification/streak"
)

func TestNewRequiresRepositories(t *testing.T) {
	_, err := New(Config{})
	require.ErrorIs(t, err, types.ErrMissingActivityRepository)

	h := newHarness(t, nil)
	cfg := h.cfg
	cfg.LeaderboardRepository = nil
	_, err = New(cfg)
	require.ErrorIs(t, err, types.ErrMissingLeaderboardRepository)

	require.True(t, h.engine.Ready())
	require.NoError(t, h.engine.HealthCheck(context.Background()))
}

func TestEngineRegistersJobTable(t *testing.T) {
	h := newHarness(t, nil)
	require.Equal(t, []string{
		JobBadgePercentile,
		JobBadgeSweep,
		JobLeaderboardRecompute,
		JobLeaderboardWeekly,
		JobReputationDecay,
		JobStreakBreak,
		JobStreakRisk,
	}, h.engine.Scheduler().Jobs())

	for _, job := range h.engine.Jobs() {
		require.NoError(t, h.engine.RunJob(context.Background(), job.Name), job.Name)
	}
}

func TestEngineJobsHonorFeatureGate(t *testing.T) {
	gate := &stubFeatureGate{enabled: false}
	h := newHarness(t, gate)

	err := h.engine.RunJob(context.Background(), JobReputationDecay)
	require.ErrorIs(t, err, scheduler.ErrJobDisabled)
	require.Equal(t, []string{"gamification.jobs.reputation.decay"}, gate.keys)
}

func TestHandlersPostCommentAndVote(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	author, replier := uuid.New(), uuid.New()
	postID, commentID := uuid.New(), uuid.New()

	require.NoError(t, h.bus.Publish(ctx, types.TopicCommentCreated, types.CommentCreatedEvent{
		UserID:    author,
		CommentID: postID,
	}))
	require.NoError(t, h.bus.Publish(ctx, types.TopicCommentCreated, &types.CommentCreatedEvent{
		UserID:        replier,
		CommentID:     commentID,
		ParentID:      &postID,
		ParentOwnerID: &author,
	}))
	require.NoError(t, h.bus.Publish(ctx, types.TopicCommentVoted, types.CommentVotedEvent{
		VoterUserID:        replier,
		CommentID:          postID,
		CommentOwnerUserID: author,
		VoteType:           types.VoteUp,
	}))

	authorRep, err := h.engine.Queries().Reputation.Query(ctx, query.ReputationInput{UserID: author})
	require.NoError(t, err)
	require.Equal(t, 10, authorRep.State.TotalPoints)

	replierRep, err := h.engine.Queries().Reputation.Query(ctx, query.ReputationInput{UserID: replier})
	require.NoError(t, err)
	require.Equal(t, 7, replierRep.State.TotalPoints)

	received, err := h.activity.CountActivity(ctx, types.ActivityCountFilter{TargetUserID: author})
	require.NoError(t, err)
	require.Equal(t, 2, received)

	upvotes, err := h.activity.CountActivity(ctx, types.ActivityCountFilter{
		UserID:     replier,
		Types:      []types.ActivityType{types.ActivityUpvote},
		EntityType: types.EntityTypePost,
	})
	require.NoError(t, err)
	require.Equal(t, 1, upvotes)

	earned, err := h.engine.Queries().UserBadges.Query(ctx, query.UserBadgesInput{UserID: author})
	require.NoError(t, err)
	require.Len(t, earned, 1)
	require.Equal(t, "First Post", earned[0].Badge.Name)

	signalsSeen := h.signals(types.TopicBadgeEarned)
	require.Len(t, signalsSeen, 1)
	require.Equal(t, author, signalsSeen[0].(types.BadgeEarnedSignal).UserID)

	require.NoError(t, h.engine.RunJob(ctx, JobLeaderboardRecompute))
	page, err := h.engine.Queries().Leaderboard.Query(ctx, query.LeaderboardInput{Category: "posts", Timeframe: "all_time"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, author, page.Entries[0].UserID)
	require.Equal(t, 1, page.Entries[0].Rank)
}

func TestHandlersLoginStreakChain(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	userID := uuid.New()

	for day := 0; day < 3; day++ {
		if day > 0 {
			h.clock.Advance(24 * time.Hour)
		}
		require.NoError(t, h.engine.Handlers().HandleUserLoggedIn(ctx, types.UserLoggedInEvent{UserID: userID}))
	}

	state, err := h.engine.Queries().Streak.Query(ctx, query.StreakInput{UserID: userID})
	require.NoError(t, err)
	require.Equal(t, 3, state.CurrentStreak)
	require.Equal(t, 3, state.LongestStreak)

	rep, err := h.engine.Queries().Reputation.Query(ctx, query.ReputationInput{UserID: userID})
	require.NoError(t, err)
	// three logins plus the 3 day streak bonus
	require.Equal(t, 8, rep.State.TotalPoints)

	milestones := h.signals(types.TopicStreakMilestone)
	require.Len(t, milestones, 1)
	require.Equal(t, 3, milestones[0].(types.StreakMilestoneSignal).Milestone)

	earned, err := h.engine.Queries().UserBadges.Query(ctx, query.UserBadgesInput{UserID: userID})
	require.NoError(t, err)
	require.Len(t, earned, 1)
	require.Equal(t, "Three Day Streak", earned[0].Badge.Name)

	require.NoError(t, h.engine.Handlers().HandleUserLoggedIn(ctx, types.UserLoggedInEvent{UserID: userID}))
	require.Len(t, h.signals(types.TopicStreakMilestone), 1)
}

func TestHandlersStreakBreakJob(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	userID := uuid.New()

	require.NoError(t, h.engine.Handlers().HandleUserLoggedIn(ctx, types.UserLoggedInEvent{UserID: userID}))
	h.clock.Advance(3 * 24 * time.Hour)
	require.NoError(t, h.engine.RunJob(ctx, JobStreakBreak))

	state, err := h.engine.Queries().Streak.Query(ctx, query.StreakInput{UserID: userID})
	require.NoError(t, err)
	require.Zero(t, state.CurrentStreak)
	require.Equal(t, 1, state.LongestStreak)

	broken := h.signals(types.TopicStreakBroken)
	require.Len(t, broken, 1)
	require.Equal(t, 1, broken[0].(types.StreakBrokenSignal).PreviousStreak)
}

func TestHandlersRejectBadPayloads(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)

	err := h.bus.Publish(ctx, types.TopicUserLoggedIn, "not-an-event")
	require.ErrorIs(t, err, ErrUnexpectedPayload)

	err = h.engine.Handlers().HandleCommentVoted(ctx, types.CommentVotedEvent{VoterUserID: uuid.New(), VoteType: "meh"})
	require.ErrorIs(t, err, types.ErrInvalidActivityType)

	err = h.engine.Handlers().HandleCommentCreated(ctx, types.CommentCreatedEvent{})
	require.ErrorIs(t, err, types.ErrUserIDRequired)
}

func TestSubscribeReturnsUnsubscribe(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.unsubscribe()

	require.NoError(t, h.bus.Publish(ctx, types.TopicUserLoggedIn, types.UserLoggedInEvent{UserID: uuid.New()}))
	count, err := h.activity.CountActivity(ctx, types.ActivityCountFilter{})
	require.NoError(t, err)
	require.Zero(t, count)
}

type harness struct {
	cfg         Config
	engine      *Engine
	bus         *signals.Bus
	clock       *mutableClock
	activity    *activity.Repository
	unsubscribe func()

	mu       sync.Mutex
	captured map[string][]any
}

func newHarness(t *testing.T, gate featuregate.FeatureGate) *harness {
	t.Helper()
	ctx := context.Background()
	db := newTestDB(t)
	clock := &mutableClock{t: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}

	activityRepo, err := activity.NewRepository(activity.RepositoryConfig{DB: db, Clock: clock})
	require.NoError(t, err)
	streakRepo, err := streak.NewRepository(streak.RepositoryConfig{DB: db, Clock: clock})
	require.NoError(t, err)
	reputationRepo, err := reputation.NewRepository(reputation.RepositoryConfig{DB: db, Clock: clock})
	require.NoError(t, err)
	badgeRepo, err := badge.NewRepository(badge.RepositoryConfig{DB: db, Clock: clock})
	require.NoError(t, err)
	leaderboardRepo, err := leaderboard.NewRepository(leaderboard.RepositoryConfig{DB: db, Clock: clock})
	require.NoError(t, err)
	_, err = badge.Seed(ctx, badgeRepo, badge.DefaultCatalog())
	require.NoError(t, err)

	h := &harness{
		bus:      signals.NewBus(),
		clock:    clock,
		activity: activityRepo,
		captured: make(map[string][]any),
	}
	h.bus.Subscribe(signals.AllTopics, func(_ context.Context, payload any) error {
		if signal, ok := payload.(types.Signal); ok {
			h.mu.Lock()
			h.captured[signal.SignalTopic()] = append(h.captured[signal.SignalTopic()], payload)
			h.mu.Unlock()
		}
		return nil
	})

	h.cfg = Config{
		ActivityRepository:    activityRepo,
		StreakRepository:      streakRepo,
		ReputationRepository:  reputationRepo,
		BadgeRepository:       badgeRepo,
		LeaderboardRepository: leaderboardRepo,
		Publisher:             h.bus,
		Clock:                 clock,
		FeatureGate:           gate,
	}
	h.engine, err = New(h.cfg)
	require.NoError(t, err)
	h.unsubscribe = h.engine.Subscribe(h.bus)
	return h
}

func (h *harness) signals(topic string) []any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]any(nil), h.captured[topic]...)
}

type mutableClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *mutableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *mutableClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type stubFeatureGate struct {
	enabled bool
	err     error
	keys    []string
}

func (s *stubFeatureGate) Enabled(_ context.Context, key string, _ ...featuregate.ResolveOption) (bool, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return false, s.err
	}
	return s.enabled, nil
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
	})

	files, err := filepath.Glob("../data/sql/migrations/sqlite/*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	sort.Strings(files)
	for _, file := range files {
		content, err := os.ReadFile(file)
		require.NoError(t, err)
		for _, stmt := range strings.Split(string(content), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			_, err := db.Exec(stmt)
			require.NoError(t, err)
		}
	}
	return db
}
