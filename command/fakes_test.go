package command

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-gamification/pkg/types"
)

type fixedClock struct {
	t time.Time
}

func (f fixedClock) Now() time.Time { return f.t }

type published struct {
	topic   string
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic: topic, payload: payload})
	return nil
}

func (p *recordingPublisher) topic(topic string) []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []any
	for _, ev := range p.events {
		if ev.topic == topic {
			out = append(out, ev.payload)
		}
	}
	return out
}

func lessID(a, b uuid.UUID) bool { return a.String() < b.String() }

type fakeActivityRepo struct {
	mu      sync.Mutex
	records []types.ActivityRecord
}

func newFakeActivityRepo() *fakeActivityRepo { return &fakeActivityRepo{} }

func (r *fakeActivityRepo) AppendActivity(_ context.Context, rec types.ActivityRecord) (types.ActivityRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	r.records = append(r.records, rec)
	return rec, nil
}

func (r *fakeActivityRepo) add(userID uuid.UUID, kind types.ActivityType, at time.Time, target uuid.UUID, entityID, entityType string) {
	_, _ = r.AppendActivity(context.Background(), types.ActivityRecord{
		UserID:       userID,
		Type:         kind,
		TargetUserID: target,
		EntityID:     entityID,
		EntityType:   entityType,
		CreatedAt:    at,
	})
}

func (r *fakeActivityRepo) CountActivity(_ context.Context, f types.ActivityCountFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, rec := range r.records {
		if f.UserID != uuid.Nil && rec.UserID != f.UserID {
			continue
		}
		if f.TargetUserID != uuid.Nil && rec.TargetUserID != f.TargetUserID {
			continue
		}
		if len(f.Types) > 0 && !containsType(f.Types, rec.Type) {
			continue
		}
		if f.EntityID != "" && rec.EntityID != f.EntityID {
			continue
		}
		if f.EntityType != "" && rec.EntityType != f.EntityType {
			continue
		}
		if f.Since != nil && rec.CreatedAt.Before(*f.Since) {
			continue
		}
		count++
	}
	return count, nil
}

func containsType(list []types.ActivityType, t types.ActivityType) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}

func (r *fakeActivityRepo) ActiveUsersSince(_ context.Context, since time.Time) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[uuid.UUID]struct{}{}
	var out []uuid.UUID
	for _, rec := range r.records {
		if rec.CreatedAt.Before(since) {
			continue
		}
		if _, ok := seen[rec.UserID]; ok {
			continue
		}
		seen[rec.UserID] = struct{}{}
		out = append(out, rec.UserID)
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i], out[j]) })
	return out, nil
}

func (r *fakeActivityRepo) ScoreByUser(_ context.Context, f types.ActivityScoreFilter) ([]types.UserScore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[uuid.UUID]int{}
	for _, rec := range r.records {
		if rec.Type != f.Type {
			continue
		}
		if f.Since != nil && rec.CreatedAt.Before(*f.Since) {
			continue
		}
		key := rec.UserID
		if f.GroupBy == types.ScoreByTarget {
			key = rec.TargetUserID
		}
		if key == uuid.Nil {
			continue
		}
		counts[key]++
	}
	return sortedScores(counts), nil
}

func sortedScores(counts map[uuid.UUID]int) []types.UserScore {
	out := make([]types.UserScore, 0, len(counts))
	for id, score := range counts {
		out = append(out, types.UserScore{UserID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return lessID(out[i].UserID, out[j].UserID)
	})
	return out
}

func (r *fakeActivityRepo) MaxEntityScore(_ context.Context, f types.EntityScoreFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int{}
	best := 0
	for _, rec := range r.records {
		if rec.Type != f.Type || rec.TargetUserID != f.OwnerID || rec.EntityID == "" {
			continue
		}
		if f.EntityType != "" && rec.EntityType != f.EntityType {
			continue
		}
		counts[rec.EntityID]++
		best = max(best, counts[rec.EntityID])
	}
	return best, nil
}

func (r *fakeActivityRepo) FindCreation(_ context.Context, entityID string) (*types.ActivityRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.EntityID == entityID && (rec.Type == types.ActivityPost || rec.Type == types.ActivityComment) {
			out := rec
			return &out, nil
		}
	}
	return nil, nil
}

type fakeStreakRepo struct {
	mu      sync.Mutex
	streaks map[uuid.UUID]types.StreakState
	saveErr map[uuid.UUID]error
}

func newFakeStreakRepo() *fakeStreakRepo {
	return &fakeStreakRepo{streaks: map[uuid.UUID]types.StreakState{}, saveErr: map[uuid.UUID]error{}}
}

func (r *fakeStreakRepo) GetStreak(_ context.Context, userID uuid.UUID) (*types.StreakState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.streaks[userID]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (r *fakeStreakRepo) SaveStreak(_ context.Context, state types.StreakState) (*types.StreakState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.saveErr[state.UserID]; err != nil {
		return nil, err
	}
	r.streaks[state.UserID] = state
	return &state, nil
}

func (r *fakeStreakRepo) ListStreaks(_ context.Context, f types.StreakFilter) ([]types.StreakState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.StreakState
	for _, state := range r.streaks {
		if state.CurrentStreak < f.MinCurrent || state.LastActivityDate == nil {
			continue
		}
		if f.LastActivityFrom != nil && state.LastActivityDate.Before(*f.LastActivityFrom) {
			continue
		}
		if f.LastActivityTo != nil && !state.LastActivityDate.Before(*f.LastActivityTo) {
			continue
		}
		out = append(out, state)
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i].UserID, out[j].UserID) })
	return paginate(out, f.Pagination), nil
}

func paginate[T any](items []T, page types.Pagination) []T {
	if page.Offset >= len(items) {
		return nil
	}
	items = items[page.Offset:]
	if page.Limit > 0 && len(items) > page.Limit {
		items = items[:page.Limit]
	}
	return items
}

type fakeReputationRepo struct {
	mu     sync.Mutex
	states    map[uuid.UUID]types.ReputationState
	events    []types.ReputationEvent
	appendErr error
}

func newFakeReputationRepo() *fakeReputationRepo {
	return &fakeReputationRepo{states: map[uuid.UUID]types.ReputationState{}}
}

func (r *fakeReputationRepo) GetReputation(_ context.Context, userID uuid.UUID) (*types.ReputationState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[userID]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (r *fakeReputationRepo) SaveReputation(_ context.Context, state types.ReputationState) (*types.ReputationState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state.UserID] = state
	return &state, nil
}

func (r *fakeReputationRepo) sortedStates() []types.ReputationState {
	out := make([]types.ReputationState, 0, len(r.states))
	for _, state := range r.states {
		out = append(out, state)
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i].UserID, out[j].UserID) })
	return out
}

func (r *fakeReputationRepo) ListReputations(_ context.Context, page types.Pagination) ([]types.ReputationState, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sortedStates()
	return paginate(all, page), len(all), nil
}

func (r *fakeReputationRepo) TopReputations(_ context.Context, limit int) ([]types.ReputationState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sortedStates()
	sort.SliceStable(all, func(i, j int) bool { return all[i].TotalPoints > all[j].TotalPoints })
	return paginate(all, types.Pagination{Limit: limit}), nil
}

func (r *fakeReputationRepo) AppendEvent(_ context.Context, ev types.ReputationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *fakeReputationRepo) SumEvents(_ context.Context, f types.ReputationEventFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := 0
	for _, ev := range r.events {
		if f.UserID != uuid.Nil && ev.UserID != f.UserID {
			continue
		}
		if f.Since != nil && ev.CreatedAt.Before(*f.Since) {
			continue
		}
		if f.Until != nil && !ev.CreatedAt.Before(*f.Until) {
			continue
		}
		sum += ev.Delta
	}
	return sum, nil
}

func (r *fakeReputationRepo) NetPointsByUser(_ context.Context, since time.Time) ([]types.UserScore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sums := map[uuid.UUID]int{}
	for _, ev := range r.events {
		if ev.CreatedAt.Before(since) {
			continue
		}
		sums[ev.UserID] += ev.Delta
	}
	for id, v := range sums {
		if v <= 0 {
			delete(sums, id)
		}
	}
	return sortedScores(sums), nil
}

func (r *fakeReputationRepo) eventsOf(kind types.ReputationEventKind) []types.ReputationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.ReputationEvent
	for _, ev := range r.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

type awardKey struct {
	user  uuid.UUID
	badge uuid.UUID
}

type fakeBadgeRepo struct {
	mu     sync.Mutex
	badges []types.Badge
	awards map[awardKey]types.UserBadge
}

func newFakeBadgeRepo(badges ...types.Badge) *fakeBadgeRepo {
	repo := &fakeBadgeRepo{awards: map[awardKey]types.UserBadge{}}
	for _, b := range badges {
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		repo.badges = append(repo.badges, b)
	}
	return repo
}

func (r *fakeBadgeRepo) byName(name string) types.Badge {
	for _, b := range r.badges {
		if b.Name == name {
			return b
		}
	}
	return types.Badge{}
}

func (r *fakeBadgeRepo) ListBadges(_ context.Context, f types.BadgeFilter) ([]types.Badge, error) {
	var out []types.Badge
	for _, b := range r.badges {
		if f.ActiveOnly && !b.IsActive {
			continue
		}
		if len(f.Kinds) > 0 {
			match := false
			for _, k := range f.Kinds {
				if k == b.RequirementKind {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *fakeBadgeRepo) GetBadge(_ context.Context, id uuid.UUID) (*types.Badge, error) {
	for _, b := range r.badges {
		if b.ID == id {
			out := b
			return &out, nil
		}
	}
	return nil, nil
}

func (r *fakeBadgeRepo) GetBadgeByName(_ context.Context, name string) (*types.Badge, error) {
	for _, b := range r.badges {
		if b.Name == name {
			out := b
			return &out, nil
		}
	}
	return nil, nil
}

func (r *fakeBadgeRepo) SaveBadge(_ context.Context, badge types.Badge) (*types.Badge, error) {
	r.badges = append(r.badges, badge)
	return &badge, nil
}

func (r *fakeBadgeRepo) OwnedBadgeIDs(_ context.Context, userID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[uuid.UUID]struct{}{}
	for key := range r.awards {
		if key.user == userID {
			out[key.badge] = struct{}{}
		}
	}
	return out, nil
}

func (r *fakeBadgeRepo) GetUserBadge(_ context.Context, userID, badgeID uuid.UUID) (*types.UserBadge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	award, ok := r.awards[awardKey{userID, badgeID}]
	if !ok {
		return nil, nil
	}
	return &award, nil
}

func (r *fakeBadgeRepo) CreateUserBadge(_ context.Context, award types.UserBadge) (*types.UserBadge, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := awardKey{award.UserID, award.BadgeID}
	if existing, ok := r.awards[key]; ok {
		return &existing, false, nil
	}
	r.awards[key] = award
	return &award, true, nil
}

func (r *fakeBadgeRepo) ListUserBadges(_ context.Context, f types.UserBadgeFilter) ([]types.UserBadge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.UserBadge
	for key, award := range r.awards {
		if key.user != f.UserID {
			continue
		}
		if f.DisplayedOnly && !award.IsDisplayed {
			continue
		}
		out = append(out, award)
	}
	return out, nil
}

func (r *fakeBadgeRepo) SetDisplayed(_ context.Context, userID, badgeID uuid.UUID, displayed bool) (*types.UserBadge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := awardKey{userID, badgeID}
	award, ok := r.awards[key]
	if !ok {
		return nil, types.ErrUserBadgeNotFound
	}
	award.IsDisplayed = displayed
	r.awards[key] = award
	return &award, nil
}

func (r *fakeBadgeRepo) awardCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.awards)
}

type boardKey struct {
	user      uuid.UUID
	category  types.LeaderboardCategory
	timeframe types.LeaderboardTimeframe
}

type fakeLeaderboardRepo struct {
	mu      sync.Mutex
	entries map[boardKey]types.LeaderboardEntry
}

func newFakeLeaderboardRepo() *fakeLeaderboardRepo {
	return &fakeLeaderboardRepo{entries: map[boardKey]types.LeaderboardEntry{}}
}

func (r *fakeLeaderboardRepo) board(category types.LeaderboardCategory, timeframe types.LeaderboardTimeframe, rankedOnly bool) []types.LeaderboardEntry {
	var out []types.LeaderboardEntry
	for key, entry := range r.entries {
		if key.category != category || key.timeframe != timeframe {
			continue
		}
		if rankedOnly && entry.Score <= 0 {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return lessID(out[i].UserID, out[j].UserID)
	})
	return out
}

func (r *fakeLeaderboardRepo) ListEntries(_ context.Context, f types.LeaderboardFilter) ([]types.LeaderboardEntry, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.board(f.Category, f.Timeframe, true)
	return paginate(all, f.Pagination), len(all), nil
}

func (r *fakeLeaderboardRepo) ListAllEntries(_ context.Context, category types.LeaderboardCategory, timeframe types.LeaderboardTimeframe) ([]types.LeaderboardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board(category, timeframe, false), nil
}

func (r *fakeLeaderboardRepo) GetEntry(_ context.Context, userID uuid.UUID, category types.LeaderboardCategory, timeframe types.LeaderboardTimeframe) (*types.LeaderboardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[boardKey{userID, category, timeframe}]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (r *fakeLeaderboardRepo) ListUserEntries(_ context.Context, userID uuid.UUID) ([]types.LeaderboardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.LeaderboardEntry
	for key, entry := range r.entries {
		if key.user == userID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *fakeLeaderboardRepo) UpsertEntries(_ context.Context, entries []types.LeaderboardEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range entries {
		key := boardKey{entry.UserID, entry.Category, entry.Timeframe}
		if existing, ok := r.entries[key]; ok {
			entry.ID = existing.ID
			entry.SnapshotRank = existing.SnapshotRank
		} else if entry.ID == uuid.Nil {
			entry.ID = uuid.New()
		}
		r.entries[key] = entry
	}
	return nil
}

func (r *fakeLeaderboardRepo) CountRanked(_ context.Context, category types.LeaderboardCategory, timeframe types.LeaderboardTimeframe) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.board(category, timeframe, true)), nil
}

func (r *fakeLeaderboardRepo) SnapshotRanks(_ context.Context, category types.LeaderboardCategory, timeframe types.LeaderboardTimeframe) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for key, entry := range r.entries {
		if key.category != category || key.timeframe != timeframe {
			continue
		}
		if entry.Score > 0 {
			rank := entry.Rank
			entry.SnapshotRank = &rank
		} else {
			entry.SnapshotRank = nil
		}
		r.entries[key] = entry
		count++
	}
	return count, nil
}

func (r *fakeLeaderboardRepo) entry(userID uuid.UUID, category types.LeaderboardCategory, timeframe types.LeaderboardTimeframe) types.LeaderboardEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[boardKey{userID, category, timeframe}]
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) InvalidateLeaderboards() { c.calls++ }

var (
	_ types.ActivityRepository    = (*fakeActivityRepo)(nil)
	_ types.StreakRepository      = (*fakeStreakRepo)(nil)
	_ types.ReputationRepository  = (*fakeReputationRepo)(nil)
	_ types.BadgeRepository       = (*fakeBadgeRepo)(nil)
	_ types.LeaderboardRepository = (*fakeLeaderboardRepo)(nil)
	_ types.Publisher             = (*recordingPublisher)(nil)
)
