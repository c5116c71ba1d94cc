package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-gamification/pkg/rules"
	"github.com/goliatone/go-gamification/pkg/types"
)

func TestStreakExtensionBonusCrossesMilestoneOnce(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := fixedClock{t: at}
	userID := uuid.New()
	pub := &recordingPublisher{}

	streaks := newFakeStreakRepo()
	streaks.streaks[userID] = types.StreakState{UserID: userID, CurrentStreak: 6, LongestStreak: 6, LastActivityDate: day(2024, 3, 9)}
	reputation := newFakeReputationRepo()
	resetAt := at.Add(-24 * time.Hour)
	reputation.states[userID] = types.ReputationState{UserID: userID, TotalPoints: 90, WeeklyPoints: 20, WeeklyPointsLastReset: &resetAt}

	record := NewStreakRecordCommand(StreakCommandConfig{Repository: streaks, Publisher: pub, Clock: clock})
	repCfg := ReputationCommandConfig{Repository: reputation, Publisher: pub, Clock: clock}
	bonus := NewStreakBonusCommand(repCfg)
	award := NewReputationAwardCommand(repCfg)

	var streak types.StreakState
	var transition rules.StreakTransition
	require.NoError(t, record.Execute(ctx, StreakRecordInput{UserID: userID, Result: &streak, Transition: &transition}))
	require.True(t, transition.MilestoneReached())

	var state types.ReputationState
	var applied int
	require.NoError(t, bonus.Execute(ctx, StreakBonusInput{UserID: userID, CurrentStreak: streak.CurrentStreak, Result: &state, Bonus: &applied}))
	require.Equal(t, 15, applied)
	require.Equal(t, 105, state.TotalPoints)
	require.Equal(t, 35, state.WeeklyPoints)

	require.NoError(t, award.Execute(ctx, ReputationAwardInput{UserID: userID, ActivityType: types.ActivityPost, Result: &state}))
	require.Equal(t, 115, state.TotalPoints)

	milestones := pub.topic(types.TopicReputationMilestone)
	require.Len(t, milestones, 1)
	require.Equal(t, types.ReputationMilestoneSignal{UserID: userID, Milestone: 100, TotalPoints: 105}, milestones[0])

	bonuses := reputation.eventsOf(types.ReputationEventStreakBonus)
	require.Len(t, bonuses, 1)
	require.Equal(t, 15, bonuses[0].Delta)
	require.Equal(t, 105, bonuses[0].TotalAfter)
	require.Equal(t, "streak_7", bonuses[0].Reason)
}

func TestReputationAwardCommand_HighestMilestoneOnly(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	reputation := newFakeReputationRepo()
	reputation.states[userID] = types.ReputationState{UserID: userID, TotalPoints: 95}
	pub := &recordingPublisher{}
	cmd := NewStreakBonusCommand(ReputationCommandConfig{Repository: reputation, Publisher: pub, Clock: fixedClock{t: time.Now().UTC()}})

	var state types.ReputationState
	require.NoError(t, cmd.Execute(ctx, StreakBonusInput{UserID: userID, CurrentStreak: 400, Result: &state}))
	require.Equal(t, 1095, state.TotalPoints)

	milestones := pub.topic(types.TopicReputationMilestone)
	require.Len(t, milestones, 1)
	require.Equal(t, 1000, milestones[0].(types.ReputationMilestoneSignal).Milestone)
}

func TestReputationAwardCommand_RollsWeeklyWindow(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	stale, fresh := uuid.New(), uuid.New()
	reputation := newFakeReputationRepo()
	expired := at.Add(-8 * 24 * time.Hour)
	reputation.states[stale] = types.ReputationState{UserID: stale, TotalPoints: 200, WeeklyPoints: 50, WeeklyPointsLastReset: &expired}
	cmd := NewReputationAwardCommand(ReputationCommandConfig{Repository: reputation, Clock: fixedClock{t: at}})

	var state types.ReputationState
	require.NoError(t, cmd.Execute(ctx, ReputationAwardInput{UserID: stale, ActivityType: types.ActivityComment, Result: &state}))
	require.Equal(t, 205, state.TotalPoints)
	require.Equal(t, 5, state.WeeklyPoints)
	require.Equal(t, at, *state.WeeklyPointsLastReset)

	require.NoError(t, cmd.Execute(ctx, ReputationAwardInput{UserID: fresh, ActivityType: types.ActivityLogin, Result: &state}))
	require.Equal(t, 1, state.TotalPoints)
	require.Equal(t, 1, state.WeeklyPoints)
	require.NotNil(t, state.WeeklyPointsLastReset)
}

func TestReputationCommands_Validation(t *testing.T) {
	ctx := context.Background()
	cfg := ReputationCommandConfig{Repository: newFakeReputationRepo()}

	err := NewReputationAwardCommand(cfg).Execute(ctx, ReputationAwardInput{UserID: uuid.New(), ActivityType: "share"})
	require.ErrorIs(t, err, types.ErrInvalidActivityType)

	err = NewReputationAwardCommand(ReputationCommandConfig{}).Execute(ctx, ReputationAwardInput{UserID: uuid.New(), ActivityType: types.ActivityPost})
	require.ErrorIs(t, err, types.ErrMissingReputationRepository)

	err = NewStreakBonusCommand(cfg).Execute(ctx, StreakBonusInput{UserID: uuid.New()})
	require.ErrorIs(t, err, ErrStreakLengthRequired)

	var applied int
	require.NoError(t, NewStreakBonusCommand(cfg).Execute(ctx, StreakBonusInput{UserID: uuid.New(), CurrentStreak: 2, Bonus: &applied}))
	require.Zero(t, applied)
}

func TestWeeklyDecayCommand(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 3, 11, 0, 30, 0, 0, time.UTC)
	activity := newFakeActivityRepo()
	reputation := newFakeReputationRepo()

	decayed, busy, empty, capped := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	reputation.states[decayed] = types.ReputationState{UserID: decayed, TotalPoints: 1800, WeeklyPoints: 300}
	reputation.states[busy] = types.ReputationState{UserID: busy, TotalPoints: 1800, WeeklyPoints: 300}
	reputation.states[empty] = types.ReputationState{UserID: empty, TotalPoints: 600, WeeklyPoints: 0}
	reputation.states[capped] = types.ReputationState{UserID: capped, TotalPoints: 400, WeeklyPoints: 400}

	activity.add(decayed, types.ActivityLogin, at.Add(-time.Hour), uuid.Nil, "", "")
	activity.add(decayed, types.ActivityLogin, at.Add(-2*time.Hour), uuid.Nil, "", "")
	for i := 0; i < 5; i++ {
		activity.add(busy, types.ActivityComment, at.Add(-time.Duration(i+1)*time.Hour), uuid.Nil, "", "")
	}
	for i := 0; i < 6; i++ {
		activity.add(capped, types.ActivityPost, at.Add(-10*24*time.Hour), uuid.Nil, "", "")
	}

	cmd := NewWeeklyDecayCommand(ReputationCommandConfig{
		Repository: reputation,
		Activity:   activity,
		Clock:      fixedClock{t: at},
		BatchSize:  2,
	})
	var result SweepResult
	require.NoError(t, cmd.Execute(ctx, WeeklyDecayInput{Result: &result}))
	require.Equal(t, 4, result.Processed)
	require.Equal(t, 2, result.Affected)
	require.Equal(t, 2, result.Skipped)
	require.Zero(t, result.Failed)

	require.Equal(t, 1770, reputation.states[decayed].TotalPoints)
	require.Equal(t, 270, reputation.states[decayed].WeeklyPoints)
	require.Equal(t, 1800, reputation.states[busy].TotalPoints)
	require.Equal(t, 375, reputation.states[capped].TotalPoints)
	require.Equal(t, 375, reputation.states[capped].WeeklyPoints)

	events := reputation.eventsOf(types.ReputationEventDecay)
	require.Len(t, events, 2)
	deltas := map[uuid.UUID]int{}
	for _, ev := range events {
		deltas[ev.UserID] = ev.Delta
	}
	require.Equal(t, -30, deltas[decayed])
	require.Equal(t, -25, deltas[capped])
}

func TestWeeklyDecayCommand_CountsReductionWhenEventFails(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 3, 11, 0, 30, 0, 0, time.UTC)
	reputation := newFakeReputationRepo()
	reputation.appendErr = errors.New("ledger unavailable")
	userID := uuid.New()
	reputation.states[userID] = types.ReputationState{UserID: userID, TotalPoints: 1800, WeeklyPoints: 300}

	cmd := NewWeeklyDecayCommand(ReputationCommandConfig{
		Repository: reputation,
		Activity:   newFakeActivityRepo(),
		Clock:      fixedClock{t: at},
	})
	var result SweepResult
	require.NoError(t, cmd.Execute(ctx, WeeklyDecayInput{Result: &result}))
	require.Equal(t, 1, result.Processed)
	require.Equal(t, 1, result.Affected)
	require.Zero(t, result.Failed)
	require.Equal(t, 1770, reputation.states[userID].TotalPoints)
	require.Empty(t, reputation.events)
}
