package command

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-gamification/pkg/rules"
	"github.com/goliatone/go-gamification/pkg/types"
)

// ReputationCommandConfig wires dependencies for reputation commands.
type ReputationCommandConfig struct {
	Repository types.ReputationRepository
	Activity   types.ActivityRepository
	Publisher  types.Publisher
	Clock      types.Clock
	IDGen      types.IDGenerator
	Logger     types.Logger
	// Decay overrides rules.DefaultDecayPolicy when Percent is set.
	Decay     rules.DecayPolicy
	BatchSize int
}

type pointChange struct {
	userID uuid.UUID
	delta  int
	kind   types.ReputationEventKind
	reason string
}

// reputationLedger applies signed point changes and records them.
type reputationLedger struct {
	repo   types.ReputationRepository
	pub    types.Publisher
	clock  types.Clock
	idGen  types.IDGenerator
	logger types.Logger
}

func newReputationLedger(cfg ReputationCommandConfig) reputationLedger {
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}
	return reputationLedger{
		repo:   cfg.Repository,
		pub:    safePublisher(cfg.Publisher),
		clock:  safeClock(cfg.Clock),
		idGen:  idGen,
		logger: safeLogger(cfg.Logger),
	}
}

// apply rolls the weekly window, adds the delta, persists the state and
// appends a ledger event. The highest milestone crossed fires one signal.
func (l reputationLedger) apply(ctx context.Context, change pointChange) (types.ReputationState, error) {
	at := now(l.clock)
	state := types.ReputationState{UserID: change.userID}
	existing, err := l.repo.GetReputation(ctx, change.userID)
	if err != nil {
		return types.ReputationState{}, err
	}
	if existing != nil {
		state = *existing
	}

	state = rules.RollWeeklyWindow(state, at)
	before := state.TotalPoints
	state = rules.ApplyPoints(state, change.delta)
	state.UpdatedAt = at

	saved, err := l.repo.SaveReputation(ctx, state)
	if err != nil {
		return types.ReputationState{}, err
	}
	if saved != nil {
		state = *saved
	}
	if err := l.repo.AppendEvent(ctx, types.ReputationEvent{
		ID:         l.idGen.UUID(),
		UserID:     change.userID,
		Kind:       change.kind,
		Delta:      state.TotalPoints - before,
		Reason:     change.reason,
		TotalAfter: state.TotalPoints,
		CreatedAt:  at,
	}); err != nil {
		return state, err
	}

	if milestone, ok := rules.HighestCrossedMilestone(before, state.TotalPoints); ok {
		emitSignal(ctx, l.pub, l.logger, types.ReputationMilestoneSignal{
			UserID:      change.userID,
			Milestone:   milestone,
			TotalPoints: state.TotalPoints,
		})
	}
	return state, nil
}
