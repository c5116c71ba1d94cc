package query

import (
	"context"
	"time"

	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"

	"github.com/goliatone/go-gamification/pkg/rules"
	"github.com/goliatone/go-gamification/pkg/types"
)

const streakBatchSize = 500

// StreakQueryConfig wires the streak readers.
type StreakQueryConfig struct {
	Repository types.StreakRepository
	Clock      types.Clock
	Location   *time.Location
}

func (cfg StreakQueryConfig) normalized() StreakQueryConfig {
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return cfg
}

// StreakInput selects one user.
type StreakInput struct {
	UserID uuid.UUID
}

// StreakQuery returns a user's streak.
type StreakQuery struct {
	repo types.StreakRepository
}

// NewStreakQuery constructs the streak reader.
func NewStreakQuery(cfg StreakQueryConfig) *StreakQuery {
	return &StreakQuery{repo: cfg.Repository}
}

var _ gocommand.Querier[StreakInput, types.StreakState] = (*StreakQuery)(nil)

// Query fails with a not found error when the user never recorded activity.
func (q *StreakQuery) Query(ctx context.Context, input StreakInput) (types.StreakState, error) {
	if q.repo == nil {
		return types.StreakState{}, types.ErrMissingStreakRepository
	}
	if input.UserID == uuid.Nil {
		return types.StreakState{}, invalidInput(types.ErrUserIDRequired, "user id required")
	}
	state, err := q.repo.GetStreak(ctx, input.UserID)
	if err != nil {
		return types.StreakState{}, err
	}
	if state == nil {
		return types.StreakState{}, notFound(types.ErrStreakNotFound, "streak not found")
	}
	return *state, nil
}

// StreakRisk reports whether a streak needs activity before the day ends.
type StreakRisk struct {
	AtRisk        bool
	CurrentStreak int
	HoursSince    int
}

// StreakRiskQuery evaluates one user's at-risk status.
type StreakRiskQuery struct {
	cfg StreakQueryConfig
}

// NewStreakRiskQuery constructs the at-risk reader.
func NewStreakRiskQuery(cfg StreakQueryConfig) *StreakRiskQuery {
	return &StreakRiskQuery{cfg: cfg.normalized()}
}

var _ gocommand.Querier[StreakInput, StreakRisk] = (*StreakRiskQuery)(nil)

// Query reports no risk for users without a streak.
func (q *StreakRiskQuery) Query(ctx context.Context, input StreakInput) (StreakRisk, error) {
	if q.cfg.Repository == nil {
		return StreakRisk{}, types.ErrMissingStreakRepository
	}
	if input.UserID == uuid.Nil {
		return StreakRisk{}, invalidInput(types.ErrUserIDRequired, "user id required")
	}
	state, err := q.cfg.Repository.GetStreak(ctx, input.UserID)
	if err != nil || state == nil {
		return StreakRisk{}, err
	}
	hours, atRisk := rules.StreakAtRisk(*state, q.cfg.Clock.Now(), q.cfg.Location)
	return StreakRisk{AtRisk: atRisk, CurrentStreak: state.CurrentStreak, HoursSince: hours}, nil
}

// AtRiskStreaksInput has no selectors; the clock decides the window.
type AtRiskStreaksInput struct{}

// AtRiskStreaksQuery lists every streak currently at risk.
type AtRiskStreaksQuery struct {
	cfg StreakQueryConfig
}

// NewAtRiskStreaksQuery constructs the at-risk listing.
func NewAtRiskStreaksQuery(cfg StreakQueryConfig) *AtRiskStreaksQuery {
	return &AtRiskStreaksQuery{cfg: cfg.normalized()}
}

var _ gocommand.Querier[AtRiskStreaksInput, []types.StreakState] = (*AtRiskStreaksQuery)(nil)

// Query scans streaks last extended yesterday.
func (q *AtRiskStreaksQuery) Query(ctx context.Context, _ AtRiskStreaksInput) ([]types.StreakState, error) {
	if q.cfg.Repository == nil {
		return nil, types.ErrMissingStreakRepository
	}
	now := q.cfg.Clock.Now()
	today := rules.DayStart(now, q.cfg.Location)
	from := today.AddDate(0, 0, -1).UTC()
	to := today.UTC()

	out := make([]types.StreakState, 0)
	for offset := 0; ; offset += streakBatchSize {
		page, err := q.cfg.Repository.ListStreaks(ctx, types.StreakFilter{
			LastActivityFrom: &from,
			LastActivityTo:   &to,
			MinCurrent:       1,
			Pagination:       types.Pagination{Limit: streakBatchSize, Offset: offset},
		})
		if err != nil {
			return nil, err
		}
		for _, state := range page {
			if _, atRisk := rules.StreakAtRisk(state, now, q.cfg.Location); atRisk {
				out = append(out, state)
			}
		}
		if len(page) < streakBatchSize {
			return out, nil
		}
	}
}
