package streak

import (
	"context"
	"errors"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-gamification/pkg/types"
)

// RepositoryConfig wires the Bun-backed streak repository.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*Record]
	Clock      types.Clock
}

type streakStore interface {
	repository.Repository[*Record]
}

// Repository implements types.StreakRepository using Bun.
type Repository struct {
	streakStore
	clock types.Clock
}

// NewRepository constructs the default streak repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("streak: db or repository required")
	}
	repo := cfg.Repository
	if repo == nil {
		repo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*Record]{
			NewRecord: func() *Record { return &Record{} },
			GetID: func(rec *Record) uuid.UUID {
				if rec == nil {
					return uuid.Nil
				}
				return rec.UserID
			},
			SetID: func(rec *Record, id uuid.UUID) {
				if rec != nil {
					rec.UserID = id
				}
			},
		})
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	return &Repository{
		streakStore: repo,
		clock:       clock,
	}, nil
}

var (
	_ repository.Repository[*Record] = (*Repository)(nil)
	_ types.StreakRepository         = (*Repository)(nil)
)

// GetStreak returns the stored state or nil when the user has none.
func (r *Repository) GetStreak(ctx context.Context, userID uuid.UUID) (*types.StreakState, error) {
	if userID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	rec, err := r.Get(ctx, selectUserID(userID))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return toDomain(rec), nil
}

// SaveStreak inserts or updates the state for the user.
func (r *Repository) SaveStreak(ctx context.Context, state types.StreakState) (*types.StreakState, error) {
	if state.UserID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	rec := fromDomain(state)
	rec.UpdatedAt = r.clock.Now().UTC()

	_, err := r.Get(ctx, selectUserID(state.UserID))
	switch {
	case err == nil:
		updated, err := r.Update(ctx, rec)
		if err != nil {
			return nil, err
		}
		return toDomain(updated), nil
	case repository.IsRecordNotFound(err):
		created, err := r.Create(ctx, rec)
		if err != nil {
			return nil, err
		}
		return toDomain(created), nil
	default:
		return nil, err
	}
}

// ListStreaks returns streaks matching the filter ordered by user id.
func (r *Repository) ListStreaks(ctx context.Context, filter types.StreakFilter) ([]types.StreakState, error) {
	criteria := func(q *bun.SelectQuery) *bun.SelectQuery {
		if filter.LastActivityFrom != nil {
			q = q.Where("last_activity_date >= ?", filter.LastActivityFrom.UTC())
		}
		if filter.LastActivityTo != nil {
			q = q.Where("last_activity_date < ?", filter.LastActivityTo.UTC())
		}
		if filter.MinCurrent > 0 {
			q = q.Where("current_streak >= ?", filter.MinCurrent)
		}
		q = q.Order("user_id")
		if filter.Pagination.Limit > 0 {
			q = q.Limit(filter.Pagination.Limit)
		}
		if filter.Pagination.Offset > 0 {
			q = q.Offset(filter.Pagination.Offset)
		}
		return q
	}
	rows, _, err := r.List(ctx, criteria)
	if err != nil {
		return nil, err
	}
	out := make([]types.StreakState, 0, len(rows))
	for _, row := range rows {
		if state := toDomain(row); state != nil {
			out = append(out, *state)
		}
	}
	return out, nil
}

func selectUserID(userID uuid.UUID) repository.SelectCriteria {
	return repository.SelectBy("user_id", "=", userID.String())
}
