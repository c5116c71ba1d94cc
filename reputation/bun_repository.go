package reputation

import (
	"context"
	"errors"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-gamification/pkg/types"
)

// RepositoryConfig wires the Bun-backed reputation repository.
type RepositoryConfig struct {
	DB              *bun.DB
	Repository      repository.Repository[*Record]
	EventRepository repository.Repository[*EventRecord]
	Clock           types.Clock
	IDGen           types.IDGenerator
}

type reputationStore interface {
	repository.Repository[*Record]
}

// Repository implements types.ReputationRepository. State rows go through the
// generic repository; ledger aggregates run on the Bun DB.
type Repository struct {
	reputationStore
	events repository.Repository[*EventRecord]
	db     *bun.DB
	clock  types.Clock
	idGen  types.IDGenerator
}

// NewRepository constructs the default reputation repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.DB == nil {
		return nil, errors.New("reputation: db required")
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
	events := cfg.EventRepository
	if events == nil {
		events = repository.NewRepository(cfg.DB, repository.ModelHandlers[*EventRecord]{
			NewRecord: func() *EventRecord { return &EventRecord{} },
			GetID: func(rec *EventRecord) uuid.UUID {
				if rec == nil {
					return uuid.Nil
				}
				return rec.ID
			},
			SetID: func(rec *EventRecord, id uuid.UUID) {
				if rec != nil {
					rec.ID = id
				}
			},
		})
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}
	return &Repository{
		reputationStore: repo,
		events:          events,
		db:              cfg.DB,
		clock:           clock,
		idGen:           idGen,
	}, nil
}

var (
	_ repository.Repository[*Record] = (*Repository)(nil)
	_ types.ReputationRepository     = (*Repository)(nil)
)

// GetReputation returns the stored state or nil when the user has none.
func (r *Repository) GetReputation(ctx context.Context, userID uuid.UUID) (*types.ReputationState, error) {
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

// SaveReputation inserts or updates the state, flooring totals at zero.
func (r *Repository) SaveReputation(ctx context.Context, state types.ReputationState) (*types.ReputationState, error) {
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

// ListReputations pages through every reputation row ordered by user id.
func (r *Repository) ListReputations(ctx context.Context, page types.Pagination) ([]types.ReputationState, int, error) {
	page = normalizePagination(page, 500, 5000)
	rows, total, err := r.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order("user_id").Limit(page.Limit).Offset(page.Offset)
	})
	if err != nil {
		return nil, 0, err
	}
	return toDomainSlice(rows), total, nil
}

// TopReputations returns the highest totals, ties broken by user id.
func (r *Repository) TopReputations(ctx context.Context, limit int) ([]types.ReputationState, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, _, err := r.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("total_points > 0").
			OrderExpr("total_points DESC").
			Order("user_id").
			Limit(limit)
	})
	if err != nil {
		return nil, err
	}
	return toDomainSlice(rows), nil
}

// AppendEvent records a ledger row.
func (r *Repository) AppendEvent(ctx context.Context, event types.ReputationEvent) error {
	if event.UserID == uuid.Nil {
		return types.ErrUserIDRequired
	}
	rec := fromEvent(event)
	if rec.ID == uuid.Nil {
		rec.ID = r.idGen.UUID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.clock.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	_, err := r.events.Create(ctx, rec)
	return err
}

// SumEvents adds up ledger deltas matching the filter.
func (r *Repository) SumEvents(ctx context.Context, filter types.ReputationEventFilter) (int, error) {
	query := r.db.NewSelect().
		Model((*EventRecord)(nil)).
		ColumnExpr("COALESCE(SUM(delta), 0) AS total")
	if filter.UserID != uuid.Nil {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if len(filter.Kinds) > 0 {
		kinds := make([]string, 0, len(filter.Kinds))
		for _, k := range filter.Kinds {
			kinds = append(kinds, string(k))
		}
		query = query.Where("kind IN (?)", bun.In(kinds))
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", filter.Since.UTC())
	}
	if filter.Until != nil {
		query = query.Where("created_at < ?", filter.Until.UTC())
	}
	var total int
	if err := query.Scan(ctx, &total); err != nil {
		return 0, err
	}
	return total, nil
}

// NetPointsByUser sums ledger deltas per user since the given instant,
// keeping only positive totals, ordered by total descending then user id.
func (r *Repository) NetPointsByUser(ctx context.Context, since time.Time) ([]types.UserScore, error) {
	type row struct {
		UserID uuid.UUID `bun:"user_id"`
		Score  int       `bun:"score"`
	}
	var rows []row
	err := r.db.NewSelect().
		Model((*EventRecord)(nil)).
		ColumnExpr("user_id").
		ColumnExpr("SUM(delta) AS score").
		Where("created_at >= ?", since.UTC()).
		Group("user_id").
		Having("SUM(delta) > 0").
		OrderExpr("score DESC").
		Order("user_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	out := make([]types.UserScore, 0, len(rows))
	for _, rec := range rows {
		out = append(out, types.UserScore{UserID: rec.UserID, Score: rec.Score})
	}
	return out, nil
}

func toDomainSlice(rows []*Record) []types.ReputationState {
	out := make([]types.ReputationState, 0, len(rows))
	for _, row := range rows {
		if state := toDomain(row); state != nil {
			out = append(out, *state)
		}
	}
	return out
}

func selectUserID(userID uuid.UUID) repository.SelectCriteria {
	return repository.SelectBy("user_id", "=", userID.String())
}

func normalizePagination(p types.Pagination, def, max int) types.Pagination {
	if p.Limit <= 0 {
		p.Limit = def
	}
	if p.Limit > max {
		p.Limit = max
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
