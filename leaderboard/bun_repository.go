package leaderboard

import (
	"context"
	"errors"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-gamification/pkg/types"
)

const (
	tableName       = "gamification_leaderboard_entries"
	upsertBatchSize = 500
)

// RepositoryConfig wires the Bun-backed leaderboard repository.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*Record]
	Clock      types.Clock
	IDGen      types.IDGenerator
}

type entryStore interface {
	repository.Repository[*Record]
}

// Repository implements types.LeaderboardRepository.
type Repository struct {
	entryStore
	db    *bun.DB
	clock types.Clock
	idGen types.IDGenerator
}

// NewRepository constructs the default leaderboard repository. Bulk upserts
// and snapshots run on the Bun DB, so DB is required.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.DB == nil {
		return nil, errors.New("leaderboard: db required")
	}
	repo := cfg.Repository
	if repo == nil {
		repo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*Record]{
			NewRecord: func() *Record { return &Record{} },
			GetID: func(rec *Record) uuid.UUID {
				if rec == nil {
					return uuid.Nil
				}
				return rec.ID
			},
			SetID: func(rec *Record, id uuid.UUID) {
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
		entryStore: repo,
		db:         cfg.DB,
		clock:      clock,
		idGen:      idGen,
	}, nil
}

var (
	_ repository.Repository[*Record] = (*Repository)(nil)
	_ types.LeaderboardRepository    = (*Repository)(nil)
)

// ListEntries returns a page of positive score entries ordered by rank along
// with the total number of ranked users.
func (r *Repository) ListEntries(ctx context.Context, filter types.LeaderboardFilter) ([]types.LeaderboardEntry, int, error) {
	page := normalizePagination(filter.Pagination, 25, 100)
	rows, total, err := r.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return boardCriteria(q, filter.Category, filter.Timeframe).
			Where("score > 0").
			Order("rank", "user_id").
			Limit(page.Limit).
			Offset(page.Offset)
	})
	if err != nil {
		return nil, 0, err
	}
	return toDomainSlice(rows), total, nil
}

// ListAllEntries returns every row of a board, including zero score rows.
func (r *Repository) ListAllEntries(ctx context.Context, category types.LeaderboardCategory, timeframe types.LeaderboardTimeframe) ([]types.LeaderboardEntry, error) {
	rows, _, err := r.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return boardCriteria(q, category, timeframe).Order("rank", "user_id")
	})
	if err != nil {
		return nil, err
	}
	return toDomainSlice(rows), nil
}

// GetEntry returns the user's row on a board or nil.
func (r *Repository) GetEntry(ctx context.Context, userID uuid.UUID, category types.LeaderboardCategory, timeframe types.LeaderboardTimeframe) (*types.LeaderboardEntry, error) {
	if userID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	rec, err := r.Get(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return boardCriteria(q, category, timeframe).Where("user_id = ?", userID)
	})
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	entry := toDomain(rec)
	return &entry, nil
}

// ListUserEntries returns the positive score rows of a user across boards.
func (r *Repository) ListUserEntries(ctx context.Context, userID uuid.UUID) ([]types.LeaderboardEntry, error) {
	if userID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	rows, _, err := r.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID).
			Where("score > 0").
			Order("category", "timeframe")
	})
	if err != nil {
		return nil, err
	}
	return toDomainSlice(rows), nil
}

// UpsertEntries inserts or updates rows keyed by (user, category, timeframe).
// Snapshot ranks are left untouched on conflict.
func (r *Repository) UpsertEntries(ctx context.Context, entries []types.LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}
	now := r.clock.Now().UTC()
	records := make([]*Record, 0, len(entries))
	for _, entry := range entries {
		if entry.UserID == uuid.Nil {
			return types.ErrUserIDRequired
		}
		rec := fromDomain(entry)
		if rec.ID == uuid.Nil {
			rec.ID = r.idGen.UUID()
		}
		rec.UpdatedAt = now
		records = append(records, rec)
	}

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for start := 0; start < len(records); start += upsertBatchSize {
			end := min(start+upsertBatchSize, len(records))
			batch := records[start:end]
			_, err := tx.NewInsert().
				Model(&batch).
				On("CONFLICT (user_id, category, timeframe) DO UPDATE").
				Set("rank = EXCLUDED.rank").
				Set("score = EXCLUDED.score").
				Set("previous_rank = EXCLUDED.previous_rank").
				Set("updated_at = EXCLUDED.updated_at").
				Exec(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// CountRanked counts positive score rows on a board.
func (r *Repository) CountRanked(ctx context.Context, category types.LeaderboardCategory, timeframe types.LeaderboardTimeframe) (int, error) {
	query := r.db.NewSelect().Model((*Record)(nil))
	return boardCriteria(query, category, timeframe).Where("score > 0").Count(ctx)
}

// SnapshotRanks copies the current rank into the weekly baseline. Rows
// without a score get a null baseline.
func (r *Repository) SnapshotRanks(ctx context.Context, category types.LeaderboardCategory, timeframe types.LeaderboardTimeframe) (int, error) {
	res, err := r.db.NewRaw(
		"UPDATE ? SET snapshot_rank = CASE WHEN score > 0 THEN rank ELSE NULL END WHERE category = ? AND timeframe = ?",
		bun.Ident(tableName), string(category), string(timeframe),
	).Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func boardCriteria(q *bun.SelectQuery, category types.LeaderboardCategory, timeframe types.LeaderboardTimeframe) *bun.SelectQuery {
	return q.Where("category = ?", string(category)).
		Where("timeframe = ?", string(timeframe))
}

func toDomainSlice(rows []*Record) []types.LeaderboardEntry {
	out := make([]types.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomain(row))
	}
	return out
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
