package activity

import (
	"context"
	"errors"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-gamification/pkg/types"
)

const tableName = "gamification_activity"

// RepositoryConfig wires the Bun-backed activity repository.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*Entry]
	Clock      types.Clock
	IDGen      types.IDGenerator
}

type activityStore interface {
	repository.Repository[*Entry]
}

// Repository persists activity records and exposes aggregate helpers.
type Repository struct {
	activityStore
	db    *bun.DB
	clock types.Clock
	idGen types.IDGenerator
}

// NewRepository constructs the activity store. Aggregates run directly on the
// Bun DB, so DB is required.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.DB == nil {
		return nil, errors.New("activity: db required")
	}
	repo := cfg.Repository
	if repo == nil {
		repo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*Entry]{
			NewRecord: func() *Entry { return &Entry{} },
			GetID: func(entry *Entry) uuid.UUID {
				if entry == nil {
					return uuid.Nil
				}
				return entry.ID
			},
			SetID: func(entry *Entry, id uuid.UUID) {
				if entry != nil {
					entry.ID = id
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
		activityStore: repo,
		db:            cfg.DB,
		clock:         clock,
		idGen:         idGen,
	}, nil
}

var (
	_ repository.Repository[*Entry] = (*Repository)(nil)
	_ types.ActivityRepository      = (*Repository)(nil)
)

// AppendActivity persists an activity record and returns it with its
// generated identifier and timestamp.
func (r *Repository) AppendActivity(ctx context.Context, record types.ActivityRecord) (types.ActivityRecord, error) {
	if record.UserID == uuid.Nil {
		return types.ActivityRecord{}, types.ErrUserIDRequired
	}
	if !record.Type.Valid() {
		return types.ActivityRecord{}, types.ErrInvalidActivityType
	}
	entry := toEntry(record)
	if entry.ID == uuid.Nil {
		entry.ID = r.idGen.UUID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.clock.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	created, err := r.Create(ctx, entry)
	if err != nil {
		return types.ActivityRecord{}, err
	}
	return toRecord(created), nil
}

// CountActivity counts records matching the filter.
func (r *Repository) CountActivity(ctx context.Context, filter types.ActivityCountFilter) (int, error) {
	query := r.db.NewSelect().Model((*Entry)(nil))
	query = applyCountFilter(query, filter)
	return query.Count(ctx)
}

// ActiveUsersSince lists distinct acting users with activity at or after since.
func (r *Repository) ActiveUsersSince(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	type row struct {
		UserID uuid.UUID `bun:"user_id"`
	}
	var rows []row
	err := r.db.NewSelect().
		Table(tableName).
		ColumnExpr("user_id").
		Where("created_at >= ?", since.UTC()).
		Group("user_id").
		Order("user_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(rows))
	for _, rec := range rows {
		out = append(out, rec.UserID)
	}
	return out, nil
}

// ScoreByUser counts records of one type grouped by actor or target user,
// ordered by score descending and user id ascending.
func (r *Repository) ScoreByUser(ctx context.Context, filter types.ActivityScoreFilter) ([]types.UserScore, error) {
	column := "user_id"
	if filter.GroupBy == types.ScoreByTarget {
		column = "target_user_id"
	}
	query := r.db.NewSelect().
		Table(tableName).
		ColumnExpr(column+" AS user_id").
		ColumnExpr("COUNT(*) AS score").
		Where("activity_type = ?", string(filter.Type)).
		Group(column).
		OrderExpr("score DESC").
		OrderExpr(column + " ASC")
	if filter.GroupBy == types.ScoreByTarget {
		query = query.Where("target_user_id IS NOT NULL")
	}
	if filter.Since != nil && !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since.UTC())
	}

	type row struct {
		UserID uuid.UUID `bun:"user_id"`
		Score  int       `bun:"score"`
	}
	var rows []row
	if err := query.Scan(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]types.UserScore, 0, len(rows))
	for _, rec := range rows {
		out = append(out, types.UserScore{UserID: rec.UserID, Score: rec.Score})
	}
	return out, nil
}

// MaxEntityScore returns the highest per-entity count of the given activity
// type received by one owner, such as the upvotes of their best post.
func (r *Repository) MaxEntityScore(ctx context.Context, filter types.EntityScoreFilter) (int, error) {
	if filter.OwnerID == uuid.Nil {
		return 0, types.ErrUserIDRequired
	}
	query := r.db.NewSelect().
		Table(tableName).
		ColumnExpr("entity_id").
		ColumnExpr("COUNT(*) AS score").
		Where("activity_type = ?", string(filter.Type)).
		Where("target_user_id = ?", filter.OwnerID).
		Where("entity_id IS NOT NULL").
		Group("entity_id").
		OrderExpr("score DESC").
		Limit(1)
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}

	type row struct {
		EntityID string `bun:"entity_id"`
		Score    int    `bun:"score"`
	}
	var rows []row
	if err := query.Scan(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Score, nil
}

// FindCreation returns the post or comment record that created the entity,
// or nil when the entity is unknown.
func (r *Repository) FindCreation(ctx context.Context, entityID string) (*types.ActivityRecord, error) {
	if entityID == "" {
		return nil, nil
	}
	entry, err := r.Get(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("entity_id = ?", entityID).
			Where("activity_type IN (?)", bun.In([]string{string(types.ActivityPost), string(types.ActivityComment)})).
			OrderExpr("created_at ASC").
			Limit(1)
	})
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	record := toRecord(entry)
	return &record, nil
}

func applyCountFilter(q *bun.SelectQuery, filter types.ActivityCountFilter) *bun.SelectQuery {
	if filter.UserID != uuid.Nil {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.TargetUserID != uuid.Nil {
		q = q.Where("target_user_id = ?", filter.TargetUserID)
	}
	if len(filter.Types) > 0 {
		values := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			values = append(values, string(t))
		}
		q = q.Where("activity_type IN (?)", bun.In(values))
	}
	if filter.EntityID != "" {
		q = q.Where("entity_id = ?", filter.EntityID)
	}
	if filter.EntityType != "" {
		q = q.Where("entity_type = ?", filter.EntityType)
	}
	if filter.Since != nil && !filter.Since.IsZero() {
		q = q.Where("created_at >= ?", filter.Since.UTC())
	}
	return q
}
