package badge

import (
	"context"
	"errors"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-gamification/pkg/types"
)

// RepositoryConfig wires the Bun-backed badge catalog and award store.
type RepositoryConfig struct {
	DB              *bun.DB
	Repository      repository.Repository[*Record]
	AwardRepository repository.Repository[*AwardRecord]
	Clock           types.Clock
	IDGen           types.IDGenerator
}

type catalogStore interface {
	repository.Repository[*Record]
}

// Repository implements types.BadgeRepository. The catalog can be wrapped
// with go-repository-cache via WithCache.
type Repository struct {
	catalogStore
	awards repository.Repository[*AwardRecord]
	clock  types.Clock
	idGen  types.IDGenerator
}

// NewRepository constructs the default badge repository.
func NewRepository(cfg RepositoryConfig, opts ...RepositoryOption) (*Repository, error) {
	if cfg.DB == nil && (cfg.Repository == nil || cfg.AwardRepository == nil) {
		return nil, errors.New("badge: db or repositories required")
	}
	catalog := cfg.Repository
	if catalog == nil {
		catalog = newCatalogRepository(cfg.DB)
	}
	catalog, err := wrapCatalog(catalog, applyRepositoryOptions(opts))
	if err != nil {
		return nil, err
	}
	awards := cfg.AwardRepository
	if awards == nil {
		awards = newAwardRepository(cfg.DB)
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
		catalogStore: catalog,
		awards:       awards,
		clock:        clock,
		idGen:        idGen,
	}, nil
}

var (
	_ repository.Repository[*Record] = (*Repository)(nil)
	_ types.BadgeRepository          = (*Repository)(nil)
)

func newCatalogRepository(db *bun.DB) repository.Repository[*Record] {
	return repository.NewRepository(db, repository.ModelHandlers[*Record]{
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

func newAwardRepository(db *bun.DB) repository.Repository[*AwardRecord] {
	return repository.NewRepository(db, repository.ModelHandlers[*AwardRecord]{
		NewRecord: func() *AwardRecord { return &AwardRecord{} },
		GetID: func(rec *AwardRecord) uuid.UUID {
			if rec == nil {
				return uuid.Nil
			}
			return rec.ID
		},
		SetID: func(rec *AwardRecord, id uuid.UUID) {
			if rec != nil {
				rec.ID = id
			}
		},
	})
}

// orderByName is shared so cached catalog listings always resolve to the
// same cache key.
var orderByName repository.SelectCriteria = func(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Order("name")
}

// ListBadges returns catalog entries ordered by name. The full catalog is
// read once and filtered in memory.
func (r *Repository) ListBadges(ctx context.Context, filter types.BadgeFilter) ([]types.Badge, error) {
	rows, _, err := r.List(ctx, orderByName)
	if err != nil {
		return nil, err
	}
	kinds := make(map[types.RequirementKind]struct{}, len(filter.Kinds))
	for _, k := range filter.Kinds {
		kinds[k] = struct{}{}
	}
	out := make([]types.Badge, 0, len(rows))
	for _, row := range rows {
		b := toBadge(row)
		if filter.ActiveOnly && !b.IsActive {
			continue
		}
		if len(kinds) > 0 {
			if _, ok := kinds[b.RequirementKind]; !ok {
				continue
			}
		}
		if filter.Category != "" && b.Category != filter.Category {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// GetBadge returns the catalog entry or nil when unknown.
func (r *Repository) GetBadge(ctx context.Context, id uuid.UUID) (*types.Badge, error) {
	if id == uuid.Nil {
		return nil, types.ErrBadgeIDRequired
	}
	rec, err := r.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	b := toBadge(rec)
	return &b, nil
}

// GetBadgeByName returns the catalog entry with the given name or nil.
func (r *Repository) GetBadgeByName(ctx context.Context, name string) (*types.Badge, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	rec, err := r.Get(ctx, repository.SelectBy("name", "=", name))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	b := toBadge(rec)
	return &b, nil
}

// SaveBadge upserts a catalog entry keyed by name.
func (r *Repository) SaveBadge(ctx context.Context, badge types.Badge) (*types.Badge, error) {
	badge.Name = strings.TrimSpace(badge.Name)
	if badge.Name == "" {
		return nil, errors.New("badge: name required")
	}
	now := r.clock.Now().UTC()
	rec := fromBadge(badge)
	rec.UpdatedAt = now

	existing, err := r.Get(ctx, repository.SelectBy("name", "=", badge.Name))
	switch {
	case err == nil:
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		updated, err := r.Update(ctx, rec)
		if err != nil {
			return nil, err
		}
		b := toBadge(updated)
		return &b, nil
	case repository.IsRecordNotFound(err):
		if rec.ID == uuid.Nil {
			rec.ID = r.idGen.UUID()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		created, err := r.Create(ctx, rec)
		if err != nil {
			return nil, err
		}
		b := toBadge(created)
		return &b, nil
	default:
		return nil, err
	}
}

// OwnedBadgeIDs returns the set of badge ids the user already earned.
func (r *Repository) OwnedBadgeIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	if userID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	rows, _, err := r.awards.List(ctx, repository.SelectBy("user_id", "=", userID.String()))
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]struct{}, len(rows))
	for _, row := range rows {
		out[row.BadgeID] = struct{}{}
	}
	return out, nil
}

// GetUserBadge returns the award row or nil when the user lacks the badge.
func (r *Repository) GetUserBadge(ctx context.Context, userID, badgeID uuid.UUID) (*types.UserBadge, error) {
	rec, err := r.getAward(ctx, userID, badgeID)
	if err != nil {
		return nil, err
	}
	return toAward(rec), nil
}

// CreateUserBadge inserts the award unless the pair already exists. A
// duplicate key from a concurrent insert is reported as already awarded.
func (r *Repository) CreateUserBadge(ctx context.Context, award types.UserBadge) (*types.UserBadge, bool, error) {
	if award.UserID == uuid.Nil {
		return nil, false, types.ErrUserIDRequired
	}
	if award.BadgeID == uuid.Nil {
		return nil, false, types.ErrBadgeIDRequired
	}
	existing, err := r.getAward(ctx, award.UserID, award.BadgeID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return toAward(existing), false, nil
	}

	rec := fromAward(award)
	if rec.ID == uuid.Nil {
		rec.ID = r.idGen.UUID()
	}
	if rec.EarnedAt.IsZero() {
		rec.EarnedAt = r.clock.Now()
	}
	rec.EarnedAt = rec.EarnedAt.UTC()
	created, err := r.awards.Create(ctx, rec)
	if err != nil {
		if repository.IsDuplicatedKey(err) {
			existing, getErr := r.getAward(ctx, award.UserID, award.BadgeID)
			if getErr != nil {
				return nil, false, getErr
			}
			return toAward(existing), false, nil
		}
		return nil, false, err
	}
	return toAward(created), true, nil
}

// ListUserBadges returns a user's awards, newest first.
func (r *Repository) ListUserBadges(ctx context.Context, filter types.UserBadgeFilter) ([]types.UserBadge, error) {
	if filter.UserID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	rows, _, err := r.awards.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.Where("user_id = ?", filter.UserID.String())
		if filter.DisplayedOnly {
			q = q.Where("is_displayed = ?", true)
		}
		return q.OrderExpr("earned_at DESC").Order("badge_id")
	})
	if err != nil {
		return nil, err
	}
	out := make([]types.UserBadge, 0, len(rows))
	for _, row := range rows {
		out = append(out, *toAward(row))
	}
	return out, nil
}

// SetDisplayed toggles whether an earned badge is shown on the profile.
func (r *Repository) SetDisplayed(ctx context.Context, userID, badgeID uuid.UUID, displayed bool) (*types.UserBadge, error) {
	rec, err := r.getAward(ctx, userID, badgeID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, types.ErrUserBadgeNotFound
	}
	rec.IsDisplayed = displayed
	updated, err := r.awards.Update(ctx, rec)
	if err != nil {
		return nil, err
	}
	return toAward(updated), nil
}

func (r *Repository) getAward(ctx context.Context, userID, badgeID uuid.UUID) (*AwardRecord, error) {
	if userID == uuid.Nil {
		return nil, types.ErrUserIDRequired
	}
	if badgeID == uuid.Nil {
		return nil, types.ErrBadgeIDRequired
	}
	rec, err := r.awards.Get(ctx,
		repository.SelectBy("user_id", "=", userID.String()),
		repository.SelectBy("badge_id", "=", badgeID.String()),
	)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}
