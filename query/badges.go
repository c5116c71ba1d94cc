package query

import (
	"context"
	"sort"

	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"

	"github.com/goliatone/go-gamification/pkg/types"
)

// EarnedBadge joins an award with its catalog entry.
type EarnedBadge struct {
	Badge types.Badge
	Award types.UserBadge
}

// UserBadgesInput selects a user's badges.
type UserBadgesInput struct {
	UserID        uuid.UUID
	DisplayedOnly bool
}

// UserBadgesQuery lists earned badges, newest first.
type UserBadgesQuery struct {
	repo types.BadgeRepository
}

// NewUserBadgesQuery constructs the earned badge reader.
func NewUserBadgesQuery(repo types.BadgeRepository) *UserBadgesQuery {
	return &UserBadgesQuery{repo: repo}
}

var _ gocommand.Querier[UserBadgesInput, []EarnedBadge] = (*UserBadgesQuery)(nil)

// Query returns the user's awards. Awards whose badge left the catalog are
// omitted.
func (q *UserBadgesQuery) Query(ctx context.Context, input UserBadgesInput) ([]EarnedBadge, error) {
	if q.repo == nil {
		return nil, types.ErrMissingBadgeRepository
	}
	if input.UserID == uuid.Nil {
		return nil, invalidInput(types.ErrUserIDRequired, "user id required")
	}
	awards, err := q.repo.ListUserBadges(ctx, types.UserBadgeFilter{UserID: input.UserID, DisplayedOnly: input.DisplayedOnly})
	if err != nil {
		return nil, err
	}
	catalog, err := q.repo.ListBadges(ctx, types.BadgeFilter{})
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]types.Badge, len(catalog))
	for _, badge := range catalog {
		byID[badge.ID] = badge
	}

	out := make([]EarnedBadge, 0, len(awards))
	for _, award := range awards {
		badge, ok := byID[award.BadgeID]
		if !ok {
			continue
		}
		out = append(out, EarnedBadge{Badge: badge, Award: award})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Award.EarnedAt.After(out[j].Award.EarnedAt)
	})
	return out, nil
}

// BadgeCatalogInput narrows the catalog.
type BadgeCatalogInput struct {
	ActiveOnly bool
	Category   types.BadgeCategory
}

// BadgeCatalogQuery lists catalog entries.
type BadgeCatalogQuery struct {
	repo types.BadgeRepository
}

// NewBadgeCatalogQuery constructs the catalog reader.
func NewBadgeCatalogQuery(repo types.BadgeRepository) *BadgeCatalogQuery {
	return &BadgeCatalogQuery{repo: repo}
}

var _ gocommand.Querier[BadgeCatalogInput, []types.Badge] = (*BadgeCatalogQuery)(nil)

// Query returns the filtered catalog.
func (q *BadgeCatalogQuery) Query(ctx context.Context, input BadgeCatalogInput) ([]types.Badge, error) {
	if q.repo == nil {
		return nil, types.ErrMissingBadgeRepository
	}
	return q.repo.ListBadges(ctx, types.BadgeFilter{ActiveOnly: input.ActiveOnly, Category: input.Category})
}

// BadgeDetailInput selects a badge by id, or by name when the id is empty.
type BadgeDetailInput struct {
	BadgeID uuid.UUID
	Name    string
}

// BadgeDetailQuery returns one catalog entry.
type BadgeDetailQuery struct {
	repo types.BadgeRepository
}

// NewBadgeDetailQuery constructs the badge reader.
func NewBadgeDetailQuery(repo types.BadgeRepository) *BadgeDetailQuery {
	return &BadgeDetailQuery{repo: repo}
}

var _ gocommand.Querier[BadgeDetailInput, *types.Badge] = (*BadgeDetailQuery)(nil)

// Query fails with a not found error for unknown badges.
func (q *BadgeDetailQuery) Query(ctx context.Context, input BadgeDetailInput) (*types.Badge, error) {
	if q.repo == nil {
		return nil, types.ErrMissingBadgeRepository
	}
	var (
		badge *types.Badge
		err   error
	)
	switch {
	case input.BadgeID != uuid.Nil:
		badge, err = q.repo.GetBadge(ctx, input.BadgeID)
	case input.Name != "":
		badge, err = q.repo.GetBadgeByName(ctx, input.Name)
	default:
		return nil, invalidInput(types.ErrBadgeIDRequired, "badge id or name required")
	}
	if err != nil {
		return nil, err
	}
	if badge == nil {
		return nil, notFound(types.ErrBadgeNotFound, "badge not found")
	}
	return badge, nil
}
