package rules

import (
	"strings"

	"github.com/goliatone/go-gamification/pkg/types"
)

// BadgeFacts carries the per-user numbers badge predicates read.
type BadgeFacts struct {
	CurrentStreak      int
	LongestStreak      int
	Posts              int
	Comments           int
	UpvotesGiven       int
	UpvotesReceived    int
	RepliesReceived    int
	BestPostUpvotes    int
	BestCommentUpvotes int
	ReputationPoints   int
}

// Predicate decides eligibility for one requirement kind.
type Predicate func(facts BadgeFacts, threshold int) bool

func atLeast(read func(BadgeFacts) int) Predicate {
	return func(f BadgeFacts, threshold int) bool {
		return read(f) >= threshold
	}
}

var predicates = map[types.RequirementKind]Predicate{
	types.RequirementCurrentStreak:        atLeast(func(f BadgeFacts) int { return f.CurrentStreak }),
	types.RequirementLongestStreak:        atLeast(func(f BadgeFacts) int { return f.LongestStreak }),
	types.RequirementPostsCount:           atLeast(func(f BadgeFacts) int { return f.Posts }),
	types.RequirementCommentsCount:        atLeast(func(f BadgeFacts) int { return f.Comments }),
	types.RequirementUpvotesGivenCount:    atLeast(func(f BadgeFacts) int { return f.UpvotesGiven }),
	types.RequirementUpvotesReceivedCount: atLeast(func(f BadgeFacts) int { return f.UpvotesReceived }),
	types.RequirementRepliesReceivedCount: atLeast(func(f BadgeFacts) int { return f.RepliesReceived }),
	types.RequirementPostUpvotes:          atLeast(func(f BadgeFacts) int { return f.BestPostUpvotes }),
	types.RequirementCommentUpvotes:       atLeast(func(f BadgeFacts) int { return f.BestCommentUpvotes }),
	types.RequirementReputationPoints:     atLeast(func(f BadgeFacts) int { return f.ReputationPoints }),
}

// Evaluate runs the predicate registered for kind. known is false for kinds
// without a per-user predicate, including top_percent_weekly which only the
// percentile sweep awards.
func Evaluate(kind types.RequirementKind, facts BadgeFacts, threshold int) (eligible bool, known bool) {
	pred, ok := predicates[kind]
	if !ok {
		return false, false
	}
	return pred(facts, threshold), true
}

// Evaluable reports whether kind has a per-user predicate.
func Evaluable(kind types.RequirementKind) bool {
	_, ok := predicates[kind]
	return ok
}

// BadgeScope selects a group of requirement kinds for a targeted check.
type BadgeScope string

const (
	ScopeAll                 BadgeScope = "all"
	ScopeActivityCount       BadgeScope = "activity_count"
	ScopeStreak              BadgeScope = "streak"
	ScopeReceivedInteraction BadgeScope = "received_interaction"
	ScopePostQuality         BadgeScope = "post_quality"
	ScopeCommentQuality      BadgeScope = "comment_quality"
	ScopeReputation          BadgeScope = "reputation"
)

var scopeKinds = map[BadgeScope][]types.RequirementKind{
	ScopeActivityCount: {
		types.RequirementPostsCount,
		types.RequirementCommentsCount,
		types.RequirementUpvotesGivenCount,
	},
	ScopeStreak: {
		types.RequirementCurrentStreak,
		types.RequirementLongestStreak,
	},
	ScopeReceivedInteraction: {
		types.RequirementUpvotesReceivedCount,
		types.RequirementRepliesReceivedCount,
	},
	ScopePostQuality:    {types.RequirementPostUpvotes},
	ScopeCommentQuality: {types.RequirementCommentUpvotes},
	ScopeReputation:     {types.RequirementReputationPoints},
}

// ParseBadgeScope normalizes a scope value; empty means ScopeAll.
func ParseBadgeScope(raw string) (BadgeScope, bool) {
	scope := BadgeScope(strings.ToLower(strings.TrimSpace(raw)))
	if scope == "" || scope == ScopeAll {
		return ScopeAll, true
	}
	_, ok := scopeKinds[scope]
	return scope, ok
}

// ScopeKinds returns the requirement kinds for scope. ScopeAll yields nil,
// meaning every kind.
func ScopeKinds(scope BadgeScope) []types.RequirementKind {
	if scope == ScopeAll || scope == "" {
		return nil
	}
	kinds := scopeKinds[scope]
	out := make([]types.RequirementKind, len(kinds))
	copy(out, kinds)
	return out
}
