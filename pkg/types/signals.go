package types

import (
	"context"

	"github.com/google/uuid"
)

// Inbound topics consumed by the engine.
const (
	TopicCommentCreated = "comment.created"
	TopicCommentVoted   = "comment.voted"
	TopicUserLoggedIn   = "user.logged_in"
)

// Outbound topics emitted by the engine.
const (
	TopicStreakAtRisk        = "streak.at_risk"
	TopicStreakBroken        = "streak.broken"
	TopicStreakMilestone     = "streak.milestone"
	TopicBadgeEarned         = "badge.earned"
	TopicReputationMilestone = "reputation.milestone"
	TopicLeaderboardChange   = "leaderboard.position_change"
)

// Signal is an outbound notification. Payloads carry ids and numbers only.
type Signal interface {
	SignalTopic() string
}

// Publisher emits signals to subscribers. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Handler consumes one published payload.
type Handler func(ctx context.Context, payload any) error

// Subscriber registers handlers for a topic.
type Subscriber interface {
	Subscribe(topic string, handler Handler) (unsubscribe func())
}

// NopPublisher drops every payload.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// CommentCreatedEvent is received when a user creates a post or a reply.
// A nil ParentID marks a top level post.
type CommentCreatedEvent struct {
	UserID        uuid.UUID
	CommentID     uuid.UUID
	ParentID      *uuid.UUID
	ParentOwnerID *uuid.UUID
}

// VoteType distinguishes vote directions.
type VoteType string

const (
	VoteUp   VoteType = "upvote"
	VoteDown VoteType = "downvote"
)

// CommentVotedEvent is received when a user votes on a post or comment.
type CommentVotedEvent struct {
	VoterUserID        uuid.UUID
	CommentID          uuid.UUID
	CommentOwnerUserID uuid.UUID
	VoteType           VoteType
}

// UserLoggedInEvent is received on a successful login.
type UserLoggedInEvent struct {
	UserID uuid.UUID
}

// StreakAtRiskSignal warns that the streak breaks unless the user acts today.
type StreakAtRiskSignal struct {
	UserID        uuid.UUID
	CurrentStreak int
	HoursSince    int
}

func (StreakAtRiskSignal) SignalTopic() string { return TopicStreakAtRisk }

// StreakBrokenSignal reports the length of a streak that was reset.
type StreakBrokenSignal struct {
	UserID         uuid.UUID
	PreviousStreak int
}

func (StreakBrokenSignal) SignalTopic() string { return TopicStreakBroken }

// StreakMilestoneSignal fires when a streak lands on a milestone.
type StreakMilestoneSignal struct {
	UserID    uuid.UUID
	Milestone int
}

func (StreakMilestoneSignal) SignalTopic() string { return TopicStreakMilestone }

// BadgeEarnedSignal fires once per awarded badge.
type BadgeEarnedSignal struct {
	UserID    uuid.UUID
	BadgeID   uuid.UUID
	BadgeName string
}

func (BadgeEarnedSignal) SignalTopic() string { return TopicBadgeEarned }

// ReputationMilestoneSignal fires for the highest milestone crossed by one change.
type ReputationMilestoneSignal struct {
	UserID      uuid.UUID
	Milestone   int
	TotalPoints int
}

func (ReputationMilestoneSignal) SignalTopic() string { return TopicReputationMilestone }

// PositionChangeKind explains why a leaderboard change signal fired.
type PositionChangeKind string

const (
	PositionImproved     PositionChangeKind = "improved"
	PositionMoved        PositionChangeKind = "moved"
	PositionEnteredTop10 PositionChangeKind = "entered_top_10"
	PositionLeftTop10    PositionChangeKind = "left_top_10"
	PositionReachedBand  PositionChangeKind = "reached_band"
)

// LeaderboardChangeSignal reports a notable rank movement.
type LeaderboardChangeSignal struct {
	UserID       uuid.UUID
	Category     LeaderboardCategory
	Timeframe    LeaderboardTimeframe
	Kind         PositionChangeKind
	PreviousRank int
	Rank         int
	Band         int
}

func (LeaderboardChangeSignal) SignalTopic() string { return TopicLeaderboardChange }
