package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/goliatone/go-gamification/command"
	"github.com/goliatone/go-gamification/pkg/rules"
	"github.com/goliatone/go-gamification/pkg/types"
)

// ErrUnexpectedPayload indicates a subscribed topic delivered a payload of
// the wrong type.
var ErrUnexpectedPayload = errors.New("go-gamification: unexpected event payload")

// Handlers reacts to inbound activity events. Each event runs the chain
// activity, streak, streak bonus, reputation award and badge checks in order.
type Handlers struct {
	commands Commands
	activity types.ActivityRepository
	clock    types.Clock
	logger   types.Logger
}

func newHandlers(commands Commands, activity types.ActivityRepository, clock types.Clock, logger types.Logger) *Handlers {
	return &Handlers{
		commands: commands,
		activity: activity,
		clock:    clock,
		logger:   logger,
	}
}

// Subscribe registers the handlers for the inbound topics.
func (h *Handlers) Subscribe(sub types.Subscriber) func() {
	unsubscribers := []func(){
		sub.Subscribe(types.TopicCommentCreated, h.onCommentCreated),
		sub.Subscribe(types.TopicCommentVoted, h.onCommentVoted),
		sub.Subscribe(types.TopicUserLoggedIn, h.onUserLoggedIn),
	}
	return func() {
		for _, unsubscribe := range unsubscribers {
			if unsubscribe != nil {
				unsubscribe()
			}
		}
	}
}

// HandleCommentCreated records a post when the event has no parent, or a
// comment targeting the parent owner, who is then checked for received
// interaction badges.
func (h *Handlers) HandleCommentCreated(ctx context.Context, event types.CommentCreatedEvent) error {
	if event.UserID == uuid.Nil {
		return types.ErrUserIDRequired
	}
	step := activityStep{
		userID:     event.UserID,
		kind:       types.ActivityPost,
		entityID:   entityID(event.CommentID),
		entityType: types.EntityTypePost,
	}
	if event.ParentID != nil {
		step.kind = types.ActivityComment
		step.entityType = types.EntityTypeComment
		if event.ParentOwnerID != nil {
			step.targetUserID = *event.ParentOwnerID
		}
	}
	if err := h.run(ctx, step, rules.ScopeActivityCount, rules.ScopeStreak, rules.ScopeReputation); err != nil {
		return err
	}
	if step.kind == types.ActivityComment && step.targetUserID != uuid.Nil && step.targetUserID != event.UserID {
		return h.checkBadges(ctx, step.targetUserID, rules.ScopeReceivedInteraction)
	}
	return nil
}

// HandleCommentVoted records the vote for the voter. Upvotes also run the
// quality and received interaction checks for the content owner.
func (h *Handlers) HandleCommentVoted(ctx context.Context, event types.CommentVotedEvent) error {
	if event.VoterUserID == uuid.Nil {
		return types.ErrUserIDRequired
	}
	kind := types.ActivityUpvote
	switch event.VoteType {
	case types.VoteUp:
	case types.VoteDown:
		kind = types.ActivityDownvote
	default:
		return fmt.Errorf("%w: vote type %q", types.ErrInvalidActivityType, event.VoteType)
	}

	step := activityStep{
		userID:       event.VoterUserID,
		kind:         kind,
		entityID:     entityID(event.CommentID),
		targetUserID: event.CommentOwnerUserID,
	}
	qualityScope := rules.ScopeCommentQuality
	creation, err := h.activity.FindCreation(ctx, step.entityID)
	if err != nil {
		return err
	}
	if creation != nil {
		step.entityType = creation.EntityType
		if creation.Type == types.ActivityPost {
			qualityScope = rules.ScopePostQuality
		}
	}

	if err := h.run(ctx, step, rules.ScopeActivityCount, rules.ScopeStreak, rules.ScopeReputation); err != nil {
		return err
	}
	if kind != types.ActivityUpvote || event.CommentOwnerUserID == uuid.Nil || event.CommentOwnerUserID == event.VoterUserID {
		return nil
	}
	return h.checkBadges(ctx, event.CommentOwnerUserID, qualityScope, rules.ScopeReceivedInteraction)
}

// HandleUserLoggedIn records a login and runs the streak badge checks.
func (h *Handlers) HandleUserLoggedIn(ctx context.Context, event types.UserLoggedInEvent) error {
	if event.UserID == uuid.Nil {
		return types.ErrUserIDRequired
	}
	return h.run(ctx, activityStep{userID: event.UserID, kind: types.ActivityLogin}, rules.ScopeStreak, rules.ScopeReputation)
}

type activityStep struct {
	userID       uuid.UUID
	kind         types.ActivityType
	entityID     string
	entityType   string
	targetUserID uuid.UUID
}

func (h *Handlers) run(ctx context.Context, step activityStep, scopes ...rules.BadgeScope) error {
	at := h.clock.Now()
	if err := h.commands.RecordActivity.Execute(ctx, command.ActivityRecordInput{
		UserID:       step.userID,
		ActivityType: step.kind,
		EntityID:     step.entityID,
		EntityType:   step.entityType,
		TargetUserID: step.targetUserID,
		OccurredAt:   at,
	}); err != nil {
		return err
	}

	var state types.StreakState
	var transition rules.StreakTransition
	if err := h.commands.RecordStreak.Execute(ctx, command.StreakRecordInput{
		UserID:     step.userID,
		OccurredAt: at,
		Result:     &state,
		Transition: &transition,
	}); err != nil {
		return err
	}
	if transition.MilestoneReached() {
		if err := h.commands.AwardStreakBonus.Execute(ctx, command.StreakBonusInput{
			UserID:        step.userID,
			CurrentStreak: state.CurrentStreak,
		}); err != nil {
			return err
		}
	}

	if err := h.commands.AwardReputation.Execute(ctx, command.ReputationAwardInput{
		UserID:       step.userID,
		ActivityType: step.kind,
	}); err != nil {
		return err
	}
	return h.checkBadges(ctx, step.userID, scopes...)
}

func (h *Handlers) checkBadges(ctx context.Context, userID uuid.UUID, scopes ...rules.BadgeScope) error {
	for _, scope := range scopes {
		if err := h.commands.CheckBadges.Execute(ctx, command.BadgeCheckInput{UserID: userID, Scope: scope}); err != nil {
			return fmt.Errorf("badge check %s: %w", scope, err)
		}
	}
	return nil
}

func (h *Handlers) onCommentCreated(ctx context.Context, payload any) error {
	switch event := payload.(type) {
	case types.CommentCreatedEvent:
		return h.logged(h.HandleCommentCreated(ctx, event), types.TopicCommentCreated)
	case *types.CommentCreatedEvent:
		if event != nil {
			return h.logged(h.HandleCommentCreated(ctx, *event), types.TopicCommentCreated)
		}
	}
	return h.logged(fmt.Errorf("%w: %T", ErrUnexpectedPayload, payload), types.TopicCommentCreated)
}

func (h *Handlers) onCommentVoted(ctx context.Context, payload any) error {
	switch event := payload.(type) {
	case types.CommentVotedEvent:
		return h.logged(h.HandleCommentVoted(ctx, event), types.TopicCommentVoted)
	case *types.CommentVotedEvent:
		if event != nil {
			return h.logged(h.HandleCommentVoted(ctx, *event), types.TopicCommentVoted)
		}
	}
	return h.logged(fmt.Errorf("%w: %T", ErrUnexpectedPayload, payload), types.TopicCommentVoted)
}

func (h *Handlers) onUserLoggedIn(ctx context.Context, payload any) error {
	switch event := payload.(type) {
	case types.UserLoggedInEvent:
		return h.logged(h.HandleUserLoggedIn(ctx, event), types.TopicUserLoggedIn)
	case *types.UserLoggedInEvent:
		if event != nil {
			return h.logged(h.HandleUserLoggedIn(ctx, *event), types.TopicUserLoggedIn)
		}
	}
	return h.logged(fmt.Errorf("%w: %T", ErrUnexpectedPayload, payload), types.TopicUserLoggedIn)
}

func (h *Handlers) logged(err error, topic string) error {
	if err != nil {
		h.logger.Error("gamification event handling failed", err, "topic", topic)
	}
	return err
}

func entityID(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}
