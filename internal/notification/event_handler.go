package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/goal-tracker/internal/core/events"
)

var goalKinds = map[string]Kind{
	events.EventTypeGoalCreated:        KindGoalCreated,
	events.EventTypeGoalApproved:       KindGoalApproved,
	events.EventTypeGoalEdited:         KindGoalEdited,
	events.EventTypeGoalDeleted:        KindGoalDeleted,
	events.EventTypeGoalCompleted:      KindGoalCompleted,
	events.EventTypeAchievementUpdated: KindAchievementUpdated,
}

type EventHandler struct {
	engine *Service
	logger *slog.Logger
}

func NewEventHandler(engine *Service, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		engine: engine,
		logger: logger,
	}
}

// Translate turns a published domain event into a routable one.
func Translate(event events.Event) (Event, error) {
	switch ev := event.(type) {
	case *events.GoalEvent:
		kind, ok := goalKinds[ev.EventType()]
		if !ok {
			return Event{}, fmt.Errorf("unsupported goal event type %q", ev.EventType())
		}
		return Event{
			Kind:      kind,
			GoalID:    ev.GoalID,
			GoalTitle: ev.GoalTitle,
			OwnerID:   ev.OwnerID,
			ActorID:   ev.ActorID,
			Week:      ev.Week,
		}, nil
	case *events.FeedbackEvent:
		out := Event{
			GoalID:    ev.GoalID,
			GoalTitle: ev.GoalTitle,
			OwnerID:   ev.OwnerID,
			ActorID:   ev.ActorID,
			AuthorID:  ev.AuthorID,
		}
		switch ev.EventType() {
		case events.EventTypeFeedbackGiven:
			out.Kind = KindFeedbackGiven
		case events.EventTypeFeedbackReplied:
			out.Kind = KindFeedbackReply
		default:
			return Event{}, fmt.Errorf("unsupported feedback event type %q", ev.EventType())
		}
		return out, nil
	}
	return Event{}, fmt.Errorf("unexpected event %T", event)
}

func (h *EventHandler) Handle(ctx context.Context, event events.Event) error {
	ev, err := Translate(event)
	if err != nil {
		h.logger.Error("invalid event for notification handler", "event_type", event.EventType(), "error", err)
		return err
	}

	res, err := h.engine.Dispatch(ctx, ev)
	if err != nil {
		return fmt.Errorf("notification dispatch failed for event %s: %w", event.EventID(), err)
	}
	if res.Failed > 0 {
		h.logger.Warn("some notifications were not stored",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"failed", res.Failed)
	}
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	for _, eventType := range events.GoalEventTypes {
		eventBus.Subscribe(eventType, h.Handle)
	}

	h.logger.Info("notification event handlers registered", "handlers", events.GoalEventTypes)
}
