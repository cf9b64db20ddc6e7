package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/goal-tracker/internal/core/events"
	"github.com/frahmantamala/goal-tracker/internal/notification"
	"github.com/frahmantamala/goal-tracker/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Manage events: replay goal events through the notification engine, inspect handlers`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a goal event",
	Long:  `Publish a goal or feedback event for an existing goal; subscribed handlers write the resulting notifications`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publishGoalEvent(args[0])
	},
}

var listHandlersCmd = &cobra.Command{
	Use:   "handlers",
	Short: "List subscribed handlers per event type",
	Run: func(cmd *cobra.Command, args []string) {
		lg := logger.LoggerWrapper()
		bus := events.NewEventBus(lg)
		notification.NewEventHandler(nil, lg).RegisterEventHandlers(bus)
		for _, eventType := range events.GoalEventTypes {
			fmt.Printf("%-28s %d\n", eventType, bus.HandlerCount(eventType))
		}
	},
}

var (
	eventGoalID     int64
	eventActorID    int64
	eventAuthorID   int64
	eventFeedbackID int64
	eventWeek       int
)

func publishGoalEvent(eventType string) {
	cfg := mustLoadConfig()

	a, err := newApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx := context.Background()
	g, err := a.goals.GetByID(ctx, eventGoalID)
	if err != nil {
		a.logger.Error("failed to load goal", "goal_id", eventGoalID, "error", err)
		return
	}

	actorID := eventActorID
	if actorID == 0 {
		actorID = g.UserID
	}

	var event events.Event
	switch eventType {
	case events.EventTypeAchievementUpdated:
		event = events.NewAchievementUpdatedEvent(g.ID, g.Title, g.UserID, actorID, eventWeek)
	case events.EventTypeFeedbackGiven:
		event = events.NewFeedbackGivenEvent(eventFeedbackID, g.ID, g.Title, g.UserID, actorID)
	case events.EventTypeFeedbackReplied:
		event = events.NewFeedbackRepliedEvent(eventFeedbackID, g.ID, g.Title, g.UserID, actorID, eventAuthorID)
	default:
		if a.bus.HandlerCount(eventType) == 0 {
			a.logger.Error("no handler subscribed for event type", "event_type", eventType)
			return
		}
		event = events.NewGoalEvent(eventType, g.ID, g.Title, g.UserID, actorID)
	}

	a.logger.Info("publishing goal event", "event_type", eventType, "event_id", event.EventID(), "goal_id", g.ID)

	if err := a.bus.PublishSync(ctx, event); err != nil {
		a.logger.Error("failed to publish event", "error", err)
		return
	}

	a.logger.Info("goal event published successfully")
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventGoalID, "goal-id", 0, "goal the event is about")
	publishEventCmd.Flags().Int64Var(&eventActorID, "actor-id", 0, "user who acted; defaults to the goal owner")
	publishEventCmd.Flags().Int64Var(&eventAuthorID, "author-id", 0, "feedback author, for feedback.replied")
	publishEventCmd.Flags().Int64Var(&eventFeedbackID, "feedback-id", 0, "feedback id, for feedback events")
	publishEventCmd.Flags().IntVar(&eventWeek, "week", 0, "week number, for goal.achievement_updated")
	_ = publishEventCmd.MarkFlagRequired("goal-id")

	eventCmd.AddCommand(publishEventCmd)
	eventCmd.AddCommand(listHandlersCmd)

	rootCmd.AddCommand(eventCmd)
}
