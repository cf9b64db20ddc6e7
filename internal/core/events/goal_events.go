package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeGoalCreated        = "goal.created"
	EventTypeGoalApproved       = "goal.approved"
	EventTypeGoalEdited         = "goal.edited"
	EventTypeGoalDeleted        = "goal.deleted"
	EventTypeGoalCompleted      = "goal.completed"
	EventTypeAchievementUpdated = "goal.achievement_updated"
	EventTypeFeedbackGiven      = "feedback.given"
	EventTypeFeedbackReplied    = "feedback.replied"
)

// GoalEventTypes lists every event a goal notification subscriber listens to.
var GoalEventTypes = []string{
	EventTypeGoalCreated,
	EventTypeGoalApproved,
	EventTypeGoalEdited,
	EventTypeGoalDeleted,
	EventTypeGoalCompleted,
	EventTypeAchievementUpdated,
	EventTypeFeedbackGiven,
	EventTypeFeedbackReplied,
}

// GoalEvent carries a snapshot of the goal, so it stays meaningful after a
// delete.
type GoalEvent struct {
	BaseEvent
	GoalID    int64  `json:"goal_id"`
	GoalTitle string `json:"goal_title"`
	OwnerID   int64  `json:"owner_id"`
	ActorID   int64  `json:"actor_id"`
	Week      int    `json:"week,omitempty"`
}

func NewGoalEvent(eventType string, goalID int64, title string, ownerID, actorID int64) *GoalEvent {
	return &GoalEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"goal_id":    goalID,
				"goal_title": title,
				"owner_id":   ownerID,
				"actor_id":   actorID,
			},
		},
		GoalID:    goalID,
		GoalTitle: title,
		OwnerID:   ownerID,
		ActorID:   actorID,
	}
}

func NewAchievementUpdatedEvent(goalID int64, title string, ownerID, actorID int64, week int) *GoalEvent {
	ev := NewGoalEvent(EventTypeAchievementUpdated, goalID, title, ownerID, actorID)
	ev.Week = week
	ev.Data["week"] = week
	return ev
}

type FeedbackEvent struct {
	BaseEvent
	FeedbackID int64  `json:"feedback_id"`
	GoalID     int64  `json:"goal_id"`
	GoalTitle  string `json:"goal_title"`
	OwnerID    int64  `json:"owner_id"`
	ActorID    int64  `json:"actor_id"`
	// AuthorID is the author of the original feedback; set on replies.
	AuthorID int64 `json:"author_id,omitempty"`
}

func NewFeedbackGivenEvent(feedbackID, goalID int64, title string, ownerID, giverID int64) *FeedbackEvent {
	return &FeedbackEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeFeedbackGiven,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"feedback_id": feedbackID,
				"goal_id":     goalID,
				"owner_id":    ownerID,
				"actor_id":    giverID,
			},
		},
		FeedbackID: feedbackID,
		GoalID:     goalID,
		GoalTitle:  title,
		OwnerID:    ownerID,
		ActorID:    giverID,
	}
}

func NewFeedbackRepliedEvent(feedbackID, goalID int64, title string, ownerID, replierID, authorID int64) *FeedbackEvent {
	return &FeedbackEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeFeedbackReplied,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"feedback_id": feedbackID,
				"goal_id":     goalID,
				"owner_id":    ownerID,
				"actor_id":    replierID,
				"author_id":   authorID,
			},
		},
		FeedbackID: feedbackID,
		GoalID:     goalID,
		GoalTitle:  title,
		OwnerID:    ownerID,
		ActorID:    replierID,
		AuthorID:   authorID,
	}
}
