package notification

import (
	"errors"
	"time"

	notificationDatamodel "github.com/frahmantamala/goal-tracker/internal/core/datamodel/notification"
)

type ActionType string

const (
	ActionGoalCreated       ActionType = "goal_created"
	ActionGoalApproved      ActionType = "goal_approved"
	ActionGoalCompleted     ActionType = "goal_completed"
	ActionGoalNotCompleted  ActionType = "goal_not_completed"
	ActionWeeklyAchievement ActionType = "weekly_achievement_updated"
	ActionFeedbackReceived  ActionType = "feedback_received"
	ActionFeedbackGiven     ActionType = "feedback_given"
	ActionFeedbackReply     ActionType = "feedback_reply"
	ActionGoalEdited        ActionType = "goal_edited"
	ActionGoalDeleted       ActionType = "goal_deleted"
	ActionGoalDueSoon       ActionType = "goal_due_soon"
	ActionGoalNotUpdated    ActionType = "goal_not_updated"
)

// SystemActorName marks notices raised by batch jobs rather than a person.
const SystemActorName = "System"

var ErrNotFound = errors.New("notification not found")

// Notification is append-only apart from the read flag.
type Notification struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	ActionBy     int64      `json:"action_by"`
	ActionByName string     `json:"action_by_name"`
	ActionType   ActionType `json:"action_type"`
	Details      string     `json:"details"`
	GoalID       *int64     `json:"goal_id,omitempty"`
	IsRead       bool       `json:"is_read"`
	CreatedAt    time.Time  `json:"created_at"`
	ReadAt       *time.Time `json:"read_at,omitempty"`
}

func ToDataModel(n *Notification) *notificationDatamodel.Notification {
	return &notificationDatamodel.Notification{
		ID:           n.ID,
		UserID:       n.UserID,
		ActionBy:     n.ActionBy,
		ActionByName: n.ActionByName,
		ActionType:   string(n.ActionType),
		Details:      n.Details,
		GoalID:       n.GoalID,
		IsRead:       n.IsRead,
		CreatedAt:    n.CreatedAt,
		ReadAt:       n.ReadAt,
	}
}

func FromDataModel(n *notificationDatamodel.Notification) *Notification {
	return &Notification{
		ID:           n.ID,
		UserID:       n.UserID,
		ActionBy:     n.ActionBy,
		ActionByName: n.ActionByName,
		ActionType:   ActionType(n.ActionType),
		Details:      n.Details,
		GoalID:       n.GoalID,
		IsRead:       n.IsRead,
		CreatedAt:    n.CreatedAt,
		ReadAt:       n.ReadAt,
	}
}

func FromDataModels(rows []*notificationDatamodel.Notification) []*Notification {
	out := make([]*Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out
}
