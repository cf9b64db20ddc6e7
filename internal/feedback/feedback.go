package feedback

import (
	"errors"
	"time"

	feedbackDatamodel "github.com/frahmantamala/goal-tracker/internal/core/datamodel/feedback"
)

var ErrNotFound = errors.New("feedback not found")

type Feedback struct {
	ID         int64     `json:"id"`
	GoalID     int64     `json:"goal_id"`
	FeedbackBy int64     `json:"feedback_by"`
	Comment    string    `json:"comment"`
	IsOfficial bool      `json:"is_official"`
	CreatedAt  time.Time `json:"created_at"`
	Replies    []*Reply  `json:"replies,omitempty"`
}

type Reply struct {
	ID         int64     `json:"id"`
	FeedbackID int64     `json:"feedback_id"`
	RepliedBy  int64     `json:"replied_by"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

func ToDataModel(f *Feedback) *feedbackDatamodel.Feedback {
	return &feedbackDatamodel.Feedback{
		ID:         f.ID,
		GoalID:     f.GoalID,
		FeedbackBy: f.FeedbackBy,
		Comment:    f.Comment,
		IsOfficial: f.IsOfficial,
		CreatedAt:  f.CreatedAt,
	}
}

func FromDataModel(f *feedbackDatamodel.Feedback) *Feedback {
	return &Feedback{
		ID:         f.ID,
		GoalID:     f.GoalID,
		FeedbackBy: f.FeedbackBy,
		Comment:    f.Comment,
		IsOfficial: f.IsOfficial,
		CreatedAt:  f.CreatedAt,
	}
}

func ReplyToDataModel(r *Reply) *feedbackDatamodel.Reply {
	return &feedbackDatamodel.Reply{
		ID:         r.ID,
		FeedbackID: r.FeedbackID,
		RepliedBy:  r.RepliedBy,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
	}
}

func ReplyFromDataModel(r *feedbackDatamodel.Reply) *Reply {
	return &Reply{
		ID:         r.ID,
		FeedbackID: r.FeedbackID,
		RepliedBy:  r.RepliedBy,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
	}
}
