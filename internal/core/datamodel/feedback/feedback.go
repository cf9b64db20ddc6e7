package feedback

import "time"

type Feedback struct {
	ID         int64     `gorm:"primaryKey"`
	GoalID     int64     `gorm:"column:goal_id;not null;index"`
	FeedbackBy int64     `gorm:"column:feedback_by;not null"`
	Comment    string    `gorm:"column:comment;not null"`
	IsOfficial bool      `gorm:"column:is_official;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Feedback) TableName() string {
	return "feedback"
}

type Reply struct {
	ID         int64     `gorm:"primaryKey"`
	FeedbackID int64     `gorm:"column:feedback_id;not null;index"`
	RepliedBy  int64     `gorm:"column:replied_by;not null"`
	Comment    string    `gorm:"column:comment;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Reply) TableName() string {
	return "feedback_replies"
}
