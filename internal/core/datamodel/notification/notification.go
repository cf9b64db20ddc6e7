package notification

import "time"

type Notification struct {
	ID           int64      `gorm:"primaryKey"`
	UserID       int64      `gorm:"column:user_id;not null;index"`
	ActionBy     int64      `gorm:"column:action_by;not null"`
	ActionByName string     `gorm:"column:action_by_name;not null"`
	ActionType   string     `gorm:"column:action_type;not null"`
	Details      string     `gorm:"column:details;not null"`
	GoalID       *int64     `gorm:"column:goal_id"`
	IsRead       bool       `gorm:"column:is_read;not null;default:false"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null"`
	ReadAt       *time.Time `gorm:"column:read_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
