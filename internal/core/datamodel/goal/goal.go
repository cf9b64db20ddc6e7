package goal

import "time"

type Goal struct {
	ID                 int64      `gorm:"primaryKey"`
	UserID             int64      `gorm:"column:user_id;not null;index"`
	Title              string     `gorm:"column:goal_title;not null"`
	Department         string     `gorm:"column:department"`
	KPI                string     `gorm:"column:kpi"`
	Year               int        `gorm:"column:year;not null"`
	Quarter            int        `gorm:"column:quarter;not null"`
	Month              *int       `gorm:"column:month"`
	Week               *int       `gorm:"column:week"`
	StartDate          *time.Time `gorm:"column:start_date;type:date"`
	EndDate            *time.Time `gorm:"column:end_date;type:date"`
	Status             string     `gorm:"column:status;not null;default:Active"`
	ApprovalStatus     string     `gorm:"column:approval_status;not null;default:pending"`
	MonthlyTarget      float64    `gorm:"column:monthly_target"`
	MonthlyAchievement *float64   `gorm:"column:monthly_achievement"`
	Week1Achievement   *float64   `gorm:"column:week1_achievement"`
	Week2Achievement   *float64   `gorm:"column:week2_achievement"`
	Week3Achievement   *float64   `gorm:"column:week3_achievement"`
	Week4Achievement   *float64   `gorm:"column:week4_achievement"`
	Week1Remarks       *string    `gorm:"column:week1_remarks"`
	Week2Remarks       *string    `gorm:"column:week2_remarks"`
	Week3Remarks       *string    `gorm:"column:week3_remarks"`
	Week4Remarks       *string    `gorm:"column:week4_remarks"`
	ApprovedBy         *int64     `gorm:"column:approved_by"`
	ApprovedAt         *time.Time `gorm:"column:approved_at"`
	CompletedAt        *time.Time `gorm:"column:completed_at"`
	CreatedBy          int64      `gorm:"column:created_by"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Goal) TableName() string {
	return "goals"
}
