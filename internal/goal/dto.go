package goal

import (
	"time"

	errors "github.com/frahmantamala/goal-tracker/internal"
	"github.com/frahmantamala/goal-tracker/internal/core/common/validation"
)

type CreateGoalDTO struct {
	UserID        *int64  `json:"user_id,omitempty"`
	Title         string  `json:"goal_title"`
	Department    string  `json:"department"`
	KPI           string  `json:"kpi"`
	Year          int     `json:"year"`
	Quarter       int     `json:"quarter"`
	Month         *int    `json:"month,omitempty"`
	Week          *int    `json:"week,omitempty"`
	StartDate     string  `json:"start_date,omitempty"`
	EndDate       string  `json:"end_date,omitempty"`
	MonthlyTarget float64 `json:"monthly_target"`
}

type UpdateGoalDTO struct {
	Title         *string  `json:"goal_title,omitempty"`
	Department    *string  `json:"department,omitempty"`
	KPI           *string  `json:"kpi,omitempty"`
	StartDate     *string  `json:"start_date,omitempty"`
	EndDate       *string  `json:"end_date,omitempty"`
	Status        *string  `json:"status,omitempty"`
	MonthlyTarget *float64 `json:"monthly_target,omitempty"`
}

// AchievementDTO updates one week and/or the monthly figure.
type AchievementDTO struct {
	Week               *int     `json:"week,omitempty"`
	Achievement        *float64 `json:"achievement,omitempty"`
	Remarks            *string  `json:"remarks,omitempty"`
	MonthlyAchievement *float64 `json:"monthly_achievement,omitempty"`
}

type GoalsResponse struct {
	Goals []*Goal `json:"goals"`
	Total int     `json:"total"`
}

func (d CreateGoalDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("goal_title", d.Title).Required().MaxLength(255)
	v.Field("year", d.Year).Required().IntBetween(2000, 2100, errors.ErrCodeValidationFailed)
	v.Field("quarter", d.Quarter).IntBetween(0, 4, errors.ErrCodeValidationFailed)
	v.Field("month", d.Month).IntBetween(1, 12, errors.ErrCodeValidationFailed)
	v.Field("week", d.Week).IntBetween(1, WeeksPerMonth, errors.ErrCodeInvalidWeek)
	v.Field("start_date", d.StartDate).Date()
	v.Field("end_date", d.EndDate).Date()
	v.Field("monthly_target", d.MonthlyTarget).NonNegative()
	if d.StartDate != "" && d.EndDate != "" {
		v.Field("end_date", d.EndDate).Custom(func(interface{}) *errors.AppError {
			start, serr := time.Parse(time.DateOnly, d.StartDate)
			end, eerr := time.Parse(time.DateOnly, d.EndDate)
			if serr == nil && eerr == nil && end.Before(start) {
				return errors.NewValidationFieldError("end_date", "end_date must not be before start_date", errors.ErrCodeInvalidDate)
			}
			return nil
		})
	}
	return v.Validate()
}

func (d UpdateGoalDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	if d.Title != nil {
		v.Field("goal_title", *d.Title).Required().MaxLength(255)
	}
	if d.StartDate != nil {
		v.Field("start_date", *d.StartDate).Date()
	}
	if d.EndDate != nil {
		v.Field("end_date", *d.EndDate).Date()
	}
	if d.Status != nil {
		v.Field("status", *d.Status).Required().OneOf(
			string(StatusActive), string(StatusCompleted), string(StatusOnHold), string(StatusCancelled))
	}
	v.Field("monthly_target", d.MonthlyTarget).NonNegative()
	return v.Validate()
}

func (d AchievementDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("week", d.Week).IntBetween(1, WeeksPerMonth, errors.ErrCodeInvalidWeek)
	v.Field("achievement", d.Achievement).NonNegative()
	v.Field("monthly_achievement", d.MonthlyAchievement).NonNegative()
	if d.Week == nil && d.MonthlyAchievement == nil {
		return errors.NewValidationFieldError("week", "either week or monthly_achievement is required", errors.ErrCodeValidationFailed)
	}
	if d.Week == nil && (d.Achievement != nil || d.Remarks != nil) {
		return errors.NewValidationFieldError("week", "week is required with achievement or remarks", errors.ErrCodeInvalidWeek)
	}
	return v.Validate()
}
