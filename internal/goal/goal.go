package goal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/goal-tracker/internal/core/clock"
	goalDatamodel "github.com/frahmantamala/goal-tracker/internal/core/datamodel/goal"
)

type Status string

const (
	StatusActive    Status = "Active"
	StatusCompleted Status = "Completed"
	StatusOnHold    Status = "On Hold"
	StatusCancelled Status = "Cancelled"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

const WeeksPerMonth = 4

var (
	ErrNotFound    = errors.New("goal not found")
	ErrInvalidWeek = errors.New("week must be between 1 and 4")
)

type Goal struct {
	ID                 int64          `json:"goal_id"`
	UserID             int64          `json:"user_id"`
	Title              string         `json:"goal_title"`
	Department         string         `json:"department"`
	KPI                string         `json:"kpi"`
	Year               int            `json:"year"`
	Quarter            int            `json:"quarter"`
	Month              *int           `json:"month,omitempty"`
	Week               *int           `json:"week,omitempty"`
	StartDate          *time.Time     `json:"start_date,omitempty"`
	EndDate            *time.Time     `json:"end_date,omitempty"`
	Status             Status         `json:"status"`
	ApprovalStatus     ApprovalStatus `json:"approval_status"`
	MonthlyTarget      float64        `json:"monthly_target"`
	MonthlyAchievement *float64       `json:"monthly_achievement"`
	Week1Achievement   *float64       `json:"week1_achievement"`
	Week2Achievement   *float64       `json:"week2_achievement"`
	Week3Achievement   *float64       `json:"week3_achievement"`
	Week4Achievement   *float64       `json:"week4_achievement"`
	Week1Remarks       *string        `json:"week1_remarks,omitempty"`
	Week2Remarks       *string        `json:"week2_remarks,omitempty"`
	Week3Remarks       *string        `json:"week3_remarks,omitempty"`
	Week4Remarks       *string        `json:"week4_remarks,omitempty"`
	ApprovedBy         *int64         `json:"approved_by,omitempty"`
	ApprovedAt         *time.Time     `json:"approved_at,omitempty"`
	CompletedAt        *time.Time     `json:"completed_at,omitempty"`
	CreatedBy          int64          `json:"created_by"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// Progress is monthly_achievement / monthly_target * 100. A null achievement
// counts as zero; the second result is false when the target is not positive.
func (g *Goal) Progress() (float64, bool) {
	if g.MonthlyTarget <= 0 {
		return 0, false
	}
	var achieved float64
	if g.MonthlyAchievement != nil {
		achieved = *g.MonthlyAchievement
	}
	return achieved / g.MonthlyTarget * 100, true
}

func (g *Goal) IsActive() bool {
	return g.Status == StatusActive
}

func (g *Goal) IsPending() bool {
	return g.ApprovalStatus == ApprovalPending
}

// DaysRemaining counts calendar days from today to the end date in loc.
func (g *Goal) DaysRemaining(today time.Time, loc *time.Location) (int, bool) {
	if g.EndDate == nil || g.EndDate.IsZero() {
		return 0, false
	}
	return clock.DaysUntil(today, *g.EndDate, loc), true
}

// IsNotCompleted is the inferred state of an active goal past its end date
// with progress under 100.
func (g *Goal) IsNotCompleted(today time.Time, loc *time.Location) bool {
	if !g.IsActive() {
		return false
	}
	days, ok := g.DaysRemaining(today, loc)
	if !ok || days >= 0 {
		return false
	}
	progress, ok := g.Progress()
	return ok && progress < 100
}

func (g *Goal) InMonth(year int, month time.Month) bool {
	return g.Month != nil && g.Year == year && *g.Month == int(month)
}

func (g *Goal) WeekAchievement(week int) (*float64, error) {
	switch week {
	case 1:
		return g.Week1Achievement, nil
	case 2:
		return g.Week2Achievement, nil
	case 3:
		return g.Week3Achievement, nil
	case 4:
		return g.Week4Achievement, nil
	}
	return nil, ErrInvalidWeek
}

func (g *Goal) WeekRemarks(week int) (*string, error) {
	switch week {
	case 1:
		return g.Week1Remarks, nil
	case 2:
		return g.Week2Remarks, nil
	case 3:
		return g.Week3Remarks, nil
	case 4:
		return g.Week4Remarks, nil
	}
	return nil, ErrInvalidWeek
}

func (g *Goal) SetWeek(week int, achievement *float64, remarks *string) error {
	switch week {
	case 1:
		g.Week1Achievement, g.Week1Remarks = pick(achievement, g.Week1Achievement), pickString(remarks, g.Week1Remarks)
	case 2:
		g.Week2Achievement, g.Week2Remarks = pick(achievement, g.Week2Achievement), pickString(remarks, g.Week2Remarks)
	case 3:
		g.Week3Achievement, g.Week3Remarks = pick(achievement, g.Week3Achievement), pickString(remarks, g.Week3Remarks)
	case 4:
		g.Week4Achievement, g.Week4Remarks = pick(achievement, g.Week4Achievement), pickString(remarks, g.Week4Remarks)
	default:
		return ErrInvalidWeek
	}
	return nil
}

// MissingItems lists what the owner still has to fill in for the month.
// Remarks count as missing when empty or "0".
func (g *Goal) MissingItems() []string {
	var missing []string
	for week := 1; week <= WeeksPerMonth; week++ {
		if a, _ := g.WeekAchievement(week); a == nil {
			missing = append(missing, fmt.Sprintf("Week %d achievement", week))
		}
		if r, _ := g.WeekRemarks(week); blankRemark(r) {
			missing = append(missing, fmt.Sprintf("Week %d remarks", week))
		}
	}
	if g.MonthlyAchievement == nil {
		missing = append(missing, "Monthly achievement")
	}
	return missing
}

func blankRemark(r *string) bool {
	if r == nil {
		return true
	}
	v := strings.TrimSpace(*r)
	return v == "" || v == "0"
}

func pick(next, current *float64) *float64 {
	if next != nil {
		return next
	}
	return current
}

func pickString(next, current *string) *string {
	if next != nil {
		return next
	}
	return current
}

// FiscalQuarter maps a calendar month to the April-start fiscal quarter.
func FiscalQuarter(month time.Month) int {
	switch {
	case month >= time.April && month <= time.June:
		return 1
	case month >= time.July && month <= time.September:
		return 2
	case month >= time.October && month <= time.December:
		return 3
	default:
		return 4
	}
}

// WeekRange returns the first and last day of week 1..4 of a month. Weeks are
// seven-day blocks from the 1st; week 4 runs to the end of the month.
func WeekRange(year int, month time.Month, week int, loc *time.Location) (time.Time, time.Time, error) {
	if week < 1 || week > WeeksPerMonth {
		return time.Time{}, time.Time{}, ErrInvalidWeek
	}
	startDay := (week-1)*7 + 1
	endDay := startDay + 6
	if week == WeeksPerMonth {
		endDay = clock.DaysInMonth(year, month)
	}
	start := time.Date(year, month, startDay, 0, 0, 0, 0, loc)
	end := time.Date(year, month, endDay, 0, 0, 0, 0, loc)
	return start, end, nil
}

func ToDataModel(g *Goal) *goalDatamodel.Goal {
	return &goalDatamodel.Goal{
		ID:                 g.ID,
		UserID:             g.UserID,
		Title:              g.Title,
		Department:         g.Department,
		KPI:                g.KPI,
		Year:               g.Year,
		Quarter:            g.Quarter,
		Month:              g.Month,
		Week:               g.Week,
		StartDate:          g.StartDate,
		EndDate:            g.EndDate,
		Status:             string(g.Status),
		ApprovalStatus:     string(g.ApprovalStatus),
		MonthlyTarget:      g.MonthlyTarget,
		MonthlyAchievement: g.MonthlyAchievement,
		Week1Achievement:   g.Week1Achievement,
		Week2Achievement:   g.Week2Achievement,
		Week3Achievement:   g.Week3Achievement,
		Week4Achievement:   g.Week4Achievement,
		Week1Remarks:       g.Week1Remarks,
		Week2Remarks:       g.Week2Remarks,
		Week3Remarks:       g.Week3Remarks,
		Week4Remarks:       g.Week4Remarks,
		ApprovedBy:         g.ApprovedBy,
		ApprovedAt:         g.ApprovedAt,
		CompletedAt:        g.CompletedAt,
		CreatedBy:          g.CreatedBy,
		CreatedAt:          g.CreatedAt,
		UpdatedAt:          g.UpdatedAt,
	}
}

func FromDataModel(g *goalDatamodel.Goal) *Goal {
	return &Goal{
		ID:                 g.ID,
		UserID:             g.UserID,
		Title:              g.Title,
		Department:         g.Department,
		KPI:                g.KPI,
		Year:               g.Year,
		Quarter:            g.Quarter,
		Month:              g.Month,
		Week:               g.Week,
		StartDate:          g.StartDate,
		EndDate:            g.EndDate,
		Status:             Status(g.Status),
		ApprovalStatus:     ApprovalStatus(g.ApprovalStatus),
		MonthlyTarget:      g.MonthlyTarget,
		MonthlyAchievement: g.MonthlyAchievement,
		Week1Achievement:   g.Week1Achievement,
		Week2Achievement:   g.Week2Achievement,
		Week3Achievement:   g.Week3Achievement,
		Week4Achievement:   g.Week4Achievement,
		Week1Remarks:       g.Week1Remarks,
		Week2Remarks:       g.Week2Remarks,
		Week3Remarks:       g.Week3Remarks,
		Week4Remarks:       g.Week4Remarks,
		ApprovedBy:         g.ApprovedBy,
		ApprovedAt:         g.ApprovedAt,
		CompletedAt:        g.CompletedAt,
		CreatedBy:          g.CreatedBy,
		CreatedAt:          g.CreatedAt,
		UpdatedAt:          g.UpdatedAt,
	}
}

func FromDataModels(rows []*goalDatamodel.Goal) []*Goal {
	out := make([]*Goal, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out
}
