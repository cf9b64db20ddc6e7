package goal

import (
	"math"
	"time"
)

type PerformanceMetrics struct {
	TotalGoals      int     `json:"total_goals"`
	CompletedGoals  int     `json:"completed_goals"`
	ActiveGoals     int     `json:"active_goals"`
	OverdueGoals    int     `json:"overdue_goals"`
	MeasuredGoals   int     `json:"measured_goals"`
	AverageProgress float64 `json:"average_progress"`
	CompletionRate  float64 `json:"completion_rate"`
}

// CalculatePerformanceMetrics aggregates progress over approved and rejected
// goals; pending goals are left out. It returns nil when nothing is left.
// Goals without a positive target count toward totals but not toward the
// average.
func CalculatePerformanceMetrics(goals []*Goal, today time.Time, loc *time.Location) *PerformanceMetrics {
	var (
		m   PerformanceMetrics
		sum float64
	)
	for _, g := range goals {
		if g == nil || g.IsPending() {
			continue
		}
		m.TotalGoals++
		switch {
		case g.Status == StatusCompleted:
			m.CompletedGoals++
		case g.IsActive():
			m.ActiveGoals++
			if g.IsNotCompleted(today, loc) {
				m.OverdueGoals++
			}
		}
		if progress, ok := g.Progress(); ok {
			m.MeasuredGoals++
			sum += progress
		}
	}
	if m.TotalGoals == 0 {
		return nil
	}
	if m.MeasuredGoals > 0 {
		m.AverageProgress = round2(sum / float64(m.MeasuredGoals))
	}
	m.CompletionRate = round2(float64(m.CompletedGoals) / float64(m.TotalGoals) * 100)
	return &m
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
