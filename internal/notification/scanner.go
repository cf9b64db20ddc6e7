package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/goal-tracker/internal/core/clock"
	goalDatamodel "github.com/frahmantamala/goal-tracker/internal/core/datamodel/goal"
	"github.com/frahmantamala/goal-tracker/internal/core/role"
	"github.com/frahmantamala/goal-tracker/internal/goal"
	"github.com/frahmantamala/goal-tracker/internal/user"
)

const (
	DueSoonWindowDays     = 5
	NotCompletedDedupDays = 7
)

type GoalLister interface {
	ListByUser(ctx context.Context, userID int64) ([]*goalDatamodel.Goal, error)
}

type ScanReport struct {
	Users        int `json:"users"`
	Goals        int `json:"goals"`
	DueSoon      int `json:"due_soon"`
	NotCompleted int `json:"not_completed"`
	NotUpdated   int `json:"not_updated"`
	Suppressed   int `json:"suppressed"`
	Skipped      int `json:"skipped"`
	Failed       int `json:"failed"`
}

// Scanner is the daily due-date and missing-update sweep.
type Scanner struct {
	engine  *Service
	goals   GoalLister
	users   Directory
	clock   clock.Clock
	reapply bool
	metrics *Metrics
	logger  *slog.Logger
}

// NewScanner builds a scanner. With reapplyRolePass set, Manager, HR, VP and
// CMD goals get a second due-soon and not-completed check that skips dedup.
func NewScanner(engine *Service, goals GoalLister, users Directory, clk clock.Clock, reapplyRolePass bool, metrics *Metrics, logger *slog.Logger) *Scanner {
	return &Scanner{
		engine:  engine,
		goals:   goals,
		users:   users,
		clock:   clk,
		reapply: reapplyRolePass,
		metrics: metrics,
		logger:  logger,
	}
}

type scanTarget struct {
	goal *goal.Goal
	p    Participants
}

func (s *Scanner) Run(ctx context.Context) ScanReport {
	started := time.Now()
	defer func() { s.metrics.ObserveBatch("scan", time.Since(started)) }()

	var report ScanReport
	all, err := s.users.ListAll(ctx)
	if err != nil {
		s.logger.Error("scanner could not load users", "error", err)
		return report
	}
	people := PeopleFromUsers(all)
	today := clock.Today(s.clock)

	notified := make(map[int64]bool)
	for _, u := range all {
		if ctx.Err() != nil {
			s.logger.Warn("scan interrupted", "error", ctx.Err())
			return report
		}
		report.Users++
		for _, t := range s.targets(ctx, u, people, &report) {
			report.Goals++
			if notified[t.goal.ID] {
				continue
			}
			if s.checkGoal(ctx, t, today, &report) {
				notified[t.goal.ID] = true
			}
		}
	}

	if s.reapply {
		for _, u := range all {
			if u.Role == role.Employee || ctx.Err() != nil {
				continue
			}
			for _, t := range s.targets(ctx, u, people, &report) {
				s.recheckDeadline(ctx, t, today, &report)
			}
		}
	}

	s.logger.Info("due date scan finished",
		"users", report.Users,
		"goals", report.Goals,
		"due_soon", report.DueSoon,
		"not_completed", report.NotCompleted,
		"not_updated", report.NotUpdated,
		"suppressed", report.Suppressed,
		"skipped", report.Skipped,
		"failed", report.Failed)
	return report
}

func (s *Scanner) targets(ctx context.Context, u *user.User, people []*Person, report *ScanReport) []scanTarget {
	rows, err := s.goals.ListByUser(ctx, u.ID)
	if err != nil {
		s.logger.Error("scanner could not load goals", "error", err, "user_id", u.ID)
		report.Failed++
		return nil
	}

	p := Participants{Owner: PersonFromUser(u), Users: people}
	if u.HasManager() {
		p.Manager = p.Lookup(*u.ManagerID)
	}

	var out []scanTarget
	for _, g := range goal.FromDataModels(rows) {
		if g.IsActive() {
			out = append(out, scanTarget{goal: g, p: p})
		}
	}
	return out
}

// checkGoal fires at most one condition for the goal and reports whether
// anything was emitted. A bad record is skipped.
func (s *Scanner) checkGoal(ctx context.Context, t scanTarget, today time.Time, report *ScanReport) (fired bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scanner skipped goal", "goal_id", t.goal.ID, "panic", r)
			report.Skipped++
			fired = false
		}
	}()

	g, loc := t.goal, s.clock.Location()
	days, ok := g.DaysRemaining(today, loc)
	if !ok {
		report.Skipped++
		return false
	}

	switch {
	case days >= 1 && days <= DueSoonWindowDays:
		if s.dueSoon(ctx, t, days, today, true, report) {
			return true
		}
	case days < 0:
		if s.notCompleted(ctx, t, today, true, report) {
			return true
		}
	}

	return s.notUpdated(ctx, t, today, report)
}

func (s *Scanner) recheckDeadline(ctx context.Context, t scanTarget, today time.Time, report *ScanReport) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scanner skipped goal on role pass", "goal_id", t.goal.ID, "panic", r)
			report.Skipped++
		}
	}()

	days, ok := t.goal.DaysRemaining(today, s.clock.Location())
	if !ok {
		return
	}
	switch {
	case days >= 1 && days <= DueSoonWindowDays:
		s.dueSoon(ctx, t, days, today, false, report)
	case days < 0:
		s.notCompleted(ctx, t, today, false, report)
	}
}

func (s *Scanner) dueSoon(ctx context.Context, t scanTarget, days int, today time.Time, dedup bool, report *ScanReport) bool {
	g := t.goal
	q := DedupQuery{
		UserID:     g.UserID,
		ActionType: ActionGoalDueSoon,
		GoalID:     &g.ID,
		Contains:   []string{quoted(g.Title), fmt.Sprintf("due in %d day", days)},
		Since:      today,
	}
	if dedup && s.engine.Seen(ctx, q) {
		report.Suppressed++
		return false
	}
	ev := Event{Kind: KindGoalDueSoon, GoalID: g.ID, GoalTitle: g.Title, OwnerID: g.UserID, DaysRemaining: days}
	if s.deliver(ctx, ev, t.p, report) {
		report.DueSoon++
		return true
	}
	return false
}

func (s *Scanner) notCompleted(ctx context.Context, t scanTarget, today time.Time, dedup bool, report *ScanReport) bool {
	g := t.goal
	progress, ok := g.Progress()
	if !ok || progress >= 100 {
		return false
	}
	q := DedupQuery{
		UserID:     g.UserID,
		ActionType: ActionGoalNotCompleted,
		GoalID:     &g.ID,
		Contains:   []string{quoted(g.Title)},
		Since:      today.AddDate(0, 0, -NotCompletedDedupDays),
	}
	if dedup && s.engine.Seen(ctx, q) {
		report.Suppressed++
		return false
	}
	ev := Event{Kind: KindGoalNotCompleted, GoalID: g.ID, GoalTitle: g.Title, OwnerID: g.UserID, Progress: progress}
	if s.deliver(ctx, ev, t.p, report) {
		report.NotCompleted++
		return true
	}
	return false
}

// notUpdated checks every elapsed week of a current-month goal; several weeks
// may fire in one run.
func (s *Scanner) notUpdated(ctx context.Context, t scanTarget, today time.Time, report *ScanReport) bool {
	g := t.goal
	if !g.InMonth(today.Year(), today.Month()) {
		return false
	}

	fired := false
	for week := 1; week <= goal.WeeksPerMonth; week++ {
		achievement, _ := g.WeekAchievement(week)
		if achievement != nil {
			continue
		}
		_, end, err := goal.WeekRange(g.Year, today.Month(), week, s.clock.Location())
		if err != nil || !today.After(end) {
			continue
		}
		q := DedupQuery{
			UserID:     g.UserID,
			ActionType: ActionGoalNotUpdated,
			GoalID:     &g.ID,
			Contains:   []string{quoted(g.Title), fmt.Sprintf("week %d", week)},
			Since:      today,
		}
		if s.engine.Seen(ctx, q) {
			report.Suppressed++
			continue
		}
		ev := Event{Kind: KindGoalNotUpdated, GoalID: g.ID, GoalTitle: g.Title, OwnerID: g.UserID, Week: week}
		if s.deliver(ctx, ev, t.p, report) {
			report.NotUpdated++
			fired = true
		}
	}
	return fired
}

func (s *Scanner) deliver(ctx context.Context, ev Event, p Participants, report *ScanReport) bool {
	res := s.engine.Deliver(ctx, ev, p)
	report.Failed += res.Failed
	return res.Emitted > 0
}

// quoted matches the title as rendered in notification details.
func quoted(title string) string {
	return "'" + title + "'"
}
