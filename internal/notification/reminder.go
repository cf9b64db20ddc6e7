package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/goal-tracker/internal/core/clock"
	"github.com/frahmantamala/goal-tracker/internal/core/role"
	"github.com/frahmantamala/goal-tracker/internal/goal"
	"github.com/frahmantamala/goal-tracker/internal/mail"
	"github.com/frahmantamala/goal-tracker/internal/user"
)

// ReminderWindowStartDay is the first day of the month reminders go out.
const ReminderWindowStartDay = 26

type ReminderReport struct {
	Ran         bool `json:"ran"`
	Users       int  `json:"users"`
	Reminded    int  `json:"reminded"`
	Escalations int  `json:"escalations"`
	Failed      int  `json:"failed"`
}

// Reminder emails users whose current month goal sheet is incomplete, and
// their managers. HR is copied on every mail.
type Reminder struct {
	goals   GoalLister
	users   Directory
	mailer  mail.Sender
	clock   clock.Clock
	metrics *Metrics
	logger  *slog.Logger
}

func NewReminder(goals GoalLister, users Directory, mailer mail.Sender, clk clock.Clock, metrics *Metrics, logger *slog.Logger) *Reminder {
	return &Reminder{
		goals:   goals,
		users:   users,
		mailer:  mailer,
		clock:   clk,
		metrics: metrics,
		logger:  logger,
	}
}

// InWindow reports whether today falls between the 26th and month end.
func InWindow(today time.Time) bool {
	return today.Day() >= ReminderWindowStartDay && today.Day() <= clock.DaysInMonth(today.Year(), today.Month())
}

type incompleteGoal struct {
	title   string
	missing []string
}

func (r *Reminder) Run(ctx context.Context) ReminderReport {
	var report ReminderReport
	today := clock.Today(r.clock)
	if !InWindow(today) {
		r.logger.Debug("reminder outside monthly window", "day", today.Day())
		return report
	}

	started := time.Now()
	defer func() { r.metrics.ObserveBatch("remind", time.Since(started)) }()
	report.Ran = true

	all, err := r.users.ListAll(ctx)
	if err != nil {
		r.logger.Error("reminder could not load users", "error", err)
		return report
	}
	var hr []string
	byID := make(map[int64]*user.User, len(all))
	for _, u := range all {
		byID[u.ID] = u
		if u.Role == role.HR && u.HasEmail() {
			hr = append(hr, u.Email)
		}
	}

	for _, u := range all {
		if ctx.Err() != nil {
			r.logger.Warn("reminder interrupted", "error", ctx.Err())
			break
		}
		if !u.HasEmail() {
			continue
		}
		pending, ok := r.incomplete(ctx, u, today)
		if !ok {
			report.Failed++
			continue
		}
		if len(pending) == 0 {
			continue
		}
		report.Users++

		items := formatItems(pending)
		month := today.Format("January 2006")
		if r.send(ctx, "reminder", mail.Message{
			To:      []string{u.Email},
			Cc:      hr,
			Subject: fmt.Sprintf("Reminder: complete your goal sheet for %s", month),
			Body:    fmt.Sprintf("Hi %s,\n\nThe following goal items for %s are still missing:\n\n%s\nPlease update them before the month ends.\n", u.Name, month, items),
		}) {
			report.Reminded++
		} else {
			report.Failed++
		}

		if !u.HasManager() {
			continue
		}
		manager, found := byID[*u.ManagerID]
		if !found || !manager.HasEmail() {
			continue
		}
		if r.send(ctx, "escalation", mail.Message{
			To:      []string{manager.Email},
			Cc:      hr,
			Subject: fmt.Sprintf("%s has an incomplete goal sheet for %s", u.Name, month),
			Body:    fmt.Sprintf("Hi %s,\n\n%s has not completed these goal items for %s:\n\n%s", manager.Name, u.Name, month, items),
		}) {
			report.Escalations++
		} else {
			report.Failed++
		}
	}

	r.logger.Info("reminder run finished",
		"users", report.Users,
		"reminded", report.Reminded,
		"escalations", report.Escalations,
		"failed", report.Failed)
	return report
}

func (r *Reminder) incomplete(ctx context.Context, u *user.User, today time.Time) ([]incompleteGoal, bool) {
	rows, err := r.goals.ListByUser(ctx, u.ID)
	if err != nil {
		r.logger.Error("reminder could not load goals", "error", err, "user_id", u.ID)
		return nil, false
	}
	var out []incompleteGoal
	for _, g := range goal.FromDataModels(rows) {
		if !g.InMonth(today.Year(), today.Month()) {
			continue
		}
		if missing := g.MissingItems(); len(missing) > 0 {
			out = append(out, incompleteGoal{title: g.Title, missing: missing})
		}
	}
	return out, true
}

func (r *Reminder) send(ctx context.Context, kind string, msg mail.Message) bool {
	if err := r.mailer.Send(ctx, msg); err != nil {
		r.logger.Warn("failed to send reminder email", "kind", kind, "to", msg.To, "error", err)
		r.metrics.RecordEmail(kind, OutcomeFailed)
		return false
	}
	r.metrics.RecordEmail(kind, OutcomeSent)
	return true
}

func formatItems(goals []incompleteGoal) string {
	var b strings.Builder
	for _, g := range goals {
		fmt.Fprintf(&b, "%s\n", g.title)
		for _, item := range g.missing {
			fmt.Fprintf(&b, "  - %s\n", item)
		}
	}
	return b.String()
}
