package notification_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/goal-tracker/internal"
	"github.com/frahmantamala/goal-tracker/internal/core/clock"
	goalDatamodel "github.com/frahmantamala/goal-tracker/internal/core/datamodel/goal"
	"github.com/frahmantamala/goal-tracker/internal/core/role"
	"github.com/frahmantamala/goal-tracker/internal/notification"
	"github.com/frahmantamala/goal-tracker/internal/user"
)

var _ = Describe("Scanner", func() {
	var (
		ctx   context.Context
		store *memoryStore
		goals *goalTable
		dir   *directory
		mgr   *user.User
		emp   *user.User
		hr    *user.User
	)

	ist := clock.IST()
	now := time.Date(2026, time.March, 20, 9, 0, 0, 0, ist)

	newScanner := func(reapply bool) *notification.Scanner {
		clk := clock.Fixed(now, ist)
		engine := notification.NewService(store, dir, &recordingMailer{}, clk, internal.NotificationConfig{}, nil, quietLogger())
		return notification.NewScanner(engine, goals, dir, clk, reapply, nil, quietLogger())
	}

	activeGoal := func(id, owner int64, month int, end *time.Time) *goalDatamodel.Goal {
		return &goalDatamodel.Goal{
			ID: id, UserID: owner, Title: "Close deals", Year: 2026, Month: intp(month),
			EndDate: end, Status: "Active", ApprovalStatus: "approved", MonthlyTarget: 100,
			Week1Achievement: f64(10), Week2Achievement: f64(10), Week3Achievement: f64(10), Week4Achievement: f64(10),
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = newMemoryStore()
		goals = &goalTable{}
		mgr = &user.User{ID: 2, Name: "Mona", Role: role.Manager, IsActive: true}
		emp = &user.User{ID: 3, Name: "Eli", Role: role.Employee, ManagerID: &mgr.ID, IsActive: true}
		hr = &user.User{ID: 4, Name: "Hana", Role: role.HR, IsActive: true}
		dir = &directory{users: []*user.User{mgr, emp, hr}}
	})

	Context("due soon", func() {
		BeforeEach(func() {
			goals.goals = append(goals.goals, activeGoal(1, emp.ID, 3, date(2026, time.March, 23, ist)))
		})

		It("notifies the owner once with the days remaining", func() {
			report := newScanner(false).Run(ctx)
			Expect(report.DueSoon).To(Equal(1))

			rows := store.forUser(emp.ID, notification.ActionGoalDueSoon)
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].Details).To(Equal("Your goal 'Close deals' is due in 3 day(s)"))
			Expect(rows[0].ActionByName).To(Equal(notification.SystemActorName))
		})

		It("does not repeat on a second run the same day", func() {
			scanner := newScanner(false)
			scanner.Run(ctx)
			report := scanner.Run(ctx)

			Expect(report.DueSoon).To(BeZero())
			Expect(report.Suppressed).To(Equal(1))
			Expect(store.forUser(emp.ID, notification.ActionGoalDueSoon)).To(HaveLen(1))
		})

		It("keeps goals whose titles share a prefix apart", func() {
			longer := activeGoal(2, emp.ID, 3, date(2026, time.March, 23, ist))
			longer.Title = "Close deals faster"
			goals.goals = []*goalDatamodel.Goal{longer, goals.goals[0]}

			report := newScanner(false).Run(ctx)
			Expect(report.DueSoon).To(Equal(2))
			Expect(report.Suppressed).To(BeZero())
			Expect(store.forUser(emp.ID, notification.ActionGoalDueSoon)).To(HaveLen(2))
		})

		It("ignores goals more than five days out", func() {
			goals.goals[0].EndDate = date(2026, time.March, 26, ist)
			Expect(newScanner(false).Run(ctx).DueSoon).To(BeZero())
			Expect(store.rows).To(BeEmpty())
		})

		It("ignores goals that are not active", func() {
			goals.goals[0].Status = "Completed"
			report := newScanner(false).Run(ctx)
			Expect(report.Goals).To(BeZero())
			Expect(store.rows).To(BeEmpty())
		})
	})

	Context("not completed", func() {
		It("fires for a past goal with no achievement", func() {
			g := activeGoal(1, emp.ID, 2, date(2026, time.March, 18, ist))
			g.MonthlyAchievement = nil
			goals.goals = append(goals.goals, g)

			report := newScanner(false).Run(ctx)
			Expect(report.NotCompleted).To(Equal(1))

			rows := store.forUser(emp.ID, notification.ActionGoalNotCompleted)
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].Details).To(Equal("Your goal 'Close deals' passed its end date at 0.0% progress"))
			Expect(store.forUser(mgr.ID, notification.ActionGoalNotCompleted)).To(HaveLen(1))
			Expect(store.forUser(hr.ID, notification.ActionGoalNotCompleted)).To(HaveLen(1))
		})

		It("stays quiet once the target is met", func() {
			g := activeGoal(1, emp.ID, 2, date(2026, time.March, 18, ist))
			g.MonthlyAchievement = f64(100)
			goals.goals = append(goals.goals, g)

			Expect(newScanner(false).Run(ctx).NotCompleted).To(BeZero())
			Expect(store.rows).To(BeEmpty())
		})

		It("waits seven days before repeating", func() {
			g := activeGoal(1, emp.ID, 2, date(2026, time.March, 18, ist))
			goals.goals = append(goals.goals, g)
			store.seed(emp.ID, g.ID, notification.ActionGoalNotCompleted,
				"Your goal 'Close deals' passed its end date at 0.0% progress", now.AddDate(0, 0, -3))

			report := newScanner(false).Run(ctx)
			Expect(report.NotCompleted).To(BeZero())
			Expect(report.Suppressed).To(Equal(1))
		})

		It("reports a later goal that reuses an earlier goal's title", func() {
			jan := activeGoal(1, emp.ID, 1, date(2026, time.January, 31, ist))
			feb := activeGoal(2, emp.ID, 2, date(2026, time.February, 28, ist))
			goals.goals = append(goals.goals, jan, feb)

			report := newScanner(false).Run(ctx)
			Expect(report.NotCompleted).To(Equal(2))
			Expect(report.Suppressed).To(BeZero())

			rows := store.forUser(emp.ID, notification.ActionGoalNotCompleted)
			Expect(rows).To(HaveLen(2))
			Expect(*rows[0].GoalID).To(Equal(int64(1)))
			Expect(*rows[1].GoalID).To(Equal(int64(2)))
		})
	})

	Context("not updated", func() {
		It("flags each elapsed week without an achievement", func() {
			g := activeGoal(1, emp.ID, 3, date(2026, time.March, 31, ist))
			g.Week1Achievement, g.Week2Achievement, g.Week3Achievement = nil, nil, nil
			goals.goals = append(goals.goals, g)

			report := newScanner(false).Run(ctx)
			Expect(report.NotUpdated).To(Equal(2))

			rows := store.forUser(emp.ID, notification.ActionGoalNotUpdated)
			Expect(rows).To(HaveLen(2))
			Expect(rows[0].Details).To(Equal("You have not updated week 1 of goal 'Close deals'"))
			Expect(rows[1].Details).To(Equal("You have not updated week 2 of goal 'Close deals'"))
			Expect(store.forUser(mgr.ID, notification.ActionGoalNotUpdated)).To(HaveLen(2))
		})

		It("suppresses the same weeks later that day", func() {
			g := activeGoal(1, emp.ID, 3, date(2026, time.March, 31, ist))
			g.Week1Achievement = nil
			goals.goals = append(goals.goals, g)

			scanner := newScanner(false)
			scanner.Run(ctx)
			report := scanner.Run(ctx)
			Expect(report.NotUpdated).To(BeZero())
			Expect(report.Suppressed).To(Equal(1))
		})

		It("ignores goals from other months", func() {
			g := activeGoal(1, emp.ID, 4, date(2026, time.April, 30, ist))
			g.Week1Achievement = nil
			goals.goals = append(goals.goals, g)

			Expect(newScanner(false).Run(ctx).NotUpdated).To(BeZero())
		})
	})

	It("fires only the deadline check when both would apply", func() {
		g := activeGoal(1, emp.ID, 3, date(2026, time.March, 22, ist))
		g.Week1Achievement = nil
		goals.goals = append(goals.goals, g)

		report := newScanner(false).Run(ctx)
		Expect(report.DueSoon).To(Equal(1))
		Expect(report.NotUpdated).To(BeZero())
	})

	It("skips goals without an end date", func() {
		goals.goals = append(goals.goals, activeGoal(1, emp.ID, 3, nil))
		report := newScanner(false).Run(ctx)
		Expect(report.Skipped).To(Equal(1))
		Expect(store.rows).To(BeEmpty())
	})

	Context("role pass", func() {
		BeforeEach(func() {
			goals.goals = append(goals.goals, activeGoal(1, mgr.ID, 3, date(2026, time.March, 22, ist)))
		})

		It("notifies once when switched off", func() {
			newScanner(false).Run(ctx)
			Expect(store.forUser(mgr.ID, notification.ActionGoalDueSoon)).To(HaveLen(1))
		})

		It("re-notifies manager goals without dedup when switched on", func() {
			report := newScanner(true).Run(ctx)
			Expect(report.DueSoon).To(Equal(2))
			Expect(store.forUser(mgr.ID, notification.ActionGoalDueSoon)).To(HaveLen(2))
		})
	})
})
