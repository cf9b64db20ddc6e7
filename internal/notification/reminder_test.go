package notification_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/goal-tracker/internal/core/clock"
	goalDatamodel "github.com/frahmantamala/goal-tracker/internal/core/datamodel/goal"
	"github.com/frahmantamala/goal-tracker/internal/core/role"
	"github.com/frahmantamala/goal-tracker/internal/notification"
	"github.com/frahmantamala/goal-tracker/internal/user"
)

var _ = Describe("Reminder", func() {
	var (
		ctx    context.Context
		mailer *recordingMailer
		goals  *goalTable
		dir    *directory
		mgr    *user.User
		emp    *user.User
	)

	ist := clock.IST()

	reminderOn := func(day int) *notification.Reminder {
		clk := clock.Fixed(time.Date(2026, time.March, day, 10, 0, 0, 0, ist), ist)
		return notification.NewReminder(goals, dir, mailer, clk, nil, quietLogger())
	}

	BeforeEach(func() {
		ctx = context.Background()
		mailer = &recordingMailer{}
		mgr = &user.User{ID: 2, Name: "Mona", Email: "mona@example.com", Role: role.Manager, IsActive: true}
		emp = &user.User{ID: 3, Name: "Eli", Email: "eli@example.com", Role: role.Employee, ManagerID: &mgr.ID, IsActive: true}
		hr1 := &user.User{ID: 4, Name: "Hana", Email: "hana@example.com", Role: role.HR, IsActive: true}
		hr2 := &user.User{ID: 5, Name: "Hugo", Email: "hugo@example.com", Role: role.HR, IsActive: true}
		dir = &directory{users: []*user.User{mgr, emp, hr1, hr2}}
		goals = &goalTable{goals: []*goalDatamodel.Goal{{
			ID: 1, UserID: emp.ID, Title: "Close deals", Year: 2026, Month: intp(3), Status: "Active",
			MonthlyTarget: 100, Week1Achievement: f64(10), Week1Remarks: str("kickoff"),
			Week2Achievement: f64(10), Week2Remarks: str("0"),
		}}}
	})

	It("does nothing on the 25th", func() {
		report := reminderOn(25).Run(ctx)
		Expect(report.Ran).To(BeFalse())
		Expect(mailer.sent).To(BeEmpty())
	})

	It("emails the owner and escalates to the manager from the 26th", func() {
		report := reminderOn(26).Run(ctx)
		Expect(report.Ran).To(BeTrue())
		Expect(report.Reminded).To(Equal(1))
		Expect(report.Escalations).To(Equal(1))
		Expect(mailer.sent).To(HaveLen(2))

		reminder := mailer.sent[0]
		Expect(reminder.To).To(Equal([]string{emp.Email}))
		Expect(reminder.Cc).To(Equal([]string{"hana@example.com", "hugo@example.com"}))
		Expect(reminder.Body).To(ContainSubstring("Week 2 remarks"))
		Expect(reminder.Body).To(ContainSubstring("Monthly achievement"))
		Expect(reminder.Body).NotTo(ContainSubstring("Week 1 remarks"))

		escalation := mailer.sent[1]
		Expect(escalation.To).To(Equal([]string{mgr.Email}))
		Expect(escalation.Cc).To(Equal(reminder.Cc))
		Expect(escalation.Subject).To(ContainSubstring("Eli"))
	})

	It("runs on the last day of the month", func() {
		Expect(reminderOn(31).Run(ctx).Reminded).To(Equal(1))
	})

	It("skips users whose sheet is complete", func() {
		g := goals.goals[0]
		g.Week2Remarks, g.Week3Remarks, g.Week4Remarks = str("ok"), str("ok"), str("ok")
		g.Week3Achievement, g.Week4Achievement, g.MonthlyAchievement = f64(1), f64(1), f64(1)

		report := reminderOn(27).Run(ctx)
		Expect(report.Users).To(BeZero())
		Expect(mailer.sent).To(BeEmpty())
	})

	It("skips users without an email", func() {
		emp.Email = ""
		Expect(reminderOn(27).Run(ctx).Reminded).To(BeZero())
		Expect(mailer.sent).To(BeEmpty())
	})

	It("ignores goals outside the current month", func() {
		goals.goals[0].Month = intp(2)
		Expect(reminderOn(27).Run(ctx).Users).To(BeZero())
	})

	It("counts failed sends without stopping", func() {
		mailer.err = errors.New("smtp down")
		report := reminderOn(28).Run(ctx)
		Expect(report.Failed).To(Equal(2))
		Expect(report.Reminded).To(BeZero())
	})

	It("knows the monthly window", func() {
		Expect(notification.InWindow(time.Date(2026, time.February, 26, 0, 0, 0, 0, ist))).To(BeTrue())
		Expect(notification.InWindow(time.Date(2026, time.February, 25, 0, 0, 0, 0, ist))).To(BeFalse())
		Expect(notification.InWindow(time.Date(2026, time.April, 30, 0, 0, 0, 0, ist))).To(BeTrue())
	})
})
