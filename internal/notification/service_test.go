package notification_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/goal-tracker/internal"
	"github.com/frahmantamala/goal-tracker/internal/core/clock"
	"github.com/frahmantamala/goal-tracker/internal/core/events"
	"github.com/frahmantamala/goal-tracker/internal/core/role"
	"github.com/frahmantamala/goal-tracker/internal/notification"
	"github.com/frahmantamala/goal-tracker/internal/user"
)

var _ = Describe("Notification Service", func() {
	var (
		ctx     context.Context
		store   *memoryStore
		mailer  *recordingMailer
		cfg     internal.NotificationConfig
		service *notification.Service
		dir     *directory
		mgr     *user.User
		emp     *user.User
		hr      *user.User
	)

	now := time.Date(2026, time.March, 10, 9, 30, 0, 0, clock.IST())

	build := func() {
		service = notification.NewService(store, dir, mailer, clock.Fixed(now, clock.IST()), cfg, nil, quietLogger())
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = newMemoryStore()
		mailer = &recordingMailer{}
		cfg = internal.NotificationConfig{ResendOwnerFeedback: true, DefaultListLimit: 50}

		mgr = &user.User{ID: 2, Name: "Mona", Email: "mona@example.com", Role: role.Manager, IsActive: true}
		emp = &user.User{ID: 3, Name: "Eli", Email: "eli@example.com", Role: role.Employee, ManagerID: &mgr.ID, IsActive: true}
		hr = &user.User{ID: 4, Name: "Hana", Email: "hana@example.com", Role: role.HR, IsActive: true}
		dir = &directory{users: []*user.User{mgr, emp, hr}}
		build()
	})

	approved := notification.Event{Kind: notification.KindGoalApproved, GoalID: 10, GoalTitle: "Close deals", OwnerID: 3, ActorID: 2}

	Describe("Dispatch", func() {
		It("stores every planned notification stamped with the clock", func() {
			res, err := service.Dispatch(ctx, approved)
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(notification.DispatchResult{Planned: 2, Emitted: 2}))

			rows := store.forUser(emp.ID, notification.ActionGoalApproved)
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].CreatedAt).To(BeTemporally("==", now))
			Expect(rows[0].ActionBy).To(Equal(mgr.ID))
			Expect(rows[0].ActionByName).To(Equal("Mona"))
			Expect(*rows[0].GoalID).To(Equal(int64(10)))
			Expect(rows[0].IsRead).To(BeFalse())
			Expect(store.forUser(hr.ID, notification.ActionGoalApproved)).To(HaveLen(1))
		})

		It("keeps going when one notification fails to store", func() {
			store.failFor[emp.ID] = true
			res, err := service.Dispatch(ctx, approved)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Failed).To(Equal(1))
			Expect(res.Emitted).To(Equal(1))
			Expect(store.forUser(hr.ID, notification.ActionGoalApproved)).To(HaveLen(1))
		})

		It("fails when the owner cannot be resolved", func() {
			ev := approved
			ev.OwnerID = 99
			_, err := service.Dispatch(ctx, ev)
			Expect(err).To(HaveOccurred())
			Expect(store.rows).To(BeEmpty())
		})

		It("names the system as actor for system events", func() {
			ev := notification.Event{Kind: notification.KindGoalDueSoon, GoalID: 10, GoalTitle: "Close deals", OwnerID: emp.ID, DaysRemaining: 2}
			_, err := service.Dispatch(ctx, ev)
			Expect(err).NotTo(HaveOccurred())
			rows := store.forUser(emp.ID, notification.ActionGoalDueSoon)
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].ActionByName).To(Equal(notification.SystemActorName))
			Expect(rows[0].ActionBy).To(Equal(emp.ID))
		})

		It("mirrors approvals by email when enabled", func() {
			cfg.EmailOnApproval = true
			build()
			_, err := service.Dispatch(ctx, approved)
			Expect(err).NotTo(HaveOccurred())
			Expect(mailer.sent).To(HaveLen(2))
			Expect(mailer.sent[0].To).To(Equal([]string{emp.Email}))
			Expect(mailer.sent[0].Body).To(Equal("Mona approved your goal 'Close deals'"))
		})

		It("does not email when mirroring is off", func() {
			_, err := service.Dispatch(ctx, approved)
			Expect(err).NotTo(HaveOccurred())
			Expect(mailer.sent).To(BeEmpty())
		})

		It("keeps the notification when the mirror email fails", func() {
			cfg.EmailOnApproval = true
			mailer.err = errors.New("smtp down")
			build()
			res, err := service.Dispatch(ctx, approved)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Emitted).To(Equal(2))
		})
	})

	Describe("Seen", func() {
		It("matches on every fragment", func() {
			_, err := service.Dispatch(ctx, notification.Event{Kind: notification.KindGoalDueSoon, GoalTitle: "Close deals", OwnerID: emp.ID, DaysRemaining: 3})
			Expect(err).NotTo(HaveOccurred())

			q := notification.DedupQuery{UserID: emp.ID, ActionType: notification.ActionGoalDueSoon, Contains: []string{"Close deals", "due in 3 day"}, Since: clock.Today(clock.Fixed(now, clock.IST()))}
			Expect(service.Seen(ctx, q)).To(BeTrue())
			q.Contains = []string{"Close deals", "due in 2 day"}
			Expect(service.Seen(ctx, q)).To(BeFalse())
		})

		It("treats a failed lookup as unseen", func() {
			store.existsErr = errStore
			Expect(service.Seen(ctx, notification.DedupQuery{UserID: emp.ID})).To(BeFalse())
		})
	})

	Describe("read side", func() {
		var first, second *notification.Notification

		BeforeEach(func() {
			first = &notification.Notification{UserID: emp.ID, ActionBy: mgr.ID, ActionByName: "Mona", ActionType: notification.ActionGoalApproved, Details: "one"}
			second = &notification.Notification{UserID: emp.ID, ActionBy: mgr.ID, ActionByName: "Mona", ActionType: notification.ActionGoalEdited, Details: "two"}
			Expect(service.Emit(ctx, first)).To(Succeed())
			Expect(service.Emit(ctx, second)).To(Succeed())
		})

		It("lists newest first", func() {
			items := service.ListForUser(ctx, emp.ID, 0)
			Expect(items).To(HaveLen(2))
			Expect(items[0].ID).To(Equal(second.ID))
			Expect(items[1].ID).To(Equal(first.ID))
		})

		It("honours the limit", func() {
			Expect(service.ListForUser(ctx, emp.ID, 1)).To(HaveLen(1))
		})

		It("returns an empty list when the store fails", func() {
			store.failAll = true
			items := service.ListForUser(ctx, emp.ID, 0)
			Expect(items).NotTo(BeNil())
			Expect(items).To(BeEmpty())
		})

		It("marks one notification read", func() {
			Expect(service.MarkRead(ctx, first.ID)).To(BeTrue())
			row, err := store.GetByID(ctx, first.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(row.IsRead).To(BeTrue())
			Expect(*row.ReadAt).To(BeTemporally("==", now))

			count, err := service.UnreadCount(ctx, emp.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(1)))
		})

		It("reports false for a missing notification", func() {
			Expect(service.MarkRead(ctx, 999)).To(BeFalse())
		})

		It("hides other users' notifications", func() {
			err := service.MarkReadForUser(ctx, hr.ID, first.ID)
			Expect(err).To(Equal(internal.ErrNotificationNotFound))
			Expect(service.MarkReadForUser(ctx, emp.ID, first.ID)).To(Succeed())
		})

		It("marks everything read", func() {
			n, err := service.MarkAllRead(ctx, emp.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(2)))

			count, err := service.UnreadCount(ctx, emp.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})
	})

	Describe("EventHandler", func() {
		It("turns bus events into notifications", func() {
			bus := events.NewEventBus(quietLogger())
			notification.NewEventHandler(service, quietLogger()).RegisterEventHandlers(bus)
			Expect(bus.HandlerCount(events.EventTypeGoalCreated)).To(Equal(1))

			err := bus.PublishSync(ctx, events.NewGoalEvent(events.EventTypeGoalCreated, 10, "Close deals", emp.ID, emp.ID))
			Expect(err).NotTo(HaveOccurred())
			rows := store.forUser(mgr.ID, notification.ActionGoalCreated)
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].Details).To(Equal("Eli created a new goal 'Close deals'"))
		})

		It("routes replies to the feedback author", func() {
			bus := events.NewEventBus(quietLogger())
			notification.NewEventHandler(service, quietLogger()).RegisterEventHandlers(bus)

			err := bus.PublishSync(ctx, events.NewFeedbackRepliedEvent(5, 10, "Close deals", emp.ID, emp.ID, mgr.ID))
			Expect(err).NotTo(HaveOccurred())
			Expect(store.forUser(mgr.ID, notification.ActionFeedbackReply)).To(HaveLen(1))
		})

		It("translates achievement updates with their week", func() {
			ev, err := notification.Translate(events.NewAchievementUpdatedEvent(10, "Close deals", emp.ID, emp.ID, 3))
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Kind).To(Equal(notification.KindAchievementUpdated))
			Expect(ev.Week).To(Equal(3))
		})

		It("reports unknown actors as errors", func() {
			bus := events.NewEventBus(quietLogger())
			notification.NewEventHandler(service, quietLogger()).RegisterEventHandlers(bus)
			err := bus.PublishSync(ctx, events.NewGoalEvent(events.EventTypeGoalEdited, 10, "Close deals", emp.ID, 77))
			Expect(err).To(HaveOccurred())
		})
	})
})
