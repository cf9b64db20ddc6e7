package notification_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/goal-tracker/internal/core/role"
	"github.com/frahmantamala/goal-tracker/internal/notification"
)

var _ = Describe("Plan", func() {
	var (
		cmd, vp1, vp2, hr1, hr2, mgr, emp *notification.Person
		everyone                          []*notification.Person
	)

	BeforeEach(func() {
		mgrID := int64(6)
		cmd = &notification.Person{ID: 1, Name: "Chief", Role: role.CMD}
		vp1 = &notification.Person{ID: 2, Name: "Vera", Role: role.VP}
		vp2 = &notification.Person{ID: 3, Name: "Vic", Role: role.VP}
		hr1 = &notification.Person{ID: 4, Name: "Hana", Role: role.HR}
		hr2 = &notification.Person{ID: 5, Name: "Hugo", Role: role.HR}
		mgr = &notification.Person{ID: 6, Name: "Mona", Role: role.Manager}
		emp = &notification.Person{ID: 7, Name: "Eli", Role: role.Employee, ManagerID: &mgrID}
		everyone = []*notification.Person{cmd, vp1, vp2, hr1, hr2, mgr, emp}
	})

	participants := func(actor, owner, manager *notification.Person) notification.Participants {
		return notification.Participants{Actor: actor, Owner: owner, Manager: manager, Users: everyone}
	}

	plan := func(kind notification.Kind, actor, owner, manager *notification.Person) []notification.Delivery {
		ev := notification.Event{Kind: kind, GoalID: 10, GoalTitle: "Close deals", OwnerID: owner.ID, Week: 2}
		if actor != nil {
			ev.ActorID = actor.ID
		}
		return notification.Plan(ev, participants(actor, owner, manager), notification.DefaultOptions())
	}

	It("returns nothing without an owner", func() {
		ev := notification.Event{Kind: notification.KindGoalApproved}
		Expect(notification.Plan(ev, notification.Participants{Users: everyone}, notification.DefaultOptions())).To(BeEmpty())
	})

	Context("goal created", func() {
		It("tells only the manager when an employee creates a goal", func() {
			out := plan(notification.KindGoalCreated, emp, emp, mgr)
			Expect(recipients(out)).To(Equal([]int64{mgr.ID}))
			Expect(out[0].ActionType).To(Equal(notification.ActionGoalCreated))
			Expect(out[0].Details).To(Equal("Eli created a new goal 'Close deals'"))
		})

		It("tells every VP when a manager creates a goal", func() {
			Expect(recipients(plan(notification.KindGoalCreated, mgr, mgr, nil))).To(Equal([]int64{vp1.ID, vp2.ID}))
		})

		It("tells every CMD when a VP creates a goal", func() {
			Expect(recipients(plan(notification.KindGoalCreated, vp1, vp1, nil))).To(Equal([]int64{cmd.ID}))
		})

		It("tells nobody when a CMD creates a goal", func() {
			Expect(plan(notification.KindGoalCreated, cmd, cmd, nil)).To(BeEmpty())
		})
	})

	It("sends approvals to the owner and every HR", func() {
		out := plan(notification.KindGoalApproved, mgr, emp, mgr)
		Expect(recipients(out)).To(Equal([]int64{emp.ID, hr1.ID, hr2.ID}))
		Expect(out[0].Details).To(Equal("Mona approved your goal 'Close deals'"))
	})

	Context("escalation", func() {
		It("mirrors employee achievement updates to the manager and every HR", func() {
			out := plan(notification.KindAchievementUpdated, emp, emp, mgr)
			Expect(recipients(out)).To(Equal([]int64{mgr.ID, hr1.ID, hr2.ID}))
			Expect(out[0].ActionType).To(Equal(notification.ActionWeeklyAchievement))
			Expect(out[0].Details).To(ContainSubstring("week 2"))
		})

		It("sends HR completions to VPs only", func() {
			Expect(recipients(plan(notification.KindGoalCompleted, hr1, hr1, nil))).To(Equal([]int64{vp1.ID, vp2.ID}))
		})

		It("sends VP completions to CMD", func() {
			Expect(recipients(plan(notification.KindGoalCompleted, vp2, vp2, nil))).To(Equal([]int64{cmd.ID}))
		})

		It("always notifies HR for an employee without a manager", func() {
			loner := &notification.Person{ID: 9, Name: "Lee", Role: role.Employee}
			Expect(recipients(plan(notification.KindGoalCompleted, loner, loner, nil))).To(Equal([]int64{hr1.ID, hr2.ID}))
		})

		It("sends missed deadlines to the owner then up the chain", func() {
			ev := notification.Event{Kind: notification.KindGoalNotCompleted, GoalTitle: "Close deals", OwnerID: emp.ID, Progress: 40}
			out := notification.Plan(ev, participants(nil, emp, mgr), notification.DefaultOptions())
			Expect(recipients(out)).To(Equal([]int64{emp.ID, mgr.ID, hr1.ID, hr2.ID}))
			Expect(out[0].Details).To(Equal("Your goal 'Close deals' passed its end date at 40.0% progress"))
		})
	})

	Context("edits and deletes", func() {
		It("tells the owner and HR when a manager edits an employee goal", func() {
			out := plan(notification.KindGoalEdited, mgr, emp, mgr)
			Expect(recipients(out)).To(Equal([]int64{emp.ID, hr1.ID, hr2.ID}))
			Expect(out[0].Details).To(Equal("Mona edited your goal 'Close deals'"))
		})

		It("tells nobody when an employee edits their own goal", func() {
			Expect(plan(notification.KindGoalEdited, emp, emp, mgr)).To(BeEmpty())
		})

		It("tells VPs when a manager deletes their own goal", func() {
			out := plan(notification.KindGoalDeleted, mgr, mgr, nil)
			Expect(recipients(out)).To(Equal([]int64{vp1.ID, vp2.ID}))
			Expect(out[0].ActionType).To(Equal(notification.ActionGoalDeleted))
		})

		It("tells CMD when a VP edits their own goal", func() {
			Expect(recipients(plan(notification.KindGoalEdited, vp1, vp1, nil))).To(Equal([]int64{cmd.ID}))
		})

		It("ignores an HR editor on someone else's goal", func() {
			Expect(plan(notification.KindGoalEdited, hr1, emp, mgr)).To(BeEmpty())
		})
	})

	Context("feedback", func() {
		It("tells the owner and every HR when a manager reviews an employee", func() {
			out := plan(notification.KindFeedbackGiven, mgr, emp, mgr)
			Expect(recipients(out)).To(Equal([]int64{emp.ID, hr1.ID, hr2.ID}))
			Expect(out[0].ActionType).To(Equal(notification.ActionFeedbackReceived))
			Expect(out[1].ActionType).To(Equal(notification.ActionFeedbackGiven))
		})

		It("resends to the owner when a VP reviews a manager", func() {
			Expect(recipients(plan(notification.KindFeedbackGiven, vp1, mgr, nil))).To(Equal([]int64{mgr.ID, mgr.ID}))
		})

		It("sends once when the resend is switched off", func() {
			ev := notification.Event{Kind: notification.KindFeedbackGiven, GoalTitle: "Close deals", OwnerID: vp1.ID, ActorID: cmd.ID}
			out := notification.Plan(ev, participants(cmd, vp1, nil), notification.Options{})
			Expect(recipients(out)).To(Equal([]int64{vp1.ID}))
		})

		It("sends replies to the original author", func() {
			ev := notification.Event{Kind: notification.KindFeedbackReply, GoalTitle: "Close deals", OwnerID: emp.ID, ActorID: emp.ID, AuthorID: mgr.ID}
			p := participants(emp, emp, mgr)
			p.Author = mgr
			out := notification.Plan(ev, p, notification.DefaultOptions())
			Expect(recipients(out)).To(Equal([]int64{mgr.ID}))
			Expect(out[0].Details).To(Equal("Eli replied to your feedback on goal 'Close deals'"))
		})

		It("skips the author replying to themselves", func() {
			ev := notification.Event{Kind: notification.KindFeedbackReply, OwnerID: emp.ID, ActorID: mgr.ID, AuthorID: mgr.ID}
			p := participants(mgr, emp, mgr)
			p.Author = mgr
			Expect(notification.Plan(ev, p, notification.DefaultOptions())).To(BeEmpty())
		})
	})

	Context("system events", func() {
		It("tells the owner how many days remain", func() {
			ev := notification.Event{Kind: notification.KindGoalDueSoon, GoalTitle: "Close deals", OwnerID: emp.ID, DaysRemaining: 3}
			out := notification.Plan(ev, participants(nil, emp, mgr), notification.DefaultOptions())
			Expect(recipients(out)).To(Equal([]int64{emp.ID}))
			Expect(out[0].Details).To(Equal("Your goal 'Close deals' is due in 3 day(s)"))
		})

		It("copies the manager on missing employee updates", func() {
			ev := notification.Event{Kind: notification.KindGoalNotUpdated, GoalTitle: "Close deals", OwnerID: emp.ID, Week: 1}
			out := notification.Plan(ev, participants(nil, emp, mgr), notification.DefaultOptions())
			Expect(recipients(out)).To(Equal([]int64{emp.ID, mgr.ID}))
			Expect(out[1].Details).To(Equal("Eli has not updated week 1 of goal 'Close deals'"))
		})

		It("does not copy anyone on a manager's missing update", func() {
			ev := notification.Event{Kind: notification.KindGoalNotUpdated, GoalTitle: "Close deals", OwnerID: mgr.ID, Week: 1}
			out := notification.Plan(ev, participants(nil, mgr, nil), notification.DefaultOptions())
			Expect(recipients(out)).To(Equal([]int64{mgr.ID}))
		})
	})
})
