package notification

import (
	"fmt"

	"github.com/frahmantamala/goal-tracker/internal/core/role"
)

// Kind is the domain happening a notification fan-out is planned for.
type Kind string

const (
	KindGoalCreated        Kind = "goal_created"
	KindGoalApproved       Kind = "goal_approved"
	KindAchievementUpdated Kind = "achievement_updated"
	KindGoalCompleted      Kind = "goal_completed"
	KindGoalNotCompleted   Kind = "goal_not_completed"
	KindGoalEdited         Kind = "goal_edited"
	KindGoalDeleted        Kind = "goal_deleted"
	KindFeedbackGiven      Kind = "feedback_given"
	KindFeedbackReply      Kind = "feedback_reply"
	KindGoalDueSoon        Kind = "goal_due_soon"
	KindGoalNotUpdated     Kind = "goal_not_updated"
)

// Event describes one happening. ActorID is zero for system events.
type Event struct {
	Kind          Kind
	GoalID        int64
	GoalTitle     string
	OwnerID       int64
	ActorID       int64
	AuthorID      int64
	Week          int
	DaysRemaining int
	Progress      float64
}

func (e Event) IsSystem() bool {
	return e.ActorID == 0
}

type Person struct {
	ID        int64
	Name      string
	Email     string
	Role      role.Role
	ManagerID *int64
}

// Participants is everything routing may need, resolved ahead of time.
// Actor is nil for system events; Manager is the owner's manager if any;
// Author is the original feedback author on replies; Users is the full
// directory used for role-wide fan-out.
type Participants struct {
	Actor   *Person
	Owner   *Person
	Manager *Person
	Author  *Person
	Users   []*Person
}

func (p Participants) withRole(r role.Role) []*Person {
	var out []*Person
	for _, u := range p.Users {
		if u.Role == r {
			out = append(out, u)
		}
	}
	return out
}

// Lookup finds a person in the directory by id.
func (p Participants) Lookup(id int64) *Person {
	for _, u := range p.Users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

type Options struct {
	// ResendOwnerFeedback sends the owner a second feedback_received when a
	// VP gives feedback on a Manager/HR goal or a CMD on a VP goal.
	ResendOwnerFeedback bool
}

func DefaultOptions() Options {
	return Options{ResendOwnerFeedback: true}
}

type Delivery struct {
	RecipientID int64
	ActionType  ActionType
	Details     string
}

// Plan is the routing table: it turns one event into the ordered list of
// notifications to create. It does no I/O. A nil Owner yields nothing.
func Plan(ev Event, p Participants, opts Options) []Delivery {
	if p.Owner == nil {
		return nil
	}
	b := &planner{ev: ev, p: p}

	switch ev.Kind {
	case KindGoalCreated:
		b.goalCreated()
	case KindGoalApproved:
		b.to(p.Owner, ActionGoalApproved, "%s approved your goal '%s'", b.actorName(), ev.GoalTitle)
		b.toRole(role.HR, ActionGoalApproved, "%s approved %s's goal '%s'", b.actorName(), p.Owner.Name, ev.GoalTitle)
	case KindAchievementUpdated:
		b.escalate(b.actorRole(), ActionWeeklyAchievement,
			"%s updated week %d achievement of %s's goal '%s'", b.actorName(), ev.Week, p.Owner.Name, ev.GoalTitle)
	case KindGoalCompleted:
		b.escalate(b.actorRole(), ActionGoalCompleted,
			"%s marked %s's goal '%s' as completed", b.actorName(), p.Owner.Name, ev.GoalTitle)
	case KindGoalNotCompleted:
		b.to(p.Owner, ActionGoalNotCompleted,
			"Your goal '%s' passed its end date at %.1f%% progress", ev.GoalTitle, ev.Progress)
		b.escalate(p.Owner.Role, ActionGoalNotCompleted,
			"%s's goal '%s' passed its end date at %.1f%% progress", p.Owner.Name, ev.GoalTitle, ev.Progress)
	case KindGoalEdited:
		b.changed(ActionGoalEdited, "edited")
	case KindGoalDeleted:
		b.changed(ActionGoalDeleted, "deleted")
	case KindFeedbackGiven:
		b.feedbackGiven(opts)
	case KindFeedbackReply:
		// Authors replying in their own thread are not notified.
		if p.Author != nil && (p.Actor == nil || p.Actor.ID != p.Author.ID) {
			b.to(p.Author, ActionFeedbackReply, "%s replied to your feedback on goal '%s'", b.actorName(), ev.GoalTitle)
		}
	case KindGoalDueSoon:
		b.to(p.Owner, ActionGoalDueSoon, "Your goal '%s' is due in %d day(s)", ev.GoalTitle, ev.DaysRemaining)
	case KindGoalNotUpdated:
		b.to(p.Owner, ActionGoalNotUpdated, "You have not updated week %d of goal '%s'", ev.Week, ev.GoalTitle)
		if p.Owner.Role == role.Employee && p.Manager != nil {
			b.to(p.Manager, ActionGoalNotUpdated, "%s has not updated week %d of goal '%s'", p.Owner.Name, ev.Week, ev.GoalTitle)
		}
	}
	return b.out
}

type planner struct {
	ev  Event
	p   Participants
	out []Delivery
}

func (b *planner) to(recipient *Person, action ActionType, format string, args ...interface{}) {
	if recipient == nil {
		return
	}
	b.out = append(b.out, Delivery{
		RecipientID: recipient.ID,
		ActionType:  action,
		Details:     fmt.Sprintf(format, args...),
	})
}

func (b *planner) toRole(r role.Role, action ActionType, format string, args ...interface{}) {
	for _, u := range b.p.withRole(r) {
		b.to(u, action, format, args...)
	}
}

func (b *planner) actorName() string {
	if b.p.Actor == nil {
		return SystemActorName
	}
	return b.p.Actor.Name
}

func (b *planner) actorRole() role.Role {
	if b.p.Actor == nil {
		return b.p.Owner.Role
	}
	return b.p.Actor.Role
}

// escalate is the shared cascade for weekly updates, completion and missed
// deadlines. Employee events go to the manager and are mirrored to every HR;
// Manager and HR events go to every VP; VP events go to every CMD.
func (b *planner) escalate(from role.Role, action ActionType, format string, args ...interface{}) {
	switch from {
	case role.Employee:
		b.to(b.p.Manager, action, format, args...)
		b.toRole(role.HR, action, format, args...)
	case role.Manager, role.HR:
		b.toRole(role.VP, action, format, args...)
	case role.VP:
		b.toRole(role.CMD, action, format, args...)
	}
}

func (b *planner) goalCreated() {
	format := "%s created a new goal '%s'"
	switch b.actorRole() {
	case role.Employee:
		b.to(b.p.Manager, ActionGoalCreated, format, b.actorName(), b.ev.GoalTitle)
	case role.Manager, role.HR:
		b.toRole(role.VP, ActionGoalCreated, format, b.actorName(), b.ev.GoalTitle)
	case role.VP:
		b.toRole(role.CMD, ActionGoalCreated, format, b.actorName(), b.ev.GoalTitle)
	}
}

// changed routes edits and deletes. Someone else's change goes to the owner
// and HR when made by CMD, VP or a Manager; an owner's own change goes one
// level up for Managers and VPs only.
func (b *planner) changed(action ActionType, verb string) {
	owner := b.p.Owner
	if b.p.Actor != nil && b.p.Actor.ID != owner.ID {
		switch b.p.Actor.Role {
		case role.CMD, role.VP, role.Manager:
			b.to(owner, action, "%s %s your goal '%s'", b.actorName(), verb, b.ev.GoalTitle)
			b.toRole(role.HR, action, "%s %s %s's goal '%s'", b.actorName(), verb, owner.Name, b.ev.GoalTitle)
		}
		return
	}

	format := "%s %s their goal '%s'"
	switch owner.Role {
	case role.Manager:
		b.toRole(role.VP, action, format, owner.Name, verb, b.ev.GoalTitle)
	case role.VP:
		b.toRole(role.CMD, action, format, owner.Name, verb, b.ev.GoalTitle)
	}
}

func (b *planner) feedbackGiven(opts Options) {
	owner := b.p.Owner
	received := "%s gave feedback on your goal '%s'"
	b.to(owner, ActionFeedbackReceived, received, b.actorName(), b.ev.GoalTitle)

	giver := b.actorRole()
	switch {
	case giver == role.Manager && owner.Role == role.Employee:
		b.toRole(role.HR, ActionFeedbackGiven, "%s gave feedback on %s's goal '%s'", b.actorName(), owner.Name, b.ev.GoalTitle)
	case giver == role.VP && (owner.Role == role.Manager || owner.Role == role.HR),
		giver == role.CMD && owner.Role == role.VP:
		if opts.ResendOwnerFeedback {
			b.to(owner, ActionFeedbackReceived, received, b.actorName(), b.ev.GoalTitle)
		}
	}
}
