package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/goal-tracker/internal"
	"github.com/frahmantamala/goal-tracker/internal/core/clock"
	notificationDatamodel "github.com/frahmantamala/goal-tracker/internal/core/datamodel/notification"
	"github.com/frahmantamala/goal-tracker/internal/mail"
	"github.com/frahmantamala/goal-tracker/internal/user"
)

// DedupQuery matches notifications for one recipient and action type whose
// details contain every fragment, created at or after Since. A non-nil GoalID
// restricts the match to that goal.
type DedupQuery struct {
	UserID     int64
	ActionType ActionType
	GoalID     *int64
	Contains   []string
	Since      time.Time
}

type Store interface {
	Create(ctx context.Context, n *notificationDatamodel.Notification) error
	GetByID(ctx context.Context, id int64) (*notificationDatamodel.Notification, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*notificationDatamodel.Notification, error)
	Exists(ctx context.Context, q DedupQuery) (bool, error)
	MarkRead(ctx context.Context, id int64, at time.Time) error
	MarkAllRead(ctx context.Context, userID int64, at time.Time) (int64, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
}

type Directory interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
	ListAll(ctx context.Context) ([]*user.User, error)
}

type DispatchResult struct {
	Planned int
	Emitted int
	Failed  int
}

// Service is the propagation engine plus the read side of the store. Every
// failure below Dispatch is logged and absorbed.
type Service struct {
	store   Store
	users   Directory
	mailer  mail.Sender
	clock   clock.Clock
	cfg     internal.NotificationConfig
	metrics *Metrics
	logger  *slog.Logger
}

func NewService(store Store, users Directory, mailer mail.Sender, clk clock.Clock, cfg internal.NotificationConfig, metrics *Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		users:   users,
		mailer:  mailer,
		clock:   clk,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *Service) options() Options {
	return Options{ResendOwnerFeedback: s.cfg.ResendOwnerFeedback}
}

// Dispatch resolves who is involved in ev and emits its fan-out.
func (s *Service) Dispatch(ctx context.Context, ev Event) (DispatchResult, error) {
	p, err := s.Participants(ctx, ev)
	if err != nil {
		s.logger.Error("failed to resolve notification participants", "error", err, "kind", ev.Kind, "goal_id", ev.GoalID)
		return DispatchResult{}, err
	}
	return s.Deliver(ctx, ev, p), nil
}

// Participants loads the owner, actor, manager, author and the directory.
// Only a missing owner or actor is an error.
func (s *Service) Participants(ctx context.Context, ev Event) (Participants, error) {
	owner, err := s.users.GetByID(ctx, ev.OwnerID)
	if err != nil {
		return Participants{}, fmt.Errorf("load owner %d: %w", ev.OwnerID, err)
	}

	all, err := s.users.ListAll(ctx)
	if err != nil {
		s.logger.Warn("failed to load user directory, role fan-out skipped", "error", err)
	}
	p := Participants{Owner: PersonFromUser(owner), Users: PeopleFromUsers(all)}

	if ev.ActorID != 0 {
		if ev.ActorID == owner.ID {
			p.Actor = p.Owner
		} else if p.Actor = s.person(ctx, p, ev.ActorID); p.Actor == nil {
			return Participants{}, fmt.Errorf("load actor %d: %w", ev.ActorID, internal.ErrUserNotFound)
		}
	}
	if owner.HasManager() {
		p.Manager = s.person(ctx, p, *owner.ManagerID)
	}
	if ev.AuthorID != 0 {
		p.Author = s.person(ctx, p, ev.AuthorID)
	}
	return p, nil
}

func (s *Service) person(ctx context.Context, p Participants, id int64) *Person {
	if found := p.Lookup(id); found != nil {
		return found
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		s.logger.Warn("notification participant not found", "user_id", id, "error", err)
		return nil
	}
	return PersonFromUser(u)
}

// Deliver plans ev against already resolved participants and emits each
// delivery on its own; one failure never stops the rest.
func (s *Service) Deliver(ctx context.Context, ev Event, p Participants) DispatchResult {
	deliveries := Plan(ev, p, s.options())
	res := DispatchResult{Planned: len(deliveries)}

	actorID, actorName := p.Owner.ID, SystemActorName
	if p.Actor != nil {
		actorID, actorName = p.Actor.ID, p.Actor.Name
	}
	var goalID *int64
	if ev.GoalID != 0 {
		id := ev.GoalID
		goalID = &id
	}

	for _, d := range deliveries {
		n := &Notification{
			UserID:       d.RecipientID,
			ActionBy:     actorID,
			ActionByName: actorName,
			ActionType:   d.ActionType,
			Details:      d.Details,
			GoalID:       goalID,
		}
		if err := s.Emit(ctx, n); err != nil {
			res.Failed++
			continue
		}
		res.Emitted++
		s.mirrorByEmail(ctx, p, d)
	}

	if res.Planned > 0 {
		s.logger.Info("notifications dispatched", "kind", ev.Kind, "goal_id", ev.GoalID,
			"planned", res.Planned, "emitted", res.Emitted, "failed", res.Failed)
	}
	return res
}

// Emit stores one notification stamped with the configured clock.
func (s *Service) Emit(ctx context.Context, n *Notification) error {
	n.CreatedAt = s.clock.Now()
	n.IsRead = false
	n.ReadAt = nil

	row := ToDataModel(n)
	if err := s.store.Create(ctx, row); err != nil {
		s.logger.Error("failed to create notification", "error", err,
			"user_id", n.UserID, "action_type", n.ActionType)
		s.metrics.RecordNotification(n.ActionType, OutcomeFailed)
		return err
	}
	n.ID = row.ID
	s.metrics.RecordNotification(n.ActionType, OutcomeEmitted)
	return nil
}

// Seen reports whether a matching notification already exists. A failed
// lookup counts as unseen.
func (s *Service) Seen(ctx context.Context, q DedupQuery) bool {
	found, err := s.store.Exists(ctx, q)
	if err != nil {
		s.logger.Warn("dedup lookup failed", "error", err, "user_id", q.UserID, "action_type", q.ActionType)
		return false
	}
	if found {
		s.metrics.RecordNotification(q.ActionType, OutcomeSuppressed)
	}
	return found
}

func (s *Service) mirrorByEmail(ctx context.Context, p Participants, d Delivery) {
	var kind string
	switch {
	case d.ActionType == ActionGoalApproved && s.cfg.EmailOnApproval:
		kind = "approval"
	case d.ActionType == ActionGoalCompleted && s.cfg.EmailOnCompletion:
		kind = "completion"
	default:
		return
	}
	recipient := p.Lookup(d.RecipientID)
	if recipient == nil && p.Owner.ID == d.RecipientID {
		recipient = p.Owner
	}
	if recipient == nil || recipient.Email == "" || s.mailer == nil {
		s.metrics.RecordEmail(kind, OutcomeSkipped)
		return
	}

	msg := mail.Message{
		To:      []string{recipient.Email},
		Subject: fmt.Sprintf("Goal update: %s", d.ActionType),
		Body:    d.Details,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn("failed to mirror notification by email", "error", err, "user_id", recipient.ID, "kind", kind)
		s.metrics.RecordEmail(kind, OutcomeFailed)
		return
	}
	s.metrics.RecordEmail(kind, OutcomeSent)
}

// ListForUser returns the newest notifications first; empty on failure.
func (s *Service) ListForUser(ctx context.Context, userID int64, limit int) []*Notification {
	rows, err := s.store.ListByUser(ctx, userID, s.cfg.ListLimit(limit))
	if err != nil {
		s.logger.Error("failed to list notifications", "error", err, "user_id", userID)
		return []*Notification{}
	}
	return FromDataModels(rows)
}

// MarkRead flags one notification read. It reports false when the
// notification is missing or the write fails.
func (s *Service) MarkRead(ctx context.Context, id int64) bool {
	row, err := s.store.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("failed to get notification", "error", err, "notification_id", id)
		}
		return false
	}
	if row.IsRead {
		return true
	}
	if err := s.store.MarkRead(ctx, id, s.clock.Now()); err != nil {
		s.logger.Error("failed to mark notification read", "error", err, "notification_id", id)
		return false
	}
	return true
}

// MarkReadForUser is MarkRead restricted to the recipient.
func (s *Service) MarkReadForUser(ctx context.Context, userID, id int64) error {
	row, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return internal.ErrNotificationNotFound
		}
		return internal.NewInternalError("failed to get notification", err)
	}
	if row.UserID != userID {
		return internal.ErrNotificationNotFound
	}
	if !s.MarkRead(ctx, id) {
		return internal.NewInternalError("failed to mark notification read", nil)
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.store.MarkAllRead(ctx, userID, s.clock.Now())
	if err != nil {
		s.logger.Error("failed to mark all notifications read", "error", err, "user_id", userID)
		return 0, internal.NewInternalError("failed to mark notifications read", err)
	}
	return n, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	n, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("failed to count unread notifications", "error", err, "user_id", userID)
		return 0, internal.NewInternalError("failed to count notifications", err)
	}
	return n, nil
}

func PersonFromUser(u *user.User) *Person {
	if u == nil {
		return nil
	}
	return &Person{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		ManagerID: u.ManagerID,
	}
}

func PeopleFromUsers(users []*user.User) []*Person {
	out := make([]*Person, 0, len(users))
	for _, u := range users {
		out = append(out, PersonFromUser(u))
	}
	return out
}
