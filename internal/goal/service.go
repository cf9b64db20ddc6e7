package goal

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/goal-tracker/internal"
	"github.com/frahmantamala/goal-tracker/internal/core/clock"
	goalDatamodel "github.com/frahmantamala/goal-tracker/internal/core/datamodel/goal"
	"github.com/frahmantamala/goal-tracker/internal/core/events"
	"github.com/frahmantamala/goal-tracker/internal/core/role"
	"github.com/frahmantamala/goal-tracker/internal/user"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*goalDatamodel.Goal, error)
	ListByUser(ctx context.Context, userID int64) ([]*goalDatamodel.Goal, error)
	Create(ctx context.Context, g *goalDatamodel.Goal) error
	Update(ctx context.Context, g *goalDatamodel.Goal) error
	Delete(ctx context.Context, id int64) error
}

type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

type EventPublisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      RepositoryAPI
	users     UserDirectory
	publisher EventPublisher
	clock     clock.Clock
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, users UserDirectory, publisher EventPublisher, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		publisher: publisher,
		clock:     clk,
		logger:    logger,
	}
}

func (s *Service) Create(ctx context.Context, actor *user.User, dto CreateGoalDTO) (*Goal, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	owner := actor
	if dto.UserID != nil && *dto.UserID != actor.ID {
		target, err := s.users.GetByID(ctx, *dto.UserID)
		if err != nil {
			return nil, err
		}
		if !actor.CanModify(target) {
			s.logger.Warn("proxy goal creation denied", "actor_id", actor.ID, "owner_id", target.ID)
			return nil, internal.ErrInsufficientRole
		}
		owner = target
	}

	now := s.clock.Now()
	g := &Goal{
		UserID:         owner.ID,
		Title:          dto.Title,
		Department:     dto.Department,
		KPI:            dto.KPI,
		Year:           dto.Year,
		Quarter:        dto.Quarter,
		Month:          dto.Month,
		Week:           dto.Week,
		Status:         StatusActive,
		ApprovalStatus: ApprovalPending,
		MonthlyTarget:  dto.MonthlyTarget,
		CreatedBy:      actor.ID,
	}
	if g.Department == "" {
		g.Department = owner.Department
	}
	if g.Quarter == 0 && g.Month != nil {
		g.Quarter = FiscalQuarter(time.Month(*g.Month))
	}
	if err := s.applyDates(g, dto.StartDate, dto.EndDate); err != nil {
		return nil, err
	}

	// Nobody sits above CMD, and proxy-created goals come pre-approved by
	// the higher role that created them.
	if owner.ID != actor.ID || owner.Role == role.CMD {
		g.ApprovalStatus = ApprovalApproved
		g.ApprovedBy = &actor.ID
		g.ApprovedAt = &now
	}

	row := ToDataModel(g)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create goal", "error", err, "user_id", owner.ID)
		return nil, internal.NewInternalError("failed to create goal", err)
	}
	created := FromDataModel(row)

	s.logger.Info("goal created", "goal_id", created.ID, "user_id", owner.ID, "created_by", actor.ID)
	s.publish(ctx, events.NewGoalEvent(events.EventTypeGoalCreated, created.ID, created.Title, owner.ID, actor.ID))
	return created, nil
}

func (s *Service) Approve(ctx context.Context, actor *user.User, id int64) (*Goal, error) {
	return s.review(ctx, actor, id, ApprovalApproved)
}

// Reject has no notification type of its own, so nothing is published.
func (s *Service) Reject(ctx context.Context, actor *user.User, id int64) (*Goal, error) {
	return s.review(ctx, actor, id, ApprovalRejected)
}

func (s *Service) review(ctx context.Context, actor *user.User, id int64, decision ApprovalStatus) (*Goal, error) {
	g, owner, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(owner) {
		s.logger.Warn("goal review denied", "actor_id", actor.ID, "goal_id", id, "decision", decision)
		return nil, internal.ErrInsufficientRole
	}
	if !g.IsPending() {
		return nil, internal.ErrInvalidGoalStatus
	}

	now := s.clock.Now()
	g.ApprovalStatus = decision
	g.ApprovedBy = &actor.ID
	g.ApprovedAt = &now
	if err := s.save(ctx, g); err != nil {
		return nil, err
	}

	s.logger.Info("goal reviewed", "goal_id", id, "decision", decision, "reviewer_id", actor.ID)
	if decision == ApprovalApproved {
		s.publish(ctx, events.NewGoalEvent(events.EventTypeGoalApproved, g.ID, g.Title, owner.ID, actor.ID))
	}
	return g, nil
}

func (s *Service) Update(ctx context.Context, actor *user.User, id int64, dto UpdateGoalDTO) (*Goal, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	g, owner, err := s.loadForChange(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if dto.Title != nil {
		g.Title = *dto.Title
	}
	if dto.Department != nil {
		g.Department = *dto.Department
	}
	if dto.KPI != nil {
		g.KPI = *dto.KPI
	}
	if dto.MonthlyTarget != nil {
		g.MonthlyTarget = *dto.MonthlyTarget
	}
	if dto.Status != nil {
		next := Status(*dto.Status)
		if next == StatusCompleted && g.Status != StatusCompleted {
			return nil, internal.NewValidationFieldError("status", "goals are completed through the complete action", internal.ErrCodeInvalidGoalStatus)
		}
		g.Status = next
	}
	start, end := "", ""
	if dto.StartDate != nil {
		start = *dto.StartDate
	}
	if dto.EndDate != nil {
		end = *dto.EndDate
	}
	if err := s.applyDates(g, start, end); err != nil {
		return nil, err
	}

	if err := s.save(ctx, g); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewGoalEvent(events.EventTypeGoalEdited, g.ID, g.Title, owner.ID, actor.ID))
	return g, nil
}

func (s *Service) Delete(ctx context.Context, actor *user.User, id int64) error {
	g, owner, err := s.loadForChange(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return internal.ErrGoalNotFound
		}
		s.logger.Error("failed to delete goal", "error", err, "goal_id", id)
		return internal.NewInternalError("failed to delete goal", err)
	}

	s.logger.Info("goal deleted", "goal_id", id, "deleted_by", actor.ID)
	s.publish(ctx, events.NewGoalEvent(events.EventTypeGoalDeleted, g.ID, g.Title, owner.ID, actor.ID))
	return nil
}

// UpdateAchievement records a weekly and/or monthly figure. An active goal
// whose progress reaches 100 is completed on the spot.
func (s *Service) UpdateAchievement(ctx context.Context, actor *user.User, id int64, dto AchievementDTO) (*Goal, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	g, owner, err := s.loadForChange(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if g.Status == StatusCancelled {
		return nil, internal.ErrInvalidGoalStatus
	}

	if dto.Week != nil {
		if err := g.SetWeek(*dto.Week, dto.Achievement, dto.Remarks); err != nil {
			return nil, internal.NewValidationFieldError("week", err.Error(), internal.ErrCodeInvalidWeek)
		}
	}
	if dto.MonthlyAchievement != nil {
		g.MonthlyAchievement = dto.MonthlyAchievement
	}

	completed := false
	if progress, ok := g.Progress(); ok && progress >= 100 && g.IsActive() {
		now := s.clock.Now()
		g.Status = StatusCompleted
		g.CompletedAt = &now
		completed = true
	}

	if err := s.save(ctx, g); err != nil {
		return nil, err
	}

	if dto.Week != nil {
		s.publish(ctx, events.NewAchievementUpdatedEvent(g.ID, g.Title, owner.ID, actor.ID, *dto.Week))
	}
	if completed {
		s.publish(ctx, events.NewGoalEvent(events.EventTypeGoalCompleted, g.ID, g.Title, owner.ID, actor.ID))
	}
	return g, nil
}

func (s *Service) Complete(ctx context.Context, actor *user.User, id int64) (*Goal, error) {
	g, owner, err := s.loadForChange(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !g.IsActive() {
		return nil, internal.ErrInvalidGoalStatus
	}

	now := s.clock.Now()
	g.Status = StatusCompleted
	g.CompletedAt = &now
	if err := s.save(ctx, g); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewGoalEvent(events.EventTypeGoalCompleted, g.ID, g.Title, owner.ID, actor.ID))
	return g, nil
}

func (s *Service) Get(ctx context.Context, actor *user.User, id int64) (*Goal, error) {
	g, owner, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanView(owner) {
		return nil, internal.ErrInsufficientRole
	}
	return g, nil
}

func (s *Service) ListForUser(ctx context.Context, actor *user.User, ownerID int64) ([]*Goal, error) {
	if ownerID != actor.ID {
		owner, err := s.users.GetByID(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if !actor.CanView(owner) {
			return nil, internal.ErrInsufficientRole
		}
	}
	return s.ListOwnedBy(ctx, ownerID)
}

// ListOwnedBy skips authorization; batch jobs use it.
func (s *Service) ListOwnedBy(ctx context.Context, ownerID int64) ([]*Goal, error) {
	rows, err := s.repo.ListByUser(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list goals", "error", err, "user_id", ownerID)
		return nil, internal.NewInternalError("failed to list goals", err)
	}
	return FromDataModels(rows), nil
}

// Metrics returns nil metrics when the user has no approved goals yet.
func (s *Service) Metrics(ctx context.Context, actor *user.User, ownerID int64) (*PerformanceMetrics, error) {
	goals, err := s.ListForUser(ctx, actor, ownerID)
	if err != nil {
		return nil, err
	}
	return CalculatePerformanceMetrics(goals, clock.Today(s.clock), s.clock.Location()), nil
}

func (s *Service) load(ctx context.Context, id int64) (*Goal, *user.User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, internal.ErrGoalNotFound
		}
		s.logger.Error("failed to get goal", "error", err, "goal_id", id)
		return nil, nil, internal.NewInternalError("failed to get goal", err)
	}
	owner, err := s.users.GetByID(ctx, row.UserID)
	if err != nil {
		return nil, nil, err
	}
	return FromDataModel(row), owner, nil
}

// loadForChange allows the owner and anyone who outranks the owner.
func (s *Service) loadForChange(ctx context.Context, actor *user.User, id int64) (*Goal, *user.User, error) {
	g, owner, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if actor.ID != owner.ID && !actor.CanModify(owner) {
		s.logger.Warn("goal change denied", "actor_id", actor.ID, "goal_id", id)
		return nil, nil, internal.ErrInsufficientRole
	}
	return g, owner, nil
}

func (s *Service) save(ctx context.Context, g *Goal) error {
	if err := s.repo.Update(ctx, ToDataModel(g)); err != nil {
		s.logger.Error("failed to update goal", "error", err, "goal_id", g.ID)
		return internal.NewInternalError("failed to update goal", err)
	}
	return nil
}

// applyDates parses YYYY-MM-DD in the configured zone. Monthly goals
// without explicit dates span their month.
func (s *Service) applyDates(g *Goal, start, end string) error {
	loc := s.clock.Location()
	if start != "" {
		t, err := time.ParseInLocation(time.DateOnly, start, loc)
		if err != nil {
			return internal.NewValidationFieldError("start_date", "invalid start_date", internal.ErrCodeInvalidDate)
		}
		g.StartDate = &t
	}
	if end != "" {
		t, err := time.ParseInLocation(time.DateOnly, end, loc)
		if err != nil {
			return internal.NewValidationFieldError("end_date", "invalid end_date", internal.ErrCodeInvalidDate)
		}
		g.EndDate = &t
	}
	if g.Month != nil && g.Year > 0 {
		month := time.Month(*g.Month)
		if g.StartDate == nil {
			t := time.Date(g.Year, month, 1, 0, 0, 0, 0, loc)
			g.StartDate = &t
		}
		if g.EndDate == nil {
			t := time.Date(g.Year, month, clock.DaysInMonth(g.Year, month), 0, 0, 0, 0, loc)
			g.EndDate = &t
		}
	}
	if g.StartDate != nil && g.EndDate != nil && g.EndDate.Before(*g.StartDate) {
		return internal.NewValidationFieldError("end_date", "end_date must not be before start_date", internal.ErrCodeInvalidDate)
	}
	return nil
}

// publish never fails the caller: notification fan-out is best effort.
func (s *Service) publish(ctx context.Context, ev events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSync(ctx, ev); err != nil {
		s.logger.Error("failed to publish goal event", "error", err, "event_type", ev.EventType(), "event_id", ev.EventID())
	}
}
