package feedback

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/goal-tracker/internal"
	feedbackDatamodel "github.com/frahmantamala/goal-tracker/internal/core/datamodel/feedback"
	goalDatamodel "github.com/frahmantamala/goal-tracker/internal/core/datamodel/goal"
	"github.com/frahmantamala/goal-tracker/internal/core/events"
	"github.com/frahmantamala/goal-tracker/internal/core/role"
	"github.com/frahmantamala/goal-tracker/internal/goal"
	"github.com/frahmantamala/goal-tracker/internal/user"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*feedbackDatamodel.Feedback, error)
	ListByGoal(ctx context.Context, goalID int64) ([]*feedbackDatamodel.Feedback, error)
	ListReplies(ctx context.Context, feedbackIDs []int64) ([]*feedbackDatamodel.Reply, error)
	Create(ctx context.Context, f *feedbackDatamodel.Feedback) error
	CreateReply(ctx context.Context, r *feedbackDatamodel.Reply) error
}

type GoalReader interface {
	GetByID(ctx context.Context, id int64) (*goalDatamodel.Goal, error)
}

type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

type EventPublisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      RepositoryAPI
	goals     GoalReader
	users     UserDirectory
	publisher EventPublisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, goals GoalReader, users UserDirectory, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		goals:     goals,
		users:     users,
		publisher: publisher,
		logger:    logger,
	}
}

// Give records feedback on a goal. Only someone above the owner may give it;
// it is official when the giver holds the owner's designated feedback role.
func (s *Service) Give(ctx context.Context, actor *user.User, goalID int64, dto CommentDTO) (*Feedback, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	g, owner, err := s.loadGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(owner) {
		s.logger.Warn("feedback denied", "actor_id", actor.ID, "goal_id", goalID)
		return nil, internal.ErrInsufficientRole
	}

	giverRole, ok := role.FeedbackGiverRole(owner.Role)
	row := &feedbackDatamodel.Feedback{
		GoalID:     g.ID,
		FeedbackBy: actor.ID,
		Comment:    dto.Comment,
		IsOfficial: ok && giverRole == actor.Role,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create feedback", "error", err, "goal_id", goalID)
		return nil, internal.NewInternalError("failed to create feedback", err)
	}

	s.logger.Info("feedback given", "feedback_id", row.ID, "goal_id", goalID, "official", row.IsOfficial)
	s.publish(ctx, events.NewFeedbackGivenEvent(row.ID, g.ID, g.Title, owner.ID, actor.ID))
	return FromDataModel(row), nil
}

// Reply is open to the goal owner and the feedback author.
func (s *Service) Reply(ctx context.Context, actor *user.User, feedbackID int64, dto CommentDTO) (*Reply, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	fb, err := s.repo.GetByID(ctx, feedbackID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrFeedbackNotFound
		}
		s.logger.Error("failed to get feedback", "error", err, "feedback_id", feedbackID)
		return nil, internal.NewInternalError("failed to get feedback", err)
	}
	g, owner, err := s.loadGoal(ctx, fb.GoalID)
	if err != nil {
		return nil, err
	}
	if actor.ID != owner.ID && actor.ID != fb.FeedbackBy {
		return nil, internal.ErrInsufficientRole
	}

	row := &feedbackDatamodel.Reply{
		FeedbackID: fb.ID,
		RepliedBy:  actor.ID,
		Comment:    dto.Comment,
	}
	if err := s.repo.CreateReply(ctx, row); err != nil {
		s.logger.Error("failed to create reply", "error", err, "feedback_id", feedbackID)
		return nil, internal.NewInternalError("failed to create reply", err)
	}

	s.publish(ctx, events.NewFeedbackRepliedEvent(fb.ID, g.ID, g.Title, owner.ID, actor.ID, fb.FeedbackBy))
	return ReplyFromDataModel(row), nil
}

// ListForGoal returns feedback oldest first with replies attached.
func (s *Service) ListForGoal(ctx context.Context, actor *user.User, goalID int64) ([]*Feedback, error) {
	_, owner, err := s.loadGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if !actor.CanView(owner) {
		return nil, internal.ErrInsufficientRole
	}

	rows, err := s.repo.ListByGoal(ctx, goalID)
	if err != nil {
		s.logger.Error("failed to list feedback", "error", err, "goal_id", goalID)
		return nil, internal.NewInternalError("failed to list feedback", err)
	}
	out := make([]*Feedback, 0, len(rows))
	byID := make(map[int64]*Feedback, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		f := FromDataModel(row)
		out = append(out, f)
		byID[f.ID] = f
		ids = append(ids, f.ID)
	}
	if len(ids) == 0 {
		return out, nil
	}

	replies, err := s.repo.ListReplies(ctx, ids)
	if err != nil {
		s.logger.Error("failed to list replies", "error", err, "goal_id", goalID)
		return nil, internal.NewInternalError("failed to list feedback", err)
	}
	for _, r := range replies {
		if f, ok := byID[r.FeedbackID]; ok {
			f.Replies = append(f.Replies, ReplyFromDataModel(r))
		}
	}
	return out, nil
}

func (s *Service) loadGoal(ctx context.Context, goalID int64) (*goalDatamodel.Goal, *user.User, error) {
	g, err := s.goals.GetByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, goal.ErrNotFound) {
			return nil, nil, internal.ErrGoalNotFound
		}
		s.logger.Error("failed to get goal", "error", err, "goal_id", goalID)
		return nil, nil, internal.NewInternalError("failed to get goal", err)
	}
	owner, err := s.users.GetByID(ctx, g.UserID)
	if err != nil {
		return nil, nil, err
	}
	return g, owner, nil
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSync(ctx, ev); err != nil {
		s.logger.Error("failed to publish feedback event", "error", err, "event_type", ev.EventType(), "event_id", ev.EventID())
	}
}
