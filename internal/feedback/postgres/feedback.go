package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	feedbackDatamodel "github.com/frahmantamala/goal-tracker/internal/core/datamodel/feedback"
	"github.com/frahmantamala/goal-tracker/internal/feedback"
)

type FeedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) GetByID(ctx context.Context, id int64) (*feedbackDatamodel.Feedback, error) {
	var f feedbackDatamodel.Feedback
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, feedback.ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *FeedbackRepository) ListByGoal(ctx context.Context, goalID int64) ([]*feedbackDatamodel.Feedback, error) {
	var rows []*feedbackDatamodel.Feedback
	err := r.db.WithContext(ctx).
		Where("goal_id = ?", goalID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *FeedbackRepository) ListReplies(ctx context.Context, feedbackIDs []int64) ([]*feedbackDatamodel.Reply, error) {
	var rows []*feedbackDatamodel.Reply
	if len(feedbackIDs) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).
		Where("feedback_id IN ?", feedbackIDs).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *FeedbackRepository) Create(ctx context.Context, f *feedbackDatamodel.Feedback) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *FeedbackRepository) CreateReply(ctx context.Context, reply *feedbackDatamodel.Reply) error {
	return r.db.WithContext(ctx).Create(reply).Error
}
