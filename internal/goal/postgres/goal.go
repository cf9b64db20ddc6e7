package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	goalDatamodel "github.com/frahmantamala/goal-tracker/internal/core/datamodel/goal"
	"github.com/frahmantamala/goal-tracker/internal/goal"
)

type GoalRepository struct {
	db *gorm.DB
}

func NewGoalRepository(db *gorm.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

func (r *GoalRepository) GetByID(ctx context.Context, id int64) (*goalDatamodel.Goal, error) {
	var g goalDatamodel.Goal
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goal.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// ListByUser returns a user's goals, newest period first.
func (r *GoalRepository) ListByUser(ctx context.Context, userID int64) ([]*goalDatamodel.Goal, error) {
	var goals []*goalDatamodel.Goal
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("year DESC, month DESC, id DESC").
		Find(&goals).Error
	return goals, err
}

func (r *GoalRepository) Create(ctx context.Context, g *goalDatamodel.Goal) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *GoalRepository) Update(ctx context.Context, g *goalDatamodel.Goal) error {
	return r.db.WithContext(ctx).Save(g).Error
}

func (r *GoalRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&goalDatamodel.Goal{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return goal.ErrNotFound
	}
	return nil
}
