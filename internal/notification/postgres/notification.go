package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	notificationDatamodel "github.com/frahmantamala/goal-tracker/internal/core/datamodel/notification"
	"github.com/frahmantamala/goal-tracker/internal/notification"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notificationDatamodel.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*notificationDatamodel.Notification, error) {
	var n notificationDatamodel.Notification
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notification.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// ListByUser returns the newest notifications first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*notificationDatamodel.Notification, error) {
	var rows []*notificationDatamodel.Notification
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}

// Exists matches on recipient, action type and creation time, with every
// fragment required somewhere in details.
func (r *NotificationRepository) Exists(ctx context.Context, q notification.DedupQuery) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&notificationDatamodel.Notification{}).
		Where("user_id = ? AND action_type = ? AND created_at >= ?", q.UserID, string(q.ActionType), q.Since)
	if q.GoalID != nil {
		tx = tx.Where("goal_id = ?", *q.GoalID)
	}
	for _, fragment := range q.Contains {
		tx = tx.Where(`details LIKE ? ESCAPE '\'`, "%"+escapeLike(fragment)+"%")
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id int64, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&notificationDatamodel.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notification.ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&notificationDatamodel.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return result.RowsAffected, result.Error
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&notificationDatamodel.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
