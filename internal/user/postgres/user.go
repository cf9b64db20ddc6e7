package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	userDatamodel "github.com/frahmantamala/goal-tracker/internal/core/datamodel/user"
	"github.com/frahmantamala/goal-tracker/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&users).Error
	return users, err
}

func (r *UserRepository) ListByRoles(ctx context.Context, roles []string) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	if len(roles) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND role IN ?", true, roles).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepository) Update(ctx context.Context, u *userDatamodel.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&userDatamodel.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return user.ErrNotFound
	}
	return nil
}
