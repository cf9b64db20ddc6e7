package user

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/goal-tracker/internal/auth"
	userDatamodel "github.com/frahmantamala/goal-tracker/internal/core/datamodel/user"
	"github.com/frahmantamala/goal-tracker/internal/core/role"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         role.Role `json:"role"`
	ManagerID    *int64    `json:"manager_id,omitempty"`
	Department   string    `json:"department"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var ErrNotFound = errors.New("user not found")

func (u *User) HasManager() bool {
	return u.ManagerID != nil && *u.ManagerID > 0
}

func (u *User) HasEmail() bool {
	return u.Email != ""
}

// CanModify reports whether u outranks other.
func (u *User) CanModify(other *User) bool {
	return role.CanModify(u.Role, other.Role)
}

// CanView reports whether u may see other's records: self, or a role at or
// below u's level.
func (u *User) CanView(other *User) bool {
	if u.ID == other.ID {
		return true
	}
	return role.Contains(role.ViewableRoles(u.Role), other.Role)
}

// ActorFromContext returns the authenticated caller as a domain user.
func ActorFromContext(ctx context.Context) (*User, bool) {
	p, ok := auth.UserFromContext(ctx)
	if !ok || p == nil {
		return nil, false
	}
	return &User{
		ID:         p.ID,
		Email:      p.Email,
		Name:       p.Name,
		Role:       p.Role,
		ManagerID:  p.ManagerID,
		Department: p.Department,
		IsActive:   true,
	}, true
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		ManagerID:    u.ManagerID,
		Department:   u.Department,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         role.Role(u.Role),
		ManagerID:    u.ManagerID,
		Department:   u.Department,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModels(rows []*userDatamodel.User) []*User {
	out := make([]*User, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out
}
