package user

import (
	errors "github.com/frahmantamala/goal-tracker/internal"
	"github.com/frahmantamala/goal-tracker/internal/core/common/validation"
	"github.com/frahmantamala/goal-tracker/internal/core/role"
)

type CreateUserDTO struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	ManagerID  *int64 `json:"manager_id,omitempty"`
	Department string `json:"department"`
}

type UpdateUserDTO struct {
	Name       *string `json:"name,omitempty"`
	Email      *string `json:"email,omitempty"`
	Role       *string `json:"role,omitempty"`
	ManagerID  *int64  `json:"manager_id,omitempty"`
	Department *string `json:"department,omitempty"`
	IsActive   *bool   `json:"is_active,omitempty"`
}

type UsersResponse struct {
	Users []*User `json:"users"`
	Total int     `json:"total"`
}

func roleNames() []string {
	var names []string
	for _, r := range role.All() {
		names = append(names, string(r))
	}
	return names
}

func (d CreateUserDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(255)
	v.Field("email", d.Email).Required().Email()
	v.Field("password", d.Password).Required().MinLength(8)
	v.Field("role", d.Role).Required().OneOf(roleNames()...)
	return v.Validate()
}

func (d UpdateUserDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", *d.Name).Required().MaxLength(255)
	}
	if d.Email != nil {
		v.Field("email", *d.Email).Required().Email()
	}
	if d.Role != nil {
		v.Field("role", *d.Role).Required().OneOf(roleNames()...)
	}
	return v.Validate()
}
