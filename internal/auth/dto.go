package auth

import (
	errors "github.com/frahmantamala/goal-tracker/internal"
	"github.com/frahmantamala/goal-tracker/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (d LoginDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().Email()
	v.Field("password", d.Password).Required()
	return v.Validate()
}

func (d RefreshTokenDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("refresh_token", d.RefreshToken).Required()
	return v.Validate()
}
