package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frahmantamala/goal-tracker/internal/core/role"
)

// User is the authenticated principal carried in the request context.
type User struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       role.Role `json:"role"`
	ManagerID  *int64    `json:"manager_id,omitempty"`
	Department string    `json:"department"`
}

// Credentials is what login needs from the user store.
type Credentials struct {
	UserID       int64
	Email        string
	PasswordHash string
	IsActive     bool
}

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetPrincipal(ctx context.Context, userID int64) (*User, error)
}

type RepositoryAPI interface {
	GetCredentials(ctx context.Context, email string) (*Credentials, error)
	GetPrincipal(ctx context.Context, userID int64) (*User, error)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(u *User) (string, error)
	GenerateRefreshToken(u *User) (string, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID int64     `json:"user_id"`
	Email  string    `json:"email"`
	Role   role.Role `json:"role"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

type ctxKey string

const ContextUserKey ctxKey = "user"

func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok && u != nil
}
