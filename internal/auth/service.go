package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/goal-tracker/internal"
)

var ErrPrincipalNotFound = errors.New("principal not found")

// Service is the main auth service with dependencies
type Service struct {
	repo           RepositoryAPI
	tokenGenerator TokenGeneratorAPI
	logger         *slog.Logger
}

func NewService(repo RepositoryAPI, tokenGen TokenGeneratorAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		logger:         logger,
	}
}

func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	creds, err := s.repo.GetCredentials(ctx, dto.Email)
	if err != nil {
		if !errors.Is(err, ErrPrincipalNotFound) {
			s.logger.Error("failed to load credentials", "error", err)
		}
		return AuthTokens{}, internal.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}
	if !creds.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	principal, err := s.GetPrincipal(ctx, creds.UserID)
	if err != nil {
		return AuthTokens{}, err
	}
	s.logger.Info("user authenticated", "user_id", principal.ID, "role", principal.Role)
	return s.issue(principal)
}

// RefreshTokens validates a refresh token and rotates both tokens. The role
// is re-read so promotions take effect on refresh.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}
	principal, err := s.GetPrincipal(ctx, claims.UserID)
	if err != nil {
		return AuthTokens{}, err
	}
	return s.issue(principal)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateAccessToken(tokenString)
}

// GetPrincipal loads an active user as an auth principal.
func (s *Service) GetPrincipal(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetPrincipal(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil, internal.ErrUserInactive
		}
		s.logger.Error("failed to load principal", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to load user", err)
	}
	return u, nil
}

func (s *Service) issue(u *User) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(u)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to generate token", err)
	}
	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(u)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to generate token", err)
	}
	var expiresIn int64
	if gen, ok := s.tokenGenerator.(*JWTTokenGenerator); ok {
		expiresIn = int64(gen.AccessTokenTTL.Seconds())
	}
	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

func (j *JWTTokenGenerator) GenerateAccessToken(u *User) (string, error) {
	return j.sign(u, j.AccessTokenTTL, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) GenerateRefreshToken(u *User) (string, error) {
	return j.sign(u, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) ValidateAccessToken(tokenString string) (*Claims, error) {
	return j.parse(tokenString, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return j.parse(tokenString, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) sign(u *User, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   strconv.FormatInt(u.ID, 10),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (j *JWTTokenGenerator) parse(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, internal.ErrInvalidToken
}
