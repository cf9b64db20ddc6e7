package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/goal-tracker/internal"
	"github.com/frahmantamala/goal-tracker/internal/transport"
	"github.com/frahmantamala/goal-tracker/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	tokens, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

// RefreshToken handles POST /auth/refresh
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteServiceError(w, err)
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

// Logout handles POST /auth/logout. Tokens are stateless; this only checks
// the caller still holds a valid one.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}
	if _, err := h.Service.ValidateAccessToken(token); err != nil {
		h.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.Logger.Warn("token validation failed", "error", err)
			h.WriteServiceError(w, err)
			return
		}

		principal, err := h.Service.GetPrincipal(r.Context(), claims.UserID)
		if err != nil {
			h.Logger.Warn("auth middleware: failed to load principal", "user_id", claims.UserID, "error", err)
			h.WriteServiceError(w, err)
			return
		}

		h.Logger.Debug("auth middleware: principal loaded", "user_id", principal.ID, "role", principal.Role)

		ctx := WithUser(r.Context(), principal)
		ctx = internal.ContextWithUserID(ctx, principal.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
