package notification

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/goal-tracker/internal/transport"
	"github.com/frahmantamala/goal-tracker/internal/user"
	"github.com/frahmantamala/goal-tracker/pkg/logger"
)

type ServiceAPI interface {
	ListForUser(ctx context.Context, userID int64, limit int) []*Notification
	MarkReadForUser(ctx context.Context, userID, id int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
}

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

// ListNotifications handles GET /notifications?limit=
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := user.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.WriteError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	items := h.Service.ListForUser(r.Context(), actor.ID, limit)
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": items,
		"count":         len(items),
	})
}

// UnreadCount handles GET /notifications/unread-count
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	actor, ok := user.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	n, err := h.Service.UnreadCount(r.Context(), actor.ID)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]int64{"unread": n})
}

// MarkRead handles PATCH /notifications/{id}/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := user.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.MarkReadForUser(r.Context(), actor.ID, id); err != nil {
		h.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead handles PATCH /notifications/read-all
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := user.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	n, err := h.Service.MarkAllRead(r.Context(), actor.ID)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]int64{"updated": n})
}
