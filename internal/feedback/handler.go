package feedback

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/goal-tracker/internal/transport"
	"github.com/frahmantamala/goal-tracker/internal/user"
	"github.com/frahmantamala/goal-tracker/pkg/logger"
)

type ServiceAPI interface {
	Give(ctx context.Context, actor *user.User, goalID int64, dto CommentDTO) (*Feedback, error)
	Reply(ctx context.Context, actor *user.User, feedbackID int64, dto CommentDTO) (*Reply, error)
	ListForGoal(ctx context.Context, actor *user.User, goalID int64) ([]*Feedback, error)
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

// ListFeedback handles GET /goals/{id}/feedback
func (h *Handler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	actor, ok := user.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	goalID, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	items, err := h.Service.ListForGoal(r.Context(), actor, goalID)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, FeedbackListResponse{Feedback: items, Total: len(items)})
}

// GiveFeedback handles POST /goals/{id}/feedback
func (h *Handler) GiveFeedback(w http.ResponseWriter, r *http.Request) {
	actor, ok := user.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	goalID, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	var dto CommentDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	fb, err := h.Service.Give(r.Context(), actor, goalID, dto)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, fb)
}

// ReplyToFeedback handles POST /feedback/{id}/replies
func (h *Handler) ReplyToFeedback(w http.ResponseWriter, r *http.Request) {
	actor, ok := user.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	feedbackID, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	var dto CommentDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	reply, err := h.Service.Reply(r.Context(), actor, feedbackID, dto)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, reply)
}
