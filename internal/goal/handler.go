package goal

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
	Create(ctx context.Context, actor *user.User, dto CreateGoalDTO) (*Goal, error)
	Get(ctx context.Context, actor *user.User, id int64) (*Goal, error)
	ListForUser(ctx context.Context, actor *user.User, ownerID int64) ([]*Goal, error)
	Update(ctx context.Context, actor *user.User, id int64, dto UpdateGoalDTO) (*Goal, error)
	Delete(ctx context.Context, actor *user.User, id int64) error
	Approve(ctx context.Context, actor *user.User, id int64) (*Goal, error)
	Reject(ctx context.Context, actor *user.User, id int64) (*Goal, error)
	UpdateAchievement(ctx context.Context, actor *user.User, id int64, dto AchievementDTO) (*Goal, error)
	Complete(ctx context.Context, actor *user.User, id int64) (*Goal, error)
	Metrics(ctx context.Context, actor *user.User, ownerID int64) (*PerformanceMetrics, error)
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

// CreateGoal handles POST /goals
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	actor, ok := user.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateGoalDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	g, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, g)
}

// ListGoals handles GET /goals?user_id=
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	actor, ok := user.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	ownerID, ok := h.ownerParam(w, r, actor)
	if !ok {
		return
	}

	goals, err := h.Service.ListForUser(r.Context(), actor, ownerID)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, GoalsResponse{Goals: goals, Total: len(goals)})
}

// GetGoal handles GET /goals/{id}
func (h *Handler) GetGoal(w http.ResponseWriter, r *http.Request) {
	h.withGoal(w, r, http.StatusOK, h.Service.Get)
}

// UpdateGoal handles PUT /goals/{id}
func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	var dto UpdateGoalDTO
	h.withGoal(w, r, http.StatusOK, func(ctx context.Context, actor *user.User, id int64) (*Goal, error) {
		return h.Service.Update(ctx, actor, id, dto)
	}, &dto)
}

// DeleteGoal handles DELETE /goals/{id}
func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	actor, ok := user.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), actor, id); err != nil {
		h.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ApproveGoal handles PATCH /goals/{id}/approve
func (h *Handler) ApproveGoal(w http.ResponseWriter, r *http.Request) {
	h.withGoal(w, r, http.StatusOK, h.Service.Approve)
}

// RejectGoal handles PATCH /goals/{id}/reject
func (h *Handler) RejectGoal(w http.ResponseWriter, r *http.Request) {
	h.withGoal(w, r, http.StatusOK, h.Service.Reject)
}

// CompleteGoal handles PATCH /goals/{id}/complete
func (h *Handler) CompleteGoal(w http.ResponseWriter, r *http.Request) {
	h.withGoal(w, r, http.StatusOK, h.Service.Complete)
}

// UpdateAchievement handles PATCH /goals/{id}/achievement
func (h *Handler) UpdateAchievement(w http.ResponseWriter, r *http.Request) {
	var dto AchievementDTO
	h.withGoal(w, r, http.StatusOK, func(ctx context.Context, actor *user.User, id int64) (*Goal, error) {
		return h.Service.UpdateAchievement(ctx, actor, id, dto)
	}, &dto)
}

// GetMetrics handles GET /goals/metrics?user_id=
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	actor, ok := user.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	ownerID, ok := h.ownerParam(w, r, actor)
	if !ok {
		return
	}

	m, err := h.Service.Metrics(r.Context(), actor, ownerID)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	// m is nil until the user has an approved goal.
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"metrics": m})
}

// withGoal resolves the actor and {id}, optionally decodes a body, then
// runs op and writes its goal.
func (h *Handler) withGoal(w http.ResponseWriter, r *http.Request, status int, op func(context.Context, *user.User, int64) (*Goal, error), body ...interface{}) {
	actor, ok := user.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}
	for _, dst := range body {
		if !h.DecodeJSON(w, r, dst) {
			return
		}
	}

	g, err := op(r.Context(), actor, id)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, status, g)
}

func (h *Handler) ownerParam(w http.ResponseWriter, r *http.Request, actor *user.User) (int64, bool) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		return actor.ID, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid user_id")
		return 0, false
	}
	return id, true
}
