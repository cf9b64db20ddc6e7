package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frahmantamala/goal-tracker/internal"
	"github.com/frahmantamala/goal-tracker/internal/auth"
	"github.com/frahmantamala/goal-tracker/internal/feedback"
	"github.com/frahmantamala/goal-tracker/internal/goal"
	"github.com/frahmantamala/goal-tracker/internal/notification"
	"github.com/frahmantamala/goal-tracker/internal/transport/middleware"
	"github.com/frahmantamala/goal-tracker/internal/transport/swagger"
	"github.com/frahmantamala/goal-tracker/internal/user"
)

type Dependencies struct {
	DB                  *sql.DB
	SQLX                *sqlx.DB
	AuthHandler         *auth.Handler
	UserHandler         *user.Handler
	GoalHandler         *goal.Handler
	FeedbackHandler     *feedback.Handler
	NotificationHandler *notification.Handler
	Config              *internal.Config
	Logger              *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, deps Dependencies) {
	cfg := deps.Config
	healthHandler := NewHealthHandler(deps.DB, cfg.Mail.Enabled, cfg.Timezone)
	rbac := auth.NewRoleAuthorization(deps.Logger)
	policy := &auth.HierarchyPolicy{}

	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.LoggingMiddleware(deps.Logger))
	if cfg.Observability.Metrics.Enabled {
		router.Use(middleware.Metrics)
		router.Handle(cfg.Observability.Metrics.Path, promhttp.Handler())
	}

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, OpenAPIPath)
	})
	router.Handle("/swagger/*", swagger.Handler())

	// Goal-level ABAC runs ahead of the handlers when a sqlx pool is
	// available; the services enforce the same rules either way.
	passthrough := func(next http.Handler) http.Handler { return next }
	canView, canChange, canReview := passthrough, passthrough, passthrough
	if deps.SQLX != nil {
		lookup := auth.GoalOwnerLookup(deps.SQLX)
		canView = auth.RequireCanViewGoal(lookup, policy)
		canChange = auth.RequireCanChangeGoal(lookup, policy)
		canReview = auth.RequireCanReviewGoal(lookup, policy)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if deps.AuthHandler == nil {
			return
		}
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", deps.AuthHandler.Login)
			sr.Post("/refresh", deps.AuthHandler.RefreshToken)
			sr.Post("/logout", deps.AuthHandler.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(deps.AuthHandler.AuthMiddleware)
			pr.Use(middleware.UserContext)

			if h := deps.UserHandler; h != nil {
				pr.Route("/users", func(ur chi.Router) {
					ur.Get("/me", h.GetCurrentUser)
					ur.Get("/", h.ListUsers)
					ur.Group(func(mr chi.Router) {
						mr.Use(rbac.RequireCanManageUsers())
						mr.Post("/", h.CreateUser)
						mr.Put("/{id}", h.UpdateUser)
						mr.Delete("/{id}", h.DeleteUser)
					})
				})
			}

			if h := deps.GoalHandler; h != nil {
				pr.Route("/goals", func(gr chi.Router) {
					gr.Post("/", h.CreateGoal)
					gr.Get("/", h.ListGoals)
					gr.Get("/metrics", h.GetMetrics)

					gr.Route("/{id}", func(ir chi.Router) {
						ir.With(canView).Get("/", h.GetGoal)
						ir.With(canChange).Put("/", h.UpdateGoal)
						ir.With(canChange).Delete("/", h.DeleteGoal)
						ir.With(canChange).Patch("/achievement", h.UpdateAchievement)
						ir.With(canChange).Patch("/complete", h.CompleteGoal)
						ir.With(canReview).Patch("/approve", h.ApproveGoal)
						ir.With(canReview).Patch("/reject", h.RejectGoal)

						if fh := deps.FeedbackHandler; fh != nil {
							ir.With(canView).Get("/feedback", fh.ListFeedback)
							ir.With(canReview).Post("/feedback", fh.GiveFeedback)
						}
					})
				})
			}

			if h := deps.FeedbackHandler; h != nil {
				pr.Post("/feedback/{id}/replies", h.ReplyToFeedback)
			}

			if h := deps.NotificationHandler; h != nil {
				pr.Route("/notifications", func(nr chi.Router) {
					nr.Get("/", h.ListNotifications)
					nr.Get("/unread-count", h.UnreadCount)
					nr.Patch("/read-all", h.MarkAllRead)
					nr.Patch("/{id}/read", h.MarkRead)
				})
			}
		})
	})
}
