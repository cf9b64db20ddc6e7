package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/goal-tracker/internal/auth"
	authPostgres "github.com/frahmantamala/goal-tracker/internal/auth/postgres"
	"github.com/frahmantamala/goal-tracker/internal/feedback"
	feedbackPostgres "github.com/frahmantamala/goal-tracker/internal/feedback/postgres"
	"github.com/frahmantamala/goal-tracker/internal/goal"
	"github.com/frahmantamala/goal-tracker/internal/notification"
	"github.com/frahmantamala/goal-tracker/internal/transport/rest"
	"github.com/frahmantamala/goal-tracker/internal/user"
)

var withScheduler bool

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func init() {
	httpServerCmd.Flags().BoolVar(&withScheduler, "with-scheduler", false, "also run the due date scan and reminder jobs in this process")
}

func startHTTPServer() {
	cfg := mustLoadConfig()

	a, err := newApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, buildDependencies(a))

	if doc, err := rest.LoadOpenAPI(context.Background(), rest.OpenAPIPath); err != nil {
		a.logger.Warn("OpenAPI document unavailable", "error", err)
	} else if missing, err := rest.UndocumentedRoutes(router, doc); err == nil && len(missing) > 0 {
		a.logger.Warn("Routes missing from OpenAPI document", "routes", missing)
	}

	if withScheduler {
		sched, err := newScheduler(a, logReport(a))
		if err != nil {
			a.logger.Error("Scheduler setup failed", "error", err)
			os.Exit(1)
		}
		sched.Start()
		defer sched.Shutdown()
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	a.logger.Info("Starting HTTP server", "address", addr, "timezone", cfg.Timezone)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		a.logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			a.logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			a.logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	a.logger.Info("Server stopped")
}

func buildDependencies(a *app) rest.Dependencies {
	sec := a.cfg.Security
	tokens := auth.NewJWTTokenGenerator(sec.AccessTokenSecret, sec.RefreshTokenSecret, sec.AccessTokenDuration, sec.RefreshTokenDuration)
	authService := auth.NewService(authPostgres.NewRepository(a.gorm), tokens, a.logger)

	goalService := goal.NewService(a.goals, a.users, a.bus, a.clock, a.logger)
	feedbackService := feedback.NewService(feedbackPostgres.NewFeedbackRepository(a.gorm), a.goals, a.users, a.bus, a.logger)

	return rest.Dependencies{
		DB:                  a.sqlx.DB,
		SQLX:                a.sqlx,
		AuthHandler:         auth.NewHandler(authService),
		UserHandler:         user.NewHandler(a.users),
		GoalHandler:         goal.NewHandler(goalService),
		FeedbackHandler:     feedback.NewHandler(feedbackService),
		NotificationHandler: notification.NewHandler(a.notifications),
		Config:              a.cfg,
		Logger:              a.logger,
	}
}
