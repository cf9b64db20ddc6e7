package cmd

import (
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/goal-tracker/internal"
	"github.com/frahmantamala/goal-tracker/internal/core/clock"
	"github.com/frahmantamala/goal-tracker/internal/core/events"
	goalPostgres "github.com/frahmantamala/goal-tracker/internal/goal/postgres"
	"github.com/frahmantamala/goal-tracker/internal/mail"
	"github.com/frahmantamala/goal-tracker/internal/notification"
	notificationPostgres "github.com/frahmantamala/goal-tracker/internal/notification/postgres"
	"github.com/frahmantamala/goal-tracker/internal/user"
	userPostgres "github.com/frahmantamala/goal-tracker/internal/user/postgres"
	"github.com/frahmantamala/goal-tracker/pkg/logger"
)

// app holds the pieces every command shares: both pool views, the event bus
// with the notification engine subscribed, and the scan/remind jobs.
type app struct {
	cfg    *internal.Config
	logger *slog.Logger
	sqlx   *sqlx.DB
	gorm   *gorm.DB
	clock  clock.Clock
	bus    *events.EventBus

	users         *user.Service
	goals         *goalPostgres.GoalRepository
	mailer        mail.Sender
	metrics       *notification.Metrics
	notifications *notification.Service
	scanner       *notification.Scanner
	reminder      *notification.Reminder
}

func newApp(cfg *internal.Config) (*app, error) {
	lg := logger.LoggerWrapper()

	sqlxDB, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(sqlxDB)
	if err != nil {
		_ = sqlxDB.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	clk := clock.New(clock.LoadLocation(cfg.Timezone))
	bus := events.NewEventBus(lg)

	users := user.NewService(userPostgres.NewUserRepository(gormDB), lg, cfg.Security.BCryptCost)
	goals := goalPostgres.NewGoalRepository(gormDB)
	mailer := mail.NewSender(cfg.Mail, lg)
	metrics := notification.NewMetrics()

	engine := notification.NewService(
		notificationPostgres.NewNotificationRepository(gormDB),
		users,
		mailer,
		clk,
		cfg.Notification,
		metrics,
		lg,
	)
	notification.NewEventHandler(engine, lg).RegisterEventHandlers(bus)

	return &app{
		cfg:           cfg,
		logger:        lg,
		sqlx:          sqlxDB,
		gorm:          gormDB,
		clock:         clk,
		bus:           bus,
		users:         users,
		goals:         goals,
		mailer:        mailer,
		metrics:       metrics,
		notifications: engine,
		scanner:       notification.NewScanner(engine, goals, users, clk, cfg.Notification.ReapplyRolePass, metrics, lg),
		reminder:      notification.NewReminder(goals, users, mailer, clk, metrics, lg),
	}, nil
}

func (a *app) Close() {
	if err := a.sqlx.Close(); err != nil {
		a.logger.Error("Database close error", "error", err)
	}
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm shares the sqlx pool with gorm so both see the same connections.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
}
