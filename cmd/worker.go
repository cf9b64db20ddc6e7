package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/goal-tracker/internal/scheduler"
)

const (
	jobDueDateScan = "due-date-scan"
	jobReminder    = "monthly-reminder"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run background notification jobs",
	Long:  `Run the daily due date scan and the end-of-month reminder, either on their schedules or once.`,
}

var schedulerWorkerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Start the job scheduler",
	Long:  `Start the scheduler that runs the due date scan and monthly reminder on their configured cron specs`,
	Run: func(cmd *cobra.Command, args []string) {
		startScheduler()
	},
}

var scanWorkerCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run the due date scan once",
	Run: func(cmd *cobra.Command, args []string) {
		runOnce(jobDueDateScan)
	},
}

var remindWorkerCmd = &cobra.Command{
	Use:   "remind",
	Short: "Run the monthly reminder once",
	Long:  `Run the monthly reminder once. Outside the last days of the month it does nothing.`,
	Run: func(cmd *cobra.Command, args []string) {
		runOnce(jobReminder)
	},
}

// newScheduler registers both notification jobs in the configured time zone.
// Each finished run hands its report to onReport.
func newScheduler(a *app, onReport func(job string, report interface{})) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.clock.Location(), scheduler.NewMetrics(), a.logger)

	if err := sched.Register(jobDueDateScan, a.cfg.Scheduler.DueDateScan, func(ctx context.Context) {
		onReport(jobDueDateScan, a.scanner.Run(ctx))
	}); err != nil {
		return nil, err
	}

	if err := sched.Register(jobReminder, a.cfg.Scheduler.Reminder, func(ctx context.Context) {
		onReport(jobReminder, a.reminder.Run(ctx))
	}); err != nil {
		return nil, err
	}

	return sched, nil
}

func logReport(a *app) func(job string, report interface{}) {
	return func(job string, report interface{}) {
		a.logger.Info("job report", "job", job, "report", report)
	}
}

func startScheduler() {
	cfg := mustLoadConfig()

	a, err := newApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	sched, err := newScheduler(a, logReport(a))
	if err != nil {
		a.logger.Error("scheduler setup failed", "error", err)
		os.Exit(1)
	}

	a.logger.Info("starting scheduler",
		"timezone", cfg.Timezone,
		"due_date_scan", cfg.Scheduler.DueDateScan,
		"reminder", cfg.Scheduler.Reminder)
	sched.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("scheduler is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	a.logger.Info("received signal, shutting down scheduler", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		sched.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		a.logger.Info("scheduler shutdown complete")
	case <-ctx.Done():
		a.logger.Warn("shutdown timeout reached, forcing exit")
	}
}

// runOnce runs one registered job through the scheduler and prints its report.
func runOnce(name string) {
	cfg := mustLoadConfig()

	a, err := newApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	var report interface{}
	sched, err := newScheduler(a, func(job string, r interface{}) { report = r })
	if err != nil {
		a.logger.Error("scheduler setup failed", "error", err)
		os.Exit(1)
	}
	defer sched.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !sched.Trigger(ctx, name) {
		a.logger.Error("job did not run", "job", name)
		os.Exit(1)
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		a.logger.Error("failed to encode report", "error", err)
		return
	}
	fmt.Println(string(out))
}

func init() {
	workerCmd.AddCommand(schedulerWorkerCmd)
	workerCmd.AddCommand(scanWorkerCmd)
	workerCmd.AddCommand(remindWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
