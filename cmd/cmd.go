package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/frahmantamala/goal-tracker/internal"
	"github.com/frahmantamala/goal-tracker/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	clearData  bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "goal-tracker",
	Short: "Goal Tracker",
	Long:  `For tracking monthly goals, weekly achievements, feedback and the notifications around them.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*internal.Config, error) {
	// Check if we're running in Docker environment
	if os.Getenv("APP_ENV") == "production" || os.Getenv("DOCKER_ENV") == "true" {
		cfg := internal.LoadConfigFromEnv()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("error validating config from environment: %w", err)
		}
		return cfg, nil
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("ENV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("timezone", "Asia/Kolkata")
	v.SetDefault("scheduler.due_date_scan", "0 0 9 * * *")
	v.SetDefault("scheduler.reminder", "0 0 10 * * *")
	v.SetDefault("notification.resend_owner_feedback", true)
	v.SetDefault("notification.default_list_limit", 50)
	v.SetDefault("observability.metrics.path", "/metrics")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}

	return &cfg, nil
}

// mustLoadConfig loads the config and installs the process logger from it.
func mustLoadConfig() *internal.Config {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	env := os.Getenv("APP_ENV")
	if cfg.Observability.Logging.Format == "json" {
		env = "production"
	}
	logger.Init(env, cfg.Observability.Logging.Level)
	return cfg
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory holding config.yml")
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")

	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
