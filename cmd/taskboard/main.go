package main

import (
	"fmt"
	"os"

	"taskboard/internal/app"
	"taskboard/internal/config"
	"taskboard/internal/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Build info set via ldflags.
var (
	Commit = "none"
	Date   = "unknown"
)

// @title Taskboard API
// @version 1.0
// @description Collaborative kanban boards with realtime updates.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func newRootCmd() *cobra.Command {
	var envFiles []string

	cmd := &cobra.Command{
		Use:          "taskboard",
		Short:        "Collaborative kanban board server",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "env files to load (default .env)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd(&envFiles))
	cmd.AddCommand(newMigrateCmd(&envFiles))
	cmd.AddCommand(newSweepCmd(&envFiles))
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taskboard %s (commit: %s, built: %s)\n", app.Version, Commit, Date)
		},
	}
}

// loadRuntime builds the logger, loads env files and reads the config.
func loadRuntime(envFiles []string) (*config.Config, *zap.Logger, error) {
	logger, err := utils.NewLogger(os.Getenv("ENV"))
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	utils.LoadEnv(logger, envFiles...)

	cfg := config.LoadConfig()
	if cfg.Env != os.Getenv("ENV") {
		if l, err := utils.NewLogger(cfg.Env); err == nil {
			logger = l
		}
	}
	zap.ReplaceGlobals(logger)

	logger.Info("Config loaded",
		zap.String("server_port", cfg.ServerPort),
		zap.String("db_driver", cfg.DBDriver),
		zap.String("db_host", cfg.DBHost),
		zap.String("redis_url", cfg.RedisURL),
		zap.String("env", cfg.Env),
	)
	return &cfg, logger, nil
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
