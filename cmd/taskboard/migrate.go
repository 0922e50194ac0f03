package main

import (
	"fmt"

	"taskboard/internal/app/board"
	"taskboard/internal/app/maintenance"
	"taskboard/internal/app/task"
	"taskboard/internal/app/user"
	"taskboard/internal/db"

	"github.com/spf13/cobra"
)

func newMigrateCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(*envFiles)
			if err != nil {
				return err
			}
			defer logger.Sync()

			conn, err := db.Connect(cfg, logger)
			if err != nil {
				return err
			}
			if err := db.Migrate(conn, logger); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}

func newSweepCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete tasks of deleted boards and reattach tasks no column lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(*envFiles)
			if err != nil {
				return err
			}
			defer logger.Sync()

			conn, err := db.Connect(cfg, logger)
			if err != nil {
				return err
			}
			tasks := task.NewRepository(conn)
			boards := board.NewRepository(conn)
			boardService := board.NewService(conn, boards, tasks, user.NewRepository(conn), nil, nil, logger)
			sweeper := maintenance.NewSweeper(tasks, boards, boardService, "", cfg.OrphanGrace, logger)
			res, err := sweeper.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d orphaned tasks, reattached %d\n", res.Orphaned, res.Reattached)
			return nil
		},
	}
}
