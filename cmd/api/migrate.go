package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"microloans-api/internal/app"
	"microloans-api/internal/config"
	"microloans-api/internal/infrastructure/db"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back or list schema migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = args[0]
			}

			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			gdb, err := app.OpenDB(cfg, log)
			if err != nil {
				return err
			}
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			scheme, err := config.DatabaseScheme(cfg.DatabaseURL)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			switch action {
			case "up":
				applied, err := db.MigrateUp(ctx, sqlDB, scheme)
				if err != nil {
					return err
				}
				if len(applied) == 0 {
					fmt.Fprintln(out, "no pending migrations")
				}
				for _, v := range applied {
					fmt.Fprintf(out, "applied %05d\n", v)
				}
			case "down":
				v, err := db.MigrateDown(ctx, sqlDB, scheme)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "rolled back %05d\n", v)
			case "status":
				states, err := db.MigrationStatus(ctx, sqlDB, scheme)
				if err != nil {
					return err
				}
				for _, s := range states {
					mark := "pending"
					if s.Applied {
						mark = "applied"
					}
					fmt.Fprintf(out, "%05d  %-8s %s\n", s.Version, mark, s.Path)
				}
			}
			return nil
		},
	}
	return cmd
}
