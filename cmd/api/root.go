package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"microloans-api/internal/config"
	"microloans-api/internal/infrastructure/logging"
)

type rootOptions struct {
	envFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "api",
		Short:         "Micro-loans tracking REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(newServeCmd(opts), newMigrateCmd(opts))
	return cmd
}

// load reads .env, then the environment, and builds the logger for it.
func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Env)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
