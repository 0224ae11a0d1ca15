package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivankudzin/loveconnect/backend/internal/app/migrate"
	"github.com/ivankudzin/loveconnect/backend/internal/config"
	"github.com/ivankudzin/loveconnect/backend/internal/infra/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply or roll back the LoveConnect database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config.yaml (defaults to APP_CONFIG or configs/config.yaml)")

	runnerFor := func() (migrate.Runner, *zap.Logger, error) {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return migrate.Runner{}, nil, fmt.Errorf("load .env: %w", err)
		}
		path := cfgPath
		if path == "" {
			path = os.Getenv("APP_CONFIG")
		}
		if path == "" {
			path = "configs/config.yaml"
		}
		cfg, err := config.Load(path)
		if err != nil {
			return migrate.Runner{}, nil, err
		}
		log, err := logger.New(cfg.Log.Level, cfg.Env)
		if err != nil {
			return migrate.Runner{}, nil, err
		}
		runner, err := migrate.New(cfg.Postgres.DSN, log)
		if err != nil {
			return migrate.Runner{}, nil, err
		}
		return runner, log, nil
	}

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, log, err := runnerFor()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return runner.Up(cmd.Context())
		},
	})

	var target int64
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations down to --to (0 drops everything)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, log, err := runnerFor()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return runner.Down(cmd.Context(), target)
		},
	}
	down.Flags().Int64Var(&target, "to", 0, "target schema version")
	root.AddCommand(down)

	root.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print applied and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, log, err := runnerFor()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return runner.Status(cmd.Context())
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "versions",
		Short: "List migration versions embedded in this binary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, log, err := runnerFor()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			versions, err := runner.Versions()
			if err != nil {
				return err
			}
			for _, v := range versions {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	})

	return root
}
