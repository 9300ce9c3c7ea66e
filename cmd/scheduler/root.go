package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/go-scheduler-backend/internal/config"
	"github.com/tbourn/go-scheduler-backend/internal/repo"
	"github.com/tbourn/go-scheduler-backend/internal/sysutil"
)

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "scheduler",
		Short:         "Healthcare appointment scheduler",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadEnv(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(newServeCmd(), newMigrateCmd(), newSeedCmd())
	return root
}

// loadEnv loads path into the environment without overriding variables that
// are already set. A missing file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// bootstrap loads configuration, installs the logger and opens the
// database. The returned cleanup closes both.
func bootstrap() (config.Config, *gorm.DB, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, nil, err
	}
	logs := sysutil.SetupLogger(cfg, os.Stdout)

	db, err := repo.Open(cfg.DB)
	if err != nil {
		_ = logs.Close()
		return cfg, nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = logs.Close()
	}
	return cfg, db, cleanup, nil
}
