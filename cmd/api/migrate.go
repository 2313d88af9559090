package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"Mentor_Community/internal/config"
	"Mentor_Community/internal/pkg/logger"
	"Mentor_Community/internal/repository/mysql"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "自动建表",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Log.Mode)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()

			db, err := mysql.Open(cfg.MySQL.DSN, mysql.Options{MaxOpenConns: cfg.MySQL.MaxOpenConns, MaxIdleConns: cfg.MySQL.MaxIdleConns})
			if err != nil {
				return err
			}
			if err := mysql.AutoMigrate(db); err != nil {
				return err
			}
			log.Info("schema migrated")
			return nil
		},
	}
}
