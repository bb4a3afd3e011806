package main

import (
	"github.com/spf13/cobra"

	"campus-attendance/pkg/database"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "数据库迁移",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "执行全部未应用的迁移",
			RunE: func(*cobra.Command, []string) error {
				e, err := openEnv()
				if err != nil {
					return err
				}
				defer e.close()
				sqlDB, err := e.db.DB()
				if err != nil {
					return err
				}
				return database.RunMigrations(sqlDB, e.logger)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "回滚最近一次迁移",
			RunE: func(*cobra.Command, []string) error {
				e, err := openEnv()
				if err != nil {
					return err
				}
				defer e.close()
				sqlDB, err := e.db.DB()
				if err != nil {
					return err
				}
				if err := database.RollbackLast(sqlDB); err != nil {
					return err
				}
				e.logger.Info("已回滚最近一次迁移")
				return nil
			},
		},
	)
	return cmd
}
