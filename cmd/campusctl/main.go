// campusctl 运维命令行：初始化管理员账号、执行 / 回滚数据库迁移
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-attendance/config"
	"campus-attendance/pkg/database"
	applogger "campus-attendance/pkg/logger"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "campusctl",
		Short:         "校园考勤服务运维工具",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径")

	root.AddCommand(newAddUserCmd(), newMigrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// env 命令共用的配置、日志与数据库连接
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

func openEnv() (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, err
	}
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	return &env{cfg: cfg, logger: logger, db: db}, nil
}

func (e *env) close() {
	if sqlDB, _ := e.db.DB(); sqlDB != nil {
		sqlDB.Close()
	}
	_ = e.logger.Sync()
}
