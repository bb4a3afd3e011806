package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"campus-attendance/config"
	"campus-attendance/internal/api/handler"
	"campus-attendance/internal/api/router"
	"campus-attendance/internal/job"
	"campus-attendance/internal/notify"
	"campus-attendance/internal/repository"
	"campus-attendance/internal/service"
	"campus-attendance/pkg/database"
	"campus-attendance/pkg/jwt"
	applogger "campus-attendance/pkg/logger"
	"campus-attendance/pkg/mailer"
	"campus-attendance/pkg/metrics"
	"campus-attendance/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("leave_policy", cfg.Attendance.LeavePolicy),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单与登录限流将不可用", zap.Error(err))
		rdb = nil
	}
	var blacklist service.TokenBlacklist
	if rdb != nil {
		blacklist = rdb
	}

	// 5. 指标、JWT 管理器
	m := metrics.New()
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. 通知队列与 Worker
	var queue notify.Queue
	switch {
	case cfg.Notify.Backend == "redis" && rdb != nil:
		queue = notify.NewRedisQueue(rdb, cfg.Notify.QueueKey)
	default:
		if cfg.Notify.Backend == "redis" {
			logger.Warn("Redis 不可用，通知队列回退为内存队列")
		}
		queue = notify.NewMemoryQueue(cfg.Notify.BufferSize)
	}

	var sender notify.Sender
	if mail := mailer.New(cfg.Mail); mail.Enabled() {
		sender = mail
	} else {
		logger.Info("未配置 SMTP，邮件通知已关闭，仅保留站内通知")
	}

	// 7. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	notifier := notify.NewQueueNotifier(queue, logger)
	svc := service.NewService(cfg, repo, jwtMgr, blacklist, notifier, m, logger)
	h := handler.NewHandler(svc, logger)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		notify.NewWorker(queue, repo, sender, m, logger).Run(workerCtx)
	}()

	// 8. 定时任务
	scheduler, err := job.NewScheduler(cfg.Attendance, svc.Report, logger)
	if err != nil {
		logger.Fatal("初始化定时任务失败", zap.Error(err))
	}
	scheduler.Start()

	// 9. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, m, logger)

	// 10. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 11. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	scheduler.Stop(ctx)

	// 停止 Worker；队列中未处理的内存消息将丢弃
	stopWorker()
	wg.Wait()

	if closeDB, _ := db.DB(); closeDB != nil {
		closeDB.Close()
	}

	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
