package job

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"campus-attendance/config"
)

// jobTimeout 单次任务最长执行时间
const jobTimeout = 5 * time.Minute

// ReportJobs 定时任务依赖的报表操作，由 service.ReportService 实现
type ReportJobs interface {
	NotifyLowAttendance(ctx context.Context) (int, error)
	SendWeeklyReports(ctx context.Context) (int, error)
}

// Scheduler 低出勤提醒与教师周报的定时调度
type Scheduler struct {
	cron   *cron.Cron
	jobs   ReportJobs
	logger *zap.Logger
}

// NewScheduler 按配置注册任务；cron 表达式为空时跳过对应任务
func NewScheduler(cfg config.AttendanceConfig, jobs ReportJobs, logger *zap.Logger) (*Scheduler, error) {
	cl := newCronLogger(logger)
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		jobs:   jobs,
		logger: logger,
	}
	if err := s.register("low_attendance_alert", cfg.AlertCron, s.jobs.NotifyLowAttendance); err != nil {
		return nil, err
	}
	if err := s.register("weekly_report", cfg.WeeklyReportCron, s.jobs.SendWeeklyReports); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) register(name, spec string, fn func(context.Context) (int, error)) error {
	if spec == "" {
		s.logger.Info("定时任务未配置，跳过", zap.String("job", name))
		return nil
	}
	if _, err := s.cron.AddFunc(spec, func() { s.run(name, fn) }); err != nil {
		return fmt.Errorf("注册定时任务 %s 失败: %w", name, err)
	}
	s.logger.Info("定时任务已注册", zap.String("job", name), zap.String("spec", spec))
	return nil
}

func (s *Scheduler) run(name string, fn func(context.Context) (int, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := fn(ctx)
	if err != nil {
		s.logger.Error("定时任务执行失败", zap.String("job", name), zap.Error(err))
		return
	}
	s.logger.Info("定时任务完成",
		zap.String("job", name),
		zap.Int("queued", n),
		zap.Duration("duration", time.Since(start)),
	)
}

// Entries 已注册任务数
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度并等待运行中的任务结束
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("等待定时任务结束超时")
	}
}

// cronLogger 把 cron 内部日志（panic 恢复、跳过重叠执行）写入 zap
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func newCronLogger(logger *zap.Logger) cronLogger {
	return cronLogger{sugar: logger.Named("cron").Sugar()}
}

// Info 调度器的常规事件（wake/run/added）降为 Debug；跳过重叠执行记 Warn
func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		l.sugar.Warnw("上一次执行未结束，跳过本次", keysAndValues...)
		return
	}
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
