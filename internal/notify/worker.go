package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"campus-attendance/internal/model"
	"campus-attendance/internal/repository"
	"campus-attendance/pkg/mailer"
	"campus-attendance/pkg/metrics"
)

// Sender 邮件发送器，由 pkg/mailer.Mailer 实现
type Sender interface {
	Enabled() bool
	Send(ctx context.Context, msg mailer.Message) error
}

// dequeueRetryDelay 读取队列失败后的等待时间
const dequeueRetryDelay = 2 * time.Second

// Worker 消费通知队列：落库站内通知，并按偏好发送邮件
type Worker struct {
	queue      Queue
	repo       *repository.Repository
	sender     Sender
	metrics    *metrics.Metrics
	logger     *zap.Logger
	retryDelay time.Duration
}

// NewWorker 创建 Worker；sender 与 m 可为 nil
func NewWorker(queue Queue, repo *repository.Repository, sender Sender, m *metrics.Metrics, logger *zap.Logger) *Worker {
	return &Worker{queue: queue, repo: repo, sender: sender, metrics: m, logger: logger, retryDelay: dequeueRetryDelay}
}

// Run 循环消费直到 ctx 结束
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("通知 Worker 已启动")
	for {
		msg, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("通知 Worker 已停止")
				return
			}
			w.logger.Error("读取通知队列失败", zap.Error(err), zap.Duration("retry_in", w.retryDelay))
			select {
			case <-ctx.Done():
				w.logger.Info("通知 Worker 已停止")
				return
			case <-time.After(w.retryDelay):
			}
			continue
		}
		if err := w.Process(ctx, msg); err != nil {
			w.logger.Error("处理通知失败",
				zap.String("kind", msg.Kind),
				zap.String("user_id", msg.UserID),
				zap.Error(err),
			)
		}
		if w.metrics != nil {
			w.metrics.QueueDepth.Set(float64(w.queue.Len(ctx)))
		}
	}
}

// Process 处理单条消息
// 邮件失败不影响站内通知落库
func (w *Worker) Process(ctx context.Context, msg Message) error {
	emailed := w.sendEmail(ctx, msg)

	var payload datatypes.JSON
	if len(msg.Payload) > 0 {
		data, err := json.Marshal(msg.Payload)
		if err != nil {
			return err
		}
		payload = datatypes.JSON(data)
	}

	n := &model.Notification{
		UserID:  msg.UserID,
		Kind:    msg.Kind,
		Title:   msg.Title,
		Content: msg.Body,
		Payload: payload,
		Emailed: emailed,
	}
	if err := w.repo.Notification.Create(ctx, n); err != nil {
		w.observe(msg.Kind, "error")
		return err
	}
	w.observe(msg.Kind, "stored")
	return nil
}

func (w *Worker) sendEmail(ctx context.Context, msg Message) bool {
	if w.sender == nil || !w.sender.Enabled() {
		return false
	}

	pref, err := w.repo.Notification.GetPreference(ctx, msg.UserID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			w.logger.Warn("查询通知偏好失败", zap.String("user_id", msg.UserID), zap.Error(err))
		}
		pref = model.DefaultPreference(msg.UserID)
	}
	if !pref.Allows(msg.Kind) {
		w.observe(msg.Kind, "muted")
		return false
	}

	user, err := w.repo.User.GetByID(ctx, msg.UserID)
	if err != nil || user.Email == "" {
		w.logger.Warn("通知收件人不存在", zap.String("user_id", msg.UserID), zap.Error(err))
		return false
	}

	if err := w.sender.Send(ctx, mailer.Message{
		To:      []string{user.Email},
		Subject: msg.Title,
		Body:    msg.Body,
	}); err != nil {
		w.logger.Warn("发送邮件失败", zap.String("kind", msg.Kind), zap.String("user_id", msg.UserID), zap.Error(err))
		w.observe(msg.Kind, "email_failed")
		return false
	}
	w.observe(msg.Kind, "emailed")
	return true
}

func (w *Worker) observe(kind, result string) {
	if w.metrics == nil {
		return
	}
	w.metrics.Notifications.WithLabelValues(kind, result).Inc()
}
