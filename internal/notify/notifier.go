package notify

import (
	"context"

	"go.uber.org/zap"
)

// Notifier 业务侧的通知投递接口
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// QueueNotifier 将消息写入队列
type QueueNotifier struct {
	queue  Queue
	logger *zap.Logger
}

// NewQueueNotifier 创建 QueueNotifier
func NewQueueNotifier(queue Queue, logger *zap.Logger) *QueueNotifier {
	return &QueueNotifier{queue: queue, logger: logger}
}

func (n *QueueNotifier) Notify(ctx context.Context, msg Message) error {
	if msg.UserID == "" {
		return nil
	}
	if err := n.queue.Enqueue(ctx, msg); err != nil {
		n.logger.Warn("通知入队失败",
			zap.String("kind", msg.Kind),
			zap.String("user_id", msg.UserID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Nop 丢弃所有消息
type Nop struct{}

func (Nop) Notify(context.Context, Message) error { return nil }
