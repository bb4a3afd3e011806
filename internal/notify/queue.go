// Package notify 站内通知与邮件通知的异步投递。
//
// 业务服务通过 Notifier 投递 Message，Worker 从 Queue 取出后落库、
// 按用户偏好发送邮件。队列可使用进程内缓冲通道或 Redis 列表。
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"campus-attendance/pkg/redis"
)

// ErrQueueFull 内存队列已满
var ErrQueueFull = errors.New("通知队列已满")

// Message 一条待投递通知
type Message struct {
	Kind    string            `json:"kind"`
	UserID  string            `json:"user_id"`
	Title   string            `json:"title"`
	Body    string            `json:"body"`
	Payload map[string]string `json:"payload,omitempty"`
}

// Queue 通知队列
type Queue interface {
	Enqueue(ctx context.Context, msg Message) error
	// Dequeue 阻塞直到取到消息或 ctx 结束
	Dequeue(ctx context.Context) (Message, error)
	Len(ctx context.Context) int64
}

// ── 内存队列 ──

// MemoryQueue 基于缓冲通道的进程内队列，满时立即返回 ErrQueueFull
type MemoryQueue struct {
	ch chan Message
}

// NewMemoryQueue 创建容量为 size 的内存队列
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 1
	}
	return &MemoryQueue{ch: make(chan Message, size)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, msg Message) error {
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (Message, error) {
	select {
	case msg := <-q.ch:
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (q *MemoryQueue) Len(_ context.Context) int64 {
	return int64(len(q.ch))
}

// ── Redis 队列 ──

// ListStore Redis 列表操作，由 pkg/redis.Client 实现
type ListStore interface {
	Push(ctx context.Context, key string, payload []byte) error
	Pop(ctx context.Context, key string, timeout time.Duration) ([]byte, error)
	Len(ctx context.Context, key string) (int64, error)
}

// RedisQueue 基于 Redis 列表的队列，多实例可共享
type RedisQueue struct {
	store   ListStore
	key     string
	timeout time.Duration
}

// NewRedisQueue 创建 Redis 队列
func NewRedisQueue(store ListStore, key string) *RedisQueue {
	return &RedisQueue{store: store, key: key, timeout: 2 * time.Second}
}

func (q *RedisQueue) Enqueue(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return q.store.Push(ctx, q.key, data)
}

func (q *RedisQueue) Dequeue(ctx context.Context) (Message, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Message{}, err
		}
		data, err := q.store.Pop(ctx, q.key, q.timeout)
		if errors.Is(err, redis.ErrQueueEmpty) {
			continue
		}
		if err != nil {
			return Message{}, err
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return Message{}, err
		}
		return msg, nil
	}
}

func (q *RedisQueue) Len(ctx context.Context) int64 {
	n, err := q.store.Len(ctx, q.key)
	if err != nil {
		return 0
	}
	return n
}
