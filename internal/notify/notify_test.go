package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-attendance/internal/model"
	"campus-attendance/internal/repository"
	"campus-attendance/pkg/mailer"
	"campus-attendance/pkg/metrics"
	"campus-attendance/pkg/redis"
)

// ── Mocks ──

type mockNotificationRepo struct {
	created []*model.Notification
	prefs   map[string]*model.NotificationPreference
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	m.created = append(m.created, n)
	return nil
}

func (m *mockNotificationRepo) ListByUser(context.Context, string, bool, int, int) ([]model.Notification, int64, error) {
	return nil, 0, nil
}

func (m *mockNotificationRepo) MarkRead(context.Context, string, string) error { return nil }

func (m *mockNotificationRepo) GetPreference(_ context.Context, userID string) (*model.NotificationPreference, error) {
	if p, ok := m.prefs[userID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) SavePreference(_ context.Context, p *model.NotificationPreference) error {
	m.prefs[p.UserID] = p
	return nil
}

type mockUserRepo struct {
	repository.UserRepository
	users map[string]*model.User
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type mockSender struct {
	enabled bool
	sent    []mailer.Message
	err     error
}

func (s *mockSender) Enabled() bool { return s.enabled }

func (s *mockSender) Send(_ context.Context, msg mailer.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type mockListStore struct {
	items [][]byte
}

func (s *mockListStore) Push(_ context.Context, _ string, payload []byte) error {
	s.items = append([][]byte{payload}, s.items...)
	return nil
}

func (s *mockListStore) Pop(_ context.Context, _ string, _ time.Duration) ([]byte, error) {
	if len(s.items) == 0 {
		return nil, redis.ErrQueueEmpty
	}
	last := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return last, nil
}

func (s *mockListStore) Len(context.Context, string) (int64, error) {
	return int64(len(s.items)), nil
}

func newTestWorker(sender Sender) (*Worker, *mockNotificationRepo) {
	notifications := &mockNotificationRepo{prefs: map[string]*model.NotificationPreference{}}
	users := &mockUserRepo{users: map[string]*model.User{
		"stu-1": {UserID: "stu-1", Name: "Asha", Email: "asha@campus.edu"},
	}}
	repo := &repository.Repository{Notification: notifications, User: users}
	return NewWorker(NewMemoryQueue(4), repo, sender, metrics.New(), zap.NewNop()), notifications
}

// ── MemoryQueue ──

func TestMemoryQueue_FullReturnsError(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx := context.Background()

	if err := q.Enqueue(ctx, Message{UserID: "a"}); err != nil {
		t.Fatalf("首次入队失败: %v", err)
	}
	if err := q.Enqueue(ctx, Message{UserID: "b"}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("期望 ErrQueueFull，实际 %v", err)
	}
	if q.Len(ctx) != 1 {
		t.Errorf("期望长度 1，实际 %d", q.Len(ctx))
	}
}

func TestMemoryQueue_DequeueHonorsContext(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := q.Dequeue(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("期望 context.Canceled，实际 %v", err)
	}
}

// ── RedisQueue ──

func TestRedisQueue_FIFO(t *testing.T) {
	store := &mockListStore{}
	q := NewRedisQueue(store, "q")
	ctx := context.Background()

	_ = q.Enqueue(ctx, Message{UserID: "first"})
	_ = q.Enqueue(ctx, Message{UserID: "second"})

	msg, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue 失败: %v", err)
	}
	if msg.UserID != "first" {
		t.Errorf("期望先进先出，实际取到 %s", msg.UserID)
	}
	if q.Len(ctx) != 1 {
		t.Errorf("期望剩余 1 条，实际 %d", q.Len(ctx))
	}
}

// ── Notifier ──

func TestQueueNotifier_SkipsEmptyRecipient(t *testing.T) {
	q := NewMemoryQueue(1)
	n := NewQueueNotifier(q, zap.NewNop())

	if err := n.Notify(context.Background(), Message{Kind: model.NotifyWeeklyReport}); err != nil {
		t.Fatalf("期望忽略空收件人，实际 %v", err)
	}
	if q.Len(context.Background()) != 0 {
		t.Error("空收件人不应入队")
	}
}

// ── Worker ──

func TestWorker_ProcessStoresAndEmails(t *testing.T) {
	sender := &mockSender{enabled: true}
	w, notifications := newTestWorker(sender)

	msg := AttendanceMarked("stu-1", "Asha", "Data Structures", "2025-01-15", model.StatusAbsent)
	if err := w.Process(context.Background(), msg); err != nil {
		t.Fatalf("Process 失败: %v", err)
	}

	if len(notifications.created) != 1 {
		t.Fatalf("期望落库 1 条通知，实际 %d", len(notifications.created))
	}
	stored := notifications.created[0]
	if !stored.Emailed {
		t.Error("期望 Emailed=true")
	}
	var payload map[string]string
	if err := json.Unmarshal(stored.Payload, &payload); err != nil || payload["status"] != "absent" {
		t.Errorf("payload 不正确: %s", stored.Payload)
	}
	if len(sender.sent) != 1 || sender.sent[0].To[0] != "asha@campus.edu" {
		t.Errorf("邮件收件人不正确: %+v", sender.sent)
	}
}

func TestWorker_RespectsPreference(t *testing.T) {
	sender := &mockSender{enabled: true}
	w, notifications := newTestWorker(sender)

	pref := model.DefaultPreference("stu-1")
	pref.AttendanceUpdate = false
	notifications.prefs["stu-1"] = pref

	msg := AttendanceMarked("stu-1", "Asha", "DS", "2025-01-15", model.StatusPresent)
	if err := w.Process(context.Background(), msg); err != nil {
		t.Fatalf("Process 失败: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Error("偏好关闭时不应发送邮件")
	}
	if len(notifications.created) != 1 || notifications.created[0].Emailed {
		t.Error("站内通知仍应落库且 Emailed=false")
	}
}

func TestWorker_EmailFailureStillStores(t *testing.T) {
	sender := &mockSender{enabled: true, err: errors.New("smtp down")}
	w, notifications := newTestWorker(sender)

	if err := w.Process(context.Background(), LeaveDecided("stu-1", "2025-01-01", "2025-01-02", true, "")); err != nil {
		t.Fatalf("Process 失败: %v", err)
	}
	if len(notifications.created) != 1 {
		t.Fatal("邮件失败时仍应落库")
	}
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	w, notifications := newTestWorker(nil)
	ctx, cancel := context.WithCancel(context.Background())

	_ = w.queue.Enqueue(ctx, EnrollmentDecided("stu-1", model.RoleStudent, true, ""))

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for len(w.queue.(*MemoryQueue).ch) > 0 {
		select {
		case <-deadline:
			t.Fatal("消息未被消费")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run 未在取消后退出")
	}
	if len(notifications.created) != 1 {
		t.Errorf("期望落库 1 条，实际 %d", len(notifications.created))
	}
}

// brokenQueue Dequeue 始终失败，模拟 Redis 不可用
type brokenQueue struct {
	calls atomic.Int32
}

func (q *brokenQueue) Enqueue(context.Context, Message) error { return nil }

func (q *brokenQueue) Dequeue(context.Context) (Message, error) {
	q.calls.Add(1)
	return Message{}, errors.New("connection refused")
}

func (q *brokenQueue) Len(context.Context) int64 { return 0 }

func TestWorker_RunBacksOffOnDequeueError(t *testing.T) {
	q := &brokenQueue{}
	w := NewWorker(q, &repository.Repository{}, nil, nil, zap.NewNop())
	w.retryDelay = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run 未在超时后退出")
	}
	if n := q.calls.Load(); n < 2 || n > 4 {
		t.Errorf("期望按间隔重试 2-4 次，实际: %d", n)
	}
}
