package testutil

import (
	"context"
	"sync"

	"github.com/questx-lab/gamification/internal/domain/notification"
)

type SentNotification struct {
	UserID       string
	Notification notification.Notification
}

// MockNotifier records all notifications synchronously.
type MockNotifier struct {
	mutex sync.Mutex
	sent  []SentNotification
}

func (m *MockNotifier) Notify(ctx context.Context, userID string, n notification.Notification) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.sent = append(m.sent, SentNotification{UserID: userID, Notification: n})
}

func (m *MockNotifier) Sent() []SentNotification {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return append([]SentNotification{}, m.sent...)
}

// SentKinds returns kinds of notifications sent to the user in order.
func (m *MockNotifier) SentKinds(userID string) []notification.Kind {
	kinds := []notification.Kind{}
	for _, s := range m.Sent() {
		if s.UserID == userID {
			kinds = append(kinds, s.Notification.Kind)
		}
	}

	return kinds
}

type MockGateway struct {
	SendFunc func(ctx context.Context, userID string, n notification.Notification) error
}

func (m *MockGateway) Send(ctx context.Context, userID string, n notification.Notification) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, userID, n)
	}

	return nil
}
