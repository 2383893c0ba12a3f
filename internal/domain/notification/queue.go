package notification

import (
	"context"
	"sync"

	"github.com/questx-lab/gamification/pkg/xcontext"
)

type envelope struct {
	userID       string
	notification Notification
}

// Queue is an asynchronous Notifier. Notifications are delivered to the
// gateway by worker goroutines, a full queue drops new notifications.
type Queue struct {
	gateway Gateway
	workers int

	mutex  sync.RWMutex
	closed bool
	ch     chan envelope
	wg     sync.WaitGroup
}

func NewQueue(gateway Gateway, size, workers int) *Queue {
	if size <= 0 {
		size = 1
	}

	if workers <= 0 {
		workers = 1
	}

	return &Queue{
		gateway: gateway,
		workers: workers,
		ch:      make(chan envelope, size),
	}
}

func (q *Queue) Notify(ctx context.Context, userID string, n Notification) {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	if q.closed {
		xcontext.Logger(ctx).Warnf("Notification queue is closed, drop %s of user %s", n.Kind, userID)
		return
	}

	select {
	case q.ch <- envelope{userID: userID, notification: n}:
	default:
		xcontext.Logger(ctx).Warnf("Notification queue is full, drop %s of user %s", n.Kind, userID)
	}
}

// Start runs the workers. The context is used by workers for delivering.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(ctx)
	}
}

// Stop rejects new notifications and waits for workers to deliver the
// remaining ones.
func (q *Queue) Stop() {
	q.mutex.Lock()
	if q.closed {
		q.mutex.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mutex.Unlock()

	q.wg.Wait()
}

func (q *Queue) work(ctx context.Context) {
	defer q.wg.Done()

	for env := range q.ch {
		if err := q.gateway.Send(ctx, env.userID, env.notification); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot send notification %s to user %s: %v",
				env.notification.Kind, env.userID, err)
		}
	}
}
