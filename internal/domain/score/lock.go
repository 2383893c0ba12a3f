package score

import (
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync"
)

type keyLock struct {
	mu      sync.Mutex
	waiters atomic.Int32
	// evicted is guarded by mu.
	evicted bool
}

// keyMutex hands out one mutex per key. A mutex is dropped as soon as nobody
// holds or waits for it, so the map only keeps keys which are in use.
type keyMutex struct {
	locks *xsync.MapOf[string, *keyLock]
}

func newKeyMutex() *keyMutex {
	return &keyMutex{locks: xsync.NewMapOf[*keyLock]()}
}

func (m *keyMutex) Lock(key string) func() {
	for {
		l, _ := m.locks.LoadOrCompute(key, func() *keyLock { return &keyLock{} })
		l.waiters.Add(1)
		l.mu.Lock()
		if !l.evicted {
			return func() { m.unlock(key, l) }
		}

		// The previous holder evicted it while we were waiting.
		l.waiters.Add(-1)
		l.mu.Unlock()
	}
}

func (m *keyMutex) unlock(key string, l *keyLock) {
	if l.waiters.Add(-1) == 0 {
		l.evicted = true
		m.locks.Delete(key)
	}

	l.mu.Unlock()
}

func (m *keyMutex) Size() int {
	return m.locks.Size()
}
