package score

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyMutex(t *testing.T) {
	m := newKeyMutex()

	const workers = 50
	counters := map[string]*int{"user1": new(int), "user2": new(int)}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		for _, key := range []string{"user1", "user2"} {
			wg.Add(1)
			go func(key string) {
				defer wg.Done()
				unlock := m.Lock(key)
				defer unlock()

				*counters[key]++
			}(key)
		}
	}
	wg.Wait()

	require.Equal(t, workers, *counters["user1"])
	require.Equal(t, workers, *counters["user2"])
	require.Zero(t, m.Size())
}

func TestKeyMutex_ManyKeys(t *testing.T) {
	m := newKeyMutex()

	for i := 0; i < 1000; i++ {
		unlock := m.Lock(fmt.Sprintf("user%d", i))
		require.Equal(t, 1, m.Size())
		unlock()
	}

	require.Zero(t, m.Size())
}

func TestKeyMutex_Held(t *testing.T) {
	m := newKeyMutex()

	unlock := m.Lock("user1")
	locked := make(chan struct{})
	go func() {
		defer close(locked)
		m.Lock("user1")()
	}()

	select {
	case <-locked:
		t.Fatal("lock is acquired twice")
	default:
	}

	require.Equal(t, 1, m.Size())
	unlock()
	<-locked
	require.Zero(t, m.Size())
}
