package cron

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/questx-lab/gamification/pkg/testutil"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runNow   bool
	interval time.Duration
	count    atomic.Int32
}

func (job *countingJob) Do(ctx context.Context) {
	job.count.Add(1)
}

func (job *countingJob) RunNow() bool {
	return job.runNow
}

func (job *countingJob) Next() time.Time {
	return time.Now().Add(job.interval)
}

func TestCronJobManager(t *testing.T) {
	ctx, cancel := context.WithCancel(testutil.MockContext())
	defer cancel()

	frequent := &countingJob{runNow: true, interval: 10 * time.Millisecond}
	rare := &countingJob{runNow: false, interval: time.Hour}

	manager := NewCronJobManager()
	manager.Register(frequent)
	manager.Register(rare)

	stopped := make(chan struct{})
	go func() {
		manager.Start(ctx)
		close(stopped)
	}()

	require.Eventually(t, func() bool { return frequent.count.Load() >= 3 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("manager didn't stop")
	}

	require.Equal(t, int32(0), rare.count.Load())

	// No more runs after stopping.
	count := frequent.count.Load()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, count, frequent.count.Load())
}

func TestCronJobManager_Cancel(t *testing.T) {
	ctx := testutil.MockContext()

	manager := NewCronJobManager()
	manager.Register(&countingJob{runNow: false, interval: time.Hour})

	stopped := make(chan struct{})
	go func() {
		manager.Start(ctx)
		close(stopped)
	}()

	require.Eventually(t, func() bool {
		manager.mutex.Lock()
		defer manager.mutex.Unlock()
		for _, timer := range manager.jobs {
			if timer == nil {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)

	manager.Cancel(ctx)
	manager.Cancel(ctx)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("manager didn't stop")
	}
}
