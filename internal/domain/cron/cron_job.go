package cron

import (
	"context"
	"sync"
	"time"

	"github.com/questx-lab/gamification/pkg/xcontext"
)

type CronJob interface {
	Do(context.Context)
	RunNow() bool
	Next() time.Time
}

type CronJobManager struct {
	mutex   sync.Mutex
	running sync.WaitGroup
	jobs    map[CronJob]*time.Timer
	stopped bool
	done    chan struct{}
}

func NewCronJobManager() *CronJobManager {
	return &CronJobManager{
		jobs: make(map[CronJob]*time.Timer),
		done: make(chan struct{}),
	}
}

func (m *CronJobManager) Register(job CronJob) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.jobs[job] = nil
}

// Start runs registered jobs and blocks until ctx is done or the manager is
// cancelled. Running jobs are waited before returning.
func (m *CronJobManager) Start(ctx context.Context) {
	xcontext.Logger(ctx).Infof("Cron job manager started")

	m.mutex.Lock()
	for job := range m.jobs {
		if job.RunNow() {
			m.running.Add(1)
			go m.run(ctx, job)
		} else {
			m.schedule(ctx, job)
		}
	}
	m.mutex.Unlock()

	select {
	case <-ctx.Done():
		m.Cancel(ctx)
	case <-m.done:
	}

	m.running.Wait()
	xcontext.Logger(ctx).Infof("Cron job manager stopped")
}

func (m *CronJobManager) Cancel(ctx context.Context) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.stopped {
		return
	}
	m.stopped = true

	for job, timer := range m.jobs {
		if timer == nil {
			xcontext.Logger(ctx).Debugf("Stop a job that hasn't been scheduled: %T", job)
			continue
		}

		// A fired timer finishes its run by itself.
		if timer.Stop() {
			m.running.Done()
		}
	}

	close(m.done)
}

func (m *CronJobManager) run(ctx context.Context, job CronJob) {
	defer m.running.Done()

	m.mutex.Lock()
	stopped := m.stopped
	m.mutex.Unlock()
	if stopped {
		return
	}

	xcontext.Logger(ctx).Infof("%T is running...", job)
	job.Do(ctx)
	xcontext.Logger(ctx).Infof("%T ok", job)

	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !m.stopped {
		m.schedule(ctx, job)
	}
}

// schedule must be called with the mutex held.
func (m *CronJobManager) schedule(ctx context.Context, job CronJob) {
	m.running.Add(1)
	m.jobs[job] = time.AfterFunc(time.Until(job.Next()), func() { m.run(ctx, job) })
}
