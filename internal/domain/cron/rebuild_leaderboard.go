package cron

import (
	"context"
	"time"

	"github.com/questx-lab/gamification/internal/domain/leaderboard"
	"github.com/questx-lab/gamification/pkg/xcontext"
)

// RebuildLeaderboardCronJob reloads the leaderboard from the database to fix
// entries which missed their upsert.
type RebuildLeaderboardCronJob struct {
	leaderboard leaderboard.Leaderboard
	interval    time.Duration
}

func NewRebuildLeaderboardCronJob(
	leaderboard leaderboard.Leaderboard,
	interval time.Duration,
) *RebuildLeaderboardCronJob {
	return &RebuildLeaderboardCronJob{leaderboard: leaderboard, interval: interval}
}

func (job *RebuildLeaderboardCronJob) Do(ctx context.Context) {
	if err := job.leaderboard.Rebuild(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot rebuild leaderboard: %v", err)
	}
}

func (job *RebuildLeaderboardCronJob) RunNow() bool {
	return false
}

func (job *RebuildLeaderboardCronJob) Next() time.Time {
	return time.Now().Add(job.interval)
}
