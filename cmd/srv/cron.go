package main

import (
	"os/signal"
	"syscall"

	"github.com/questx-lab/gamification/internal/domain/cron"
	"github.com/questx-lab/gamification/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startCron(*cli.Context) error {
	cfg := xcontext.Configs(s.ctx).Gamification
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRedisClient()
	s.loadRepos()
	s.loadLeaderboard()

	ctx, stop := signal.NotifyContext(s.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronJobManager := cron.NewCronJobManager()
	cronJobManager.Register(cron.NewPruneMultipliersCronJob(s.userProgressRepo, cfg.MultiplierPruneEvery))
	cronJobManager.Register(cron.NewRebuildLeaderboardCronJob(s.leaderboard, cfg.LeaderboardSyncEvery))

	xcontext.Logger(s.ctx).Infof("Starting cron jobs")
	cronJobManager.Start(ctx)
	return nil
}
