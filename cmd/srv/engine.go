package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/questx-lab/gamification/internal/domain/engine"
	"github.com/questx-lab/gamification/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startEngine(*cli.Context) error {
	cfg := xcontext.Configs(s.ctx)
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRedisClient()
	s.loadPublisher()
	s.loadRepos()
	s.loadLeaderboard()
	s.loadDomains()

	ctx, stop := signal.NotifyContext(s.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s.notificationQueue.Start(s.ctx)
	defer func() {
		s.notificationQueue.Stop()
		if err := s.publisher.Stop(s.ctx); err != nil {
			xcontext.Logger(s.ctx).Errorf("Cannot stop publisher: %v", err)
		}
	}()

	if err := s.leaderboard.Rebuild(s.ctx); err != nil {
		xcontext.Logger(s.ctx).Warnf("Cannot warm up leaderboard: %v", err)
	}

	rpcHandler := rpc.NewServer()
	defer rpcHandler.Stop()
	err := rpcHandler.RegisterName(cfg.EngineRPCServer.RPCName,
		engine.NewServer(s.ctx, s.scoreEngine, s.leaderboard, s.riskRewardEngine))
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Handler: rpcHandler,
		Addr:    cfg.EngineRPCServer.Address(),
	}

	errCh := make(chan error, 1)
	go func() {
		xcontext.Logger(s.ctx).Infof("Starting rpc engine on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	xcontext.Logger(s.ctx).Infof("Shutting down rpc engine")
	shutdownCtx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	return httpSrv.Shutdown(shutdownCtx)
}
