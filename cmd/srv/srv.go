package main

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/questx-lab/gamification/config"
	"github.com/questx-lab/gamification/internal/domain/leaderboard"
	"github.com/questx-lab/gamification/internal/domain/notification"
	"github.com/questx-lab/gamification/internal/domain/riskreward"
	"github.com/questx-lab/gamification/internal/domain/score"
	"github.com/questx-lab/gamification/internal/repository"
	"github.com/questx-lab/gamification/migration"
	"github.com/questx-lab/gamification/pkg/kafka"
	"github.com/questx-lab/gamification/pkg/logger"
	"github.com/questx-lab/gamification/pkg/pubsub"
	"github.com/questx-lab/gamification/pkg/xcontext"
	"github.com/questx-lab/gamification/pkg/xredis"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type srv struct {
	app *cli.App
	ctx context.Context

	redisClient xredis.Client
	publisher   pubsub.Publisher

	userProgressRepo  repository.UserProgressRepository
	activityRepo      repository.ActivityRepository
	streakRepo        repository.StreakRepository
	lootBoxRepo       repository.LootBoxRepository
	riskChallengeRepo repository.RiskChallengeRepository

	leaderboard       leaderboard.Leaderboard
	notificationQueue *notification.Queue
	scoreEngine       score.Engine
	riskRewardEngine  riskreward.Engine
}

func (s *srv) loadConfig(cctx *cli.Context) error {
	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		return err
	}

	s.ctx = context.Background()
	s.ctx = xcontext.WithConfigs(s.ctx, cfg)
	s.ctx = xcontext.WithLogger(s.ctx, logger.NewLogger(logger.ParseLevel(cfg.LogLevel)))
	return nil
}

func (s *srv) newDatabase() *gorm.DB {
	cfg := xcontext.Configs(s.ctx).Database
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       cfg.ConnectionString(),
		DefaultStringSize:         256,
		DisableDatetimePrecision:  true,
		DontSupportRenameIndex:    true,
		DontSupportRenameColumn:   true,
		SkipInitializeWithVersion: false,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		panic(err)
	}

	return db
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "warn":
		return gormlogger.Warn
	case "info":
		return gormlogger.Info
	}

	return gormlogger.Error
}

func (s *srv) migrateDB() {
	if err := migration.Migrate(s.ctx); err != nil {
		panic(err)
	}
}

func (s *srv) loadRedisClient() {
	var err error
	s.redisClient, err = xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadPublisher() {
	cfg := xcontext.Configs(s.ctx).Kafka

	var err error
	s.publisher, err = kafka.NewPublisher(cfg.ClientID, strings.Split(cfg.Addr, ","))
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadRepos() {
	s.userProgressRepo = repository.NewUserProgressRepository()
	s.activityRepo = repository.NewActivityRepository()
	s.streakRepo = repository.NewStreakRepository(s.redisClient)
	s.lootBoxRepo = repository.NewLootBoxRepository()
	s.riskChallengeRepo = repository.NewRiskChallengeRepository(s.redisClient)
}

func (s *srv) loadLeaderboard() {
	s.leaderboard = leaderboard.New(s.userProgressRepo, s.redisClient)
}

func (s *srv) loadDomains() {
	cfg := xcontext.Configs(s.ctx)

	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}

	lootTables, err := riskreward.LoadLootTables(cfg.Gamification.LootTables)
	if err != nil {
		panic(err)
	}

	gateway := notification.NewKafkaGateway(s.publisher, cfg.Kafka.NotificationTopic)
	s.notificationQueue = notification.NewQueue(gateway,
		cfg.Gamification.NotificationQueue, cfg.Gamification.NotificationWorkers)

	s.scoreEngine = score.NewEngine(
		s.userProgressRepo,
		s.activityRepo,
		s.streakRepo,
		s.leaderboard,
		s.notificationQueue,
		node,
	)

	s.riskRewardEngine = riskreward.NewEngine(
		s.userProgressRepo,
		s.lootBoxRepo,
		s.riskChallengeRepo,
		s.scoreEngine,
		s.notificationQueue,
		lootTables,
	)
}
