package testutil

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/questx-lab/gamification/config"
	"github.com/questx-lab/gamification/migration"
	"github.com/questx-lab/gamification/pkg/logger"
	"github.com/questx-lab/gamification/pkg/xcontext"
	"github.com/questx-lab/gamification/pkg/xredis"
	"github.com/redis/go-redis/v9"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func MockConfigs() config.Configs {
	cfg := config.Default()
	cfg.Env = "test"
	cfg.LogLevel = "silence"
	return cfg
}

// MockContext returns a context with an empty in-memory database.
func MockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		panic(err)
	}

	// Every connection to ":memory:" opens a different database.
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := MockConfigs()

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.ParseLevel(cfg.LogLevel)))
	ctx = xcontext.WithDB(ctx, db)

	if err := migration.AutoMigrate(ctx); err != nil {
		panic(err)
	}

	return ctx
}

// NewRedisClient returns a client connected to a miniredis server which is
// closed at the end of the test.
func NewRedisClient(t *testing.T) (xredis.Client, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	return xredis.NewClientFrom(redis.NewClient(&redis.Options{Addr: s.Addr()})), s
}
