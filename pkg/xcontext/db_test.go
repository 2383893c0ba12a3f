package xcontext

import (
	"context"
	"testing"

	"github.com/questx-lab/gamification/pkg/logger"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type counter struct {
	ID    string `gorm:"primarykey"`
	Value int
}

func newTestContext(t *testing.T) context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&counter{}))
	require.NoError(t, db.Create(&counter{ID: "c"}).Error)

	return WithDB(context.Background(), db)
}

func value(t *testing.T, ctx context.Context) int {
	var c counter
	require.NoError(t, DB(ctx).First(&c, "id = ?", "c").Error)
	return c.Value
}

func increase(ctx context.Context) error {
	return DB(ctx).Model(&counter{}).Where("id = ?", "c").
		Update("value", gorm.Expr("value+1")).Error
}

func TestTransaction_Commit(t *testing.T) {
	ctx := newTestContext(t)

	called := false
	txCtx := WithDBTransaction(ctx)
	require.NoError(t, increase(txCtx))
	AfterCommit(txCtx, func(ctx context.Context) {
		called = true
		require.Equal(t, 1, value(t, ctx))
	})
	require.False(t, called)
	require.NoError(t, CommitDBTransaction(txCtx))
	RollbackDBTransaction(txCtx)

	require.True(t, called)
	require.Equal(t, 1, value(t, ctx))
}

func TestTransaction_Rollback(t *testing.T) {
	ctx := newTestContext(t)

	called := false
	txCtx := WithDBTransaction(ctx)
	require.NoError(t, increase(txCtx))
	AfterCommit(txCtx, func(context.Context) { called = true })
	RollbackDBTransaction(txCtx)

	require.False(t, called)
	require.Equal(t, 0, value(t, ctx))
}

func TestTransaction_NestedCommit(t *testing.T) {
	ctx := newTestContext(t)

	outer := WithDBTransaction(ctx)
	inner := WithDBTransaction(outer)
	require.NoError(t, increase(inner))
	require.NoError(t, CommitDBTransaction(inner))

	// The inner commit does not end the outer transaction.
	require.NoError(t, increase(outer))
	RollbackDBTransaction(outer)

	require.Equal(t, 0, value(t, ctx))
}

func TestTransaction_NestedRollbackMarksRoot(t *testing.T) {
	ctx := newTestContext(t)

	outer := WithDBTransaction(ctx)
	inner := WithDBTransaction(outer)
	require.NoError(t, increase(inner))
	RollbackDBTransaction(inner)

	require.ErrorIs(t, CommitDBTransaction(outer), ErrRollbackOnly)
	require.Equal(t, 0, value(t, ctx))
}

func TestAfterCommit_WithoutTransaction(t *testing.T) {
	ctx := newTestContext(t)

	called := false
	AfterCommit(ctx, func(context.Context) { called = true })
	require.True(t, called)
}

func TestRequestUserID(t *testing.T) {
	ctx := context.Background()
	require.Equal(t, "", RequestUserID(ctx))
	require.Equal(t, "user1", RequestUserID(WithRequestUserID(ctx, "user1")))
}

type fieldLogger struct {
	fields map[string]any
}

func (l *fieldLogger) Debugf(string, ...any) {}
func (l *fieldLogger) Infof(string, ...any)  {}
func (l *fieldLogger) Warnf(string, ...any)  {}
func (l *fieldLogger) Errorf(string, ...any) {}

func (l *fieldLogger) With(key string, value any) logger.Logger {
	fields := map[string]any{key: value}
	for k, v := range l.fields {
		fields[k] = v
	}

	return &fieldLogger{fields: fields}
}

func TestLogger_TagsRequestUser(t *testing.T) {
	base := &fieldLogger{}
	ctx := WithLogger(context.Background(), base)
	require.Same(t, base, Logger(ctx))

	l, ok := Logger(WithRequestUserID(ctx, "user1")).(*fieldLogger)
	require.True(t, ok)
	require.Equal(t, map[string]any{"user_id": "user1"}, l.fields)
}
