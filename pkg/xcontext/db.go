package xcontext

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrRollbackOnly = errors.New("transaction is marked as rollback only")

// dbTransaction is the state of one transaction scope. Nested scopes share the
// root's gorm transaction, only the root one really commits or rolls back.
type dbTransaction struct {
	root     *dbTransaction
	tx       *gorm.DB
	finished bool

	// The following fields are only used by the root scope.
	rollbackOnly bool
	afterCommit  []func(context.Context)
}

func WithDB(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, dbKey{}, db)
}

// DB returns the current transaction if the context is inside an unfinished
// transaction scope, otherwise the root database.
func DB(ctx context.Context) *gorm.DB {
	if t := activeTransaction(ctx); t != nil {
		return t.root.tx
	}

	db, ok := ctx.Value(dbKey{}).(*gorm.DB)
	if !ok {
		panic("not found database in context")
	}

	return db.WithContext(ctx)
}

// WithDBTransaction opens a transaction scope. If ctx is already inside an
// unfinished scope, the new scope joins it.
func WithDBTransaction(ctx context.Context) context.Context {
	if parent := activeTransaction(ctx); parent != nil {
		return context.WithValue(ctx, dbTransactionKey{}, &dbTransaction{root: parent.root})
	}

	t := &dbTransaction{tx: DB(ctx).Begin()}
	t.root = t
	return context.WithValue(ctx, dbTransactionKey{}, t)
}

// CommitDBTransaction finishes the scope of ctx. Only a root scope commits the
// database transaction, after that the registered AfterCommit callbacks run
// with a context outside of any transaction.
func CommitDBTransaction(ctx context.Context) error {
	t, ok := ctx.Value(dbTransactionKey{}).(*dbTransaction)
	if !ok {
		return nil
	}

	if t.finished {
		return nil
	}
	t.finished = true

	if t.root != t {
		return nil
	}

	if t.rollbackOnly {
		t.tx.Rollback()
		return ErrRollbackOnly
	}

	if err := t.tx.Commit().Error; err != nil {
		return err
	}

	for _, fn := range t.afterCommit {
		fn(ctx)
	}

	return nil
}

// RollbackDBTransaction is safe to defer, it does nothing if the scope was
// committed. Rolling back a nested scope marks the whole transaction as
// rollback only.
func RollbackDBTransaction(ctx context.Context) {
	t, ok := ctx.Value(dbTransactionKey{}).(*dbTransaction)
	if !ok || t.finished {
		return
	}
	t.finished = true

	if t.root != t {
		t.root.rollbackOnly = true
		return
	}

	t.tx.Rollback()
}

// AfterCommit registers fn to be called once the root transaction of ctx is
// committed. Without any transaction, fn is called immediately.
func AfterCommit(ctx context.Context, fn func(context.Context)) {
	t := activeTransaction(ctx)
	if t == nil {
		fn(ctx)
		return
	}

	t.root.afterCommit = append(t.root.afterCommit, fn)
}

func activeTransaction(ctx context.Context) *dbTransaction {
	t, ok := ctx.Value(dbTransactionKey{}).(*dbTransaction)
	if !ok || t.finished || t.root.finished {
		return nil
	}

	return t
}
