package database

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmoiron/sqlx"
)

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx.
type Querier interface {
	sqlx.ExtContext
}

type txHooksKey struct{}

type txHooks struct {
	mu    sync.Mutex
	funcs []func()
}

// WithTx runs fn inside one transaction. Hooks registered through
// AfterCommit on the derived context run only if the commit succeeds.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context, tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	hooks := &txHooks{}
	txCtx := context.WithValue(ctx, txHooksKey{}, hooks)

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txCtx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Warn("transaction rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	hooks.mu.Lock()
	funcs := hooks.funcs
	hooks.mu.Unlock()
	for _, f := range funcs {
		f()
	}

	return nil
}

// AfterCommit defers f until the surrounding WithTx commits. Outside a
// transaction f runs immediately.
func AfterCommit(ctx context.Context, f func()) {
	hooks, ok := ctx.Value(txHooksKey{}).(*txHooks)
	if !ok {
		f()
		return
	}
	hooks.mu.Lock()
	hooks.funcs = append(hooks.funcs, f)
	hooks.mu.Unlock()
}

// Savepoint runs fn under a named savepoint of the current transaction and
// rolls back to it when fn fails, leaving the outer transaction usable.
func Savepoint(ctx context.Context, q Querier, name string, fn func() error) error {
	if _, err := q.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("create savepoint %s: %w", name, err)
	}

	if err := fn(); err != nil {
		if _, rbErr := q.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return fmt.Errorf("rollback to savepoint %s: %w (after %v)", name, rbErr, err)
		}
		_, _ = q.ExecContext(ctx, "RELEASE SAVEPOINT "+name)
		return err
	}

	if _, err := q.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint %s: %w", name, err)
	}
	return nil
}
