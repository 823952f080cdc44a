package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// txOptions pins the unit-of-work isolation level. Read committed: a
// conditional UPDATE re-evaluates its WHERE clause after waiting on a
// row lock, so the loser of a concurrent stock decrement matches zero
// rows instead of aborting with SQLSTATE 40001 as it would under
// repeatable read.
var txOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

// WithTx executes fn inside a transaction. The transaction commits only
// when fn returns nil; any error rolls back every write made through the
// handle.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, txOptions)
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}
