package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/speedsneakers/order-service/internal/platform/log"
)

type TxManager struct {
	pool *pgxpool.Pool
	log  *log.Logger
}

func NewTxManager(pool *pgxpool.Pool, logger *log.Logger) *TxManager {
	return &TxManager{pool: pool, log: logger}
}

// InTx runs fn inside one transaction: commit on nil, rollback otherwise.
// A context cancelled mid-flight rolls back like any other failure.
func (t *TxManager) InTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		t.log.Error("failed to begin tx", log.Err(err))
		return err
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			t.log.Error("failed to rollback tx", log.Err(err))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
