package idempotency

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/speedsneakers/order-service/internal/platform/log"
)

type Querier interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Store remembers which order a (key, route) pair produced so replayed
// creations return the original order instead of a duplicate.
type Store struct {
	q   Querier
	log *log.Logger
}

func NewStore(q Querier, logger *log.Logger) *Store { return &Store{q: q, log: logger} }

func (s *Store) Save(ctx context.Context, key, route string, orderID int64, status int) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO idempotency_keys (key, route, order_id, status_code)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (key, route) DO NOTHING`, key, route, orderID, status)
	if err != nil {
		s.log.Error("failed to save idempotency key", log.Err(err))
		return err
	}

	return nil
}

type Result struct {
	OrderID int64
	Status  int
	Found   bool
}

func (s *Store) Get(ctx context.Context, key, route string) (*Result, error) {
	var r Result
	err := s.q.QueryRow(ctx, `
		SELECT order_id, status_code FROM idempotency_keys
		WHERE key=$1 AND route=$2 AND ttl_at > now()`, key, route).Scan(&r.OrderID, &r.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return &Result{Found: false}, nil
	}
	if err != nil {
		s.log.Error("failed to get idempotency key", log.Err(err))
		return nil, err
	}
	r.Found = true

	return &r, nil
}
