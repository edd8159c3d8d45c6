package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/speedsneakers/order-service/internal/order/domain"
	"github.com/speedsneakers/order-service/internal/platform/log"
)

// Repo persists Order aggregates. Monetary columns travel as text in both
// directions so NUMERIC values never pass through binary floating point.
type Repo struct {
	pool *pgxpool.Pool
	log  *log.Logger
}

func New(pool *pgxpool.Pool, logger *log.Logger) *Repo {
	return &Repo{pool: pool, log: logger}
}

const uniqueViolation = "23505"

// CreateInTx inserts the order and all its items inside the caller's
// transaction, filling store-assigned ids on the aggregate.
func (r *Repo) CreateInTx(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	err := tx.QueryRow(ctx,
		`INSERT INTO orders (order_date, status, total_amount)
		 VALUES ($1, $2, $3::numeric)
		 RETURNING id`,
		o.OrderDate, o.Status, o.TotalAmount.StringFixed(2)).Scan(&o.ID)
	if err != nil {
		return r.storageErr("insert order", err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		err := tx.QueryRow(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price_per_unit, subtotal)
			 VALUES ($1, $2, $3, $4::numeric, $5::numeric)
			 RETURNING id`,
			it.OrderID, it.ProductID, it.Quantity,
			it.PricePerUnit.StringFixed(2), it.Subtotal.StringFixed(2)).Scan(&it.ID)
		if err != nil {
			return r.storageErr("insert order item", err)
		}
	}

	return nil
}

// Get loads the full aggregate with items in insertion order. An absent
// order is (nil, nil); absence is not a storage failure.
func (r *Repo) Get(ctx context.Context, id int64) (*domain.Order, error) {
	var (
		o      domain.Order
		status string
		total  string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, order_date, status, total_amount::text
		 FROM orders WHERE id = $1`, id).
		Scan(&o.ID, &o.OrderDate, &status, &total)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, r.storageErr("get order", err)
	}

	if o.Status, err = domain.ParseStatus(status); err != nil {
		return nil, fmt.Errorf("order %d: %w", id, err)
	}
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("order %d: total_amount: %w", id, err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, product_id, quantity, price_per_unit::text, subtotal::text
		 FROM order_items WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, r.storageErr("list order items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it              domain.Item
			price, subtotal string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &price, &subtotal); err != nil {
			return nil, r.storageErr("scan order item", err)
		}
		if it.PricePerUnit, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("order item %d: price_per_unit: %w", it.ID, err)
		}
		if it.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
			return nil, fmt.Errorf("order item %d: subtotal: %w", it.ID, err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, r.storageErr("list order items", err)
	}

	return &o, nil
}

func (r *Repo) storageErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		r.log.Error("storage conflict", log.Str("op", op), log.Err(err))
		return fmt.Errorf("%w: conflict: %v", domain.ErrPersistenceFailed, err)
	}
	r.log.Error("storage failure", log.Str("op", op), log.Err(err))

	return fmt.Errorf("%w: %s: %v", domain.ErrPersistenceFailed, op, err)
}
