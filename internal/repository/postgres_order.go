package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nghia193193/recruitment-payment-service/internal/domain"
	"github.com/nghia193193/recruitment-payment-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ordersSchema = `
CREATE TABLE IF NOT EXISTS orders (
    id            UUID PRIMARY KEY,
    owner_id      TEXT        NOT NULL,
    package       TEXT        NOT NULL,
    price         BIGINT      NOT NULL,
    status        TEXT        NOT NULL,
    valid_from    TIMESTAMPTZ,
    valid_to      TIMESTAMPTZ,
    refund_amount BIGINT,
    cancel_reason TEXT        NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_owner ON orders (owner_id, created_at DESC);
`

const orderColumns = `id, owner_id, package, price, status, valid_from, valid_to, refund_amount, cancel_reason, created_at, updated_at`

// PostgresOrderRepository stores orders in Postgres via pgx
type PostgresOrderRepository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewPostgresOrderRepository connects to the database, verifies the
// connection and ensures the schema exists.
func NewPostgresOrderRepository(ctx context.Context, dsn string, log *logger.Logger) (*PostgresOrderRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("repository: open pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("repository: ping db: %w", err)
	}

	if _, err := pool.Exec(ctx, ordersSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("repository: init schema: %w", err)
	}

	log.Infow("Connected to Postgres")
	return &PostgresOrderRepository{pool: pool, log: log}, nil
}

// Close releases the connection pool
func (r *PostgresOrderRepository) Close() {
	r.pool.Close()
}

// Create inserts a new order row
func (r *PostgresOrderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	query := `
        INSERT INTO orders (` + orderColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		order.ID, order.OwnerID, order.Package, order.Price, order.Status,
		order.ValidFrom, order.ValidTo, order.RefundAmount, order.CancelReason,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.log.Errorw("Failed to create order in DB", "error", err, "orderID", order.ID)
		return domain.Order{}, fmt.Errorf("repository: create order: %w", err)
	}

	return order, nil
}

// GetByID returns the order with the given id
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// GetByOwnerID returns all orders of an owner, newest first
func (r *PostgresOrderRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("repository: list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// GetActiveByOwnerID returns the owner's unexpired success order
func (r *PostgresOrderRepository) GetActiveByOwnerID(ctx context.Context, ownerID string, now time.Time) (domain.Order, error) {
	query := `
        SELECT ` + orderColumns + ` FROM orders
        WHERE owner_id = $1 AND status = $2 AND valid_to > $3
        ORDER BY valid_to DESC
        LIMIT 1`

	return r.scanOne(r.pool.QueryRow(ctx, query, ownerID, domain.OrderStatusSuccess, now))
}

// TransitionStatus applies the update only when the stored status still
// equals the expected one. The WHERE clause is the concurrency control:
// under duplicate callback delivery exactly one update matches a row.
func (r *PostgresOrderRepository) TransitionStatus(ctx context.Context, id uuid.UUID, expected domain.OrderStatus, update domain.OrderUpdate) (domain.Order, error) {
	query := `
        UPDATE orders
        SET status        = $1,
            valid_from    = COALESCE($2, valid_from),
            valid_to      = COALESCE($3, valid_to),
            refund_amount = COALESCE($4, refund_amount),
            cancel_reason = CASE WHEN $5 = '' THEN cancel_reason ELSE $5 END,
            updated_at    = $6
        WHERE id = $7 AND status = $8
        RETURNING ` + orderColumns

	order, err := r.scanOne(r.pool.QueryRow(ctx, query,
		update.Status, update.ValidFrom, update.ValidTo, update.RefundAmount,
		update.CancelReason, time.Now(), id, expected,
	))
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return domain.Order{}, err
	}

	// No row matched: tell a missing order apart from a lost race
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return domain.Order{}, getErr
	}
	return domain.Order{}, ErrStatusConflict
}

func (r *PostgresOrderRepository) scanOne(row pgx.Row) (domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID, &order.OwnerID, &order.Package, &order.Price, &order.Status,
		&order.ValidFrom, &order.ValidTo, &order.RefundAmount, &order.CancelReason,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, ErrNotFound
		}
		return domain.Order{}, fmt.Errorf("repository: scan order: %w", err)
	}
	return order, nil
}
