package session

import (
	"context"
	"encoding/json"
	"errors"

	"perle-storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Create(ctx context.Context, s domain.PaymentSession) error {
	lines, err := json.Marshal(s.OrderLines)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO payment_sessions (reference, cart_key, order_id, order_number, checkout_url, currency, order_lines, state, reason, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`
	_, err = r.pool.Exec(ctx, q, s.Reference, s.CartKey, s.OrderID, s.OrderNumber, s.CheckoutURL, s.Currency, lines, s.State, s.Reason, s.CreatedAt)
	return err
}

func (r *postgresRepo) Get(ctx context.Context, reference string) (*domain.PaymentSession, error) {
	const q = `
SELECT reference, cart_key, order_id, order_number, checkout_url, currency, order_lines, state, reason, cart_cleared, created_at
FROM payment_sessions
WHERE reference = $1
`
	var s domain.PaymentSession
	var lines []byte
	err := r.pool.QueryRow(ctx, q, reference).Scan(
		&s.Reference,
		&s.CartKey,
		&s.OrderID,
		&s.OrderNumber,
		&s.CheckoutURL,
		&s.Currency,
		&lines,
		&s.State,
		&s.Reason,
		&s.CartCleared,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(lines) > 0 {
		if err := json.Unmarshal(lines, &s.OrderLines); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

func (r *postgresRepo) UpdateState(ctx context.Context, reference, state, reason string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE payment_sessions
SET state = $1, reason = $2, updated_at = now()
WHERE reference = $3
`, state, reason, reference)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) MarkCartCleared(ctx context.Context, reference string) (bool, error) {
	cmd, err := r.pool.Exec(ctx, `
UPDATE payment_sessions
SET cart_cleared = true, updated_at = now()
WHERE reference = $1 AND cart_cleared = false
`, reference)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}
