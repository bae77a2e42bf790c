package cart

import (
	"context"
	"errors"
	"io"
	"log"

	"perle-storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Load(ctx context.Context, key string) ([]byte, error) {
	const q = `
SELECT payload
FROM carts
WHERE key = $1
`
	var payload string
	if err := r.pool.QueryRow(ctx, q, key).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return []byte(payload), nil
}

func (r *postgresRepo) Save(ctx context.Context, key string, payload []byte) error {
	const q = `
INSERT INTO carts (key, payload, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE
SET payload = EXCLUDED.payload,
    updated_at = now()
`
	if _, err := r.pool.Exec(ctx, q, key, string(payload)); err != nil {
		r.logger.Printf("save cart %s: %v", key, err)
		return err
	}
	return nil
}
