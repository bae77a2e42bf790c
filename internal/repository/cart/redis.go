package cart

import (
	"context"
	"errors"
	"time"

	"perle-storefront/internal/domain"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "perle:"

type redisRepo struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis stores carts as plain string values. A zero ttl keeps carts forever.
func NewRedis(client *redis.Client, ttl time.Duration) Repository {
	return &redisRepo{client: client, ttl: ttl}
}

func (r *redisRepo) Load(ctx context.Context, key string) ([]byte, error) {
	payload, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return payload, nil
}

func (r *redisRepo) Save(ctx context.Context, key string, payload []byte) error {
	return r.client.Set(ctx, redisKeyPrefix+key, payload, r.ttl).Err()
}
