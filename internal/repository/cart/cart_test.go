package cart

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"perle-storefront/internal/domain"
	"perle-storefront/internal/migrate"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func exerciseRepository(ctx context.Context, t *testing.T, repo Repository, key string) {
	t.Helper()

	if _, err := repo.Load(ctx, key); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing key, got %v", err)
	}

	first := []byte(`[{"lineId":"l1","productId":"A","unitPrice":499,"quantity":1}]`)
	if err := repo.Save(ctx, key, first); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != string(first) {
		t.Fatalf("expected %s, got %s", first, got)
	}

	if err := repo.Save(ctx, key, []byte(`[]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err = repo.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load after overwrite: %v", err)
	}
	if string(got) != "[]" {
		t.Fatalf("expected [], got %s", got)
	}
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(context.Background(), t, NewMemory(), "perle-cart:visitor-1")
}

func TestMemoryRepositoryCopiesPayload(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	payload := []byte(`[]`)
	if err := repo.Save(ctx, "k", payload); err != nil {
		t.Fatalf("Save: %v", err)
	}
	payload[0] = 'x'

	got, _ := repo.Load(ctx, "k")
	got[1] = 'y'
	again, _ := repo.Load(ctx, "k")
	if string(again) != "[]" {
		t.Fatalf("stored payload was aliased: %s", again)
	}
}

func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE carts`); err != nil {
		t.Fatalf("truncate carts: %v", err)
	}

	exerciseRepository(ctx, t, NewPostgres(pool, nil), "perle-cart:visitor-pg")
}

func TestRedisRepository(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	key := "perle-cart:visitor-redis"
	if err := client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		t.Fatalf("reset key: %v", err)
	}
	exerciseRepository(ctx, t, NewRedis(client, time.Minute), key)

	ttl, err := client.TTL(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected ttl within a minute, got %s", ttl)
	}
}
