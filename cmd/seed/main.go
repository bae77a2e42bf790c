package main

import (
	"context"
	"errors"
	"log"
	"os"

	"perle-storefront/internal/config"
	"perle-storefront/internal/db"
	cartrepo "perle-storefront/internal/repository/cart"
	"perle-storefront/internal/seed"
	cartsvc "perle-storefront/internal/service/cart"

	"github.com/joho/godotenv"
)

func main() {
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("load .env: %v", err)
	}
	cfg := config.FromEnv()

	ctx := context.Background()
	var repo cartrepo.Repository
	switch cfg.CartStore {
	case config.CartStoreRedis:
		client, err := db.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Fatalf("connect redis: %v", err)
		}
		defer client.Close()
		repo = cartrepo.NewRedis(client, cfg.CartTTL)
	case config.CartStoreMemory:
		logger.Fatalf("seeding an in-memory store has no effect; set CART_STORE=postgres or redis")
	default:
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			logger.Fatalf("connect db: %v", err)
		}
		defer pool.Close()
		repo = cartrepo.NewPostgres(pool, logger)
	}

	view, err := seed.Apply(ctx, cartsvc.New(repo, logger))
	if err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Printf("seeded cart %s: %d items, %d %s", seed.DemoVisitor, view.TotalItems, view.TotalPrice, cfg.Currency)
}
