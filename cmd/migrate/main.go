package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"perle-storefront/internal/config"
	"perle-storefront/internal/db"
	"perle-storefront/internal/migrate"

	"github.com/joho/godotenv"
)

func main() {
	down := flag.Int("down", 0, "roll back this many migration steps instead of applying")
	flag.Parse()

	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("load .env: %v", err)
	}
	cfg := config.FromEnv()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if *down > 0 {
		if err := migrate.Rollback(ctx, pool, *down); err != nil {
			logger.Fatalf("rollback migrations: %v", err)
		}
		logger.Printf("rolled back %d step(s)", *down)
	} else {
		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Fatalf("apply migrations: %v", err)
		}
		logger.Println("migrations applied")
	}

	version, dirty, err := migrate.Version(ctx, pool)
	if err != nil {
		logger.Printf("read schema version: %v", err)
		return
	}
	logger.Printf("schema version %d (dirty=%v)", version, dirty)
}
