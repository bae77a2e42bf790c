package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"perle-storefront/internal/backend"
	"perle-storefront/internal/config"
	"perle-storefront/internal/db"
	"perle-storefront/internal/httpserver"
	cartrepo "perle-storefront/internal/repository/cart"
	sessionrepo "perle-storefront/internal/repository/session"
	cartsvc "perle-storefront/internal/service/cart"
	paymentsvc "perle-storefront/internal/service/payment"

	"github.com/joho/godotenv"
)

func main() {
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("load .env: %v", err)
	}
	cfg := config.FromEnv()

	ctx := context.Background()
	stores, cleanup, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open stores: %v", err)
	}
	defer cleanup()

	cartService := cartsvc.New(stores.carts, logger)
	paymentService := paymentsvc.New(backend.New(cfg.BackendURL, cfg.BackendTimeout), stores.sessions, cartService, paymentsvc.Options{
		Currency:     cfg.Currency,
		PollInterval: cfg.PollInterval,
		PollTimeout:  cfg.PollTimeout,
		Logger:       logger,
	})

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		CartSvc:        cartService,
		PaymentSvc:     paymentService,
		Store:          stores.ready,
		CORSOrigins:    cfg.CORSOrigins,
		CheckoutPerMin: cfg.CheckoutPerMin,
		SecureCookies:  cfg.SecureCookies,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s (cart store %s)", cfg.HTTPAddr, cfg.CartStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

type storeSet struct {
	carts    cartrepo.Repository
	sessions sessionrepo.Repository
	ready    httpserver.Pinger
}

// openStores picks the cart store from CART_STORE. Payment sessions live in Postgres
// unless everything runs in memory.
func openStores(ctx context.Context, cfg config.Config, logger *log.Logger) (*storeSet, func(), error) {
	if cfg.CartStore == config.CartStoreMemory {
		logger.Printf("using in-memory stores; carts are lost on restart")
		return &storeSet{carts: cartrepo.NewMemory(), sessions: sessionrepo.NewMemory()}, func() {}, nil
	}

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		return nil, nil, err
	}
	out := &storeSet{
		carts:    cartrepo.NewPostgres(pool, logger),
		sessions: sessionrepo.NewPostgres(pool),
		ready:    pool,
	}
	cleanup := pool.Close

	if cfg.CartStore == config.CartStoreRedis {
		client, err := db.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		out.carts = cartrepo.NewRedis(client, cfg.CartTTL)
		out.ready = db.Pingers{pool, db.RedisPinger{Client: client}}
		cleanup = func() {
			_ = client.Close()
			pool.Close()
		}
	}
	return out, cleanup, nil
}
