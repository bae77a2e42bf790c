package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// Apply migrates the schema for carts and payment sessions to the latest version.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	return run(ctx, pool, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("migrate up: %w (hint: every version under internal/migrate/sql needs both .up.sql and .down.sql)", err)
			}
			return fmt.Errorf("migrate up: %w", err)
		}
		return nil
	})
}

// Rollback reverts the given number of migration steps.
func Rollback(ctx context.Context, pool *pgxpool.Pool, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("rollback steps must be positive, got %d", steps)
	}
	return run(ctx, pool, func(m *migrate.Migrate) error {
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate down %d: %w", steps, err)
		}
		return nil
	})
}

// Version reports the applied schema version and whether the last run left it dirty.
func Version(ctx context.Context, pool *pgxpool.Pool) (uint, bool, error) {
	var (
		version uint
		dirty   bool
	)
	err := run(ctx, pool, func(m *migrate.Migrate) error {
		var err error
		version, dirty, err = m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		return err
	})
	return version, dirty, err
}

func run(ctx context.Context, pool *pgxpool.Pool, fn func(*migrate.Migrate) error) error {
	srcDriver, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		return fmt.Errorf("init iofs: %w", err)
	}

	sqlDB, err := sql.Open("pgx", pool.Config().ConnString())
	if err != nil {
		return fmt.Errorf("open sql db: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sql db: %w", err)
	}

	dbDriver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("init db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, "pgx", dbDriver)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()

	return fn(m)
}
