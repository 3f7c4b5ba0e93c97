// Package db owns the process-wide database handle and the schema migrations.
// The pool is created once at startup, handed to the user store, and closed on
// shutdown; nothing else in the service opens connections.
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	// Registers the postgres:// driver for golang-migrate (uses lib/pq underneath).
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"github.com/user/shortlink-go/apperror"
	"github.com/user/shortlink-go/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	connectTimeout  = 10 * time.Second
	pingTimeout     = 5 * time.Second
	maxConnIdleTime = 10 * time.Minute
	maxConnLifetime = 30 * time.Minute
)

// NewPool establishes the pgx connection pool and verifies it with a ping.
func NewPool(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, apperror.NewConfigError("invalid database connection string", err)
	}

	poolConfig.MaxConns = int32(cfg.PoolSize)
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.MaxConnLifetime = maxConnLifetime

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, apperror.NewInternalError(fmt.Errorf("create pgx pool: %w", err))
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, pingTimeout)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperror.NewInternalError(fmt.Errorf("ping database: %w", err))
	}

	return pool, nil
}

// migrator is the part of *migrate.Migrate used here; tests substitute a fake.
type migrator interface {
	Up() error
	Down() error
	Close() (source error, database error)
}

var newMigrator = func(databaseURL string) (migrator, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

// MigrateUp applies all pending migrations. An up-to-date schema is not an error.
func MigrateUp(databaseURL string, logger *slog.Logger) error {
	return runMigration(databaseURL, logger, "up", migrator.Up)
}

// MigrateDown reverts every migration.
func MigrateDown(databaseURL string, logger *slog.Logger) error {
	return runMigration(databaseURL, logger, "down", migrator.Down)
}

func runMigration(databaseURL string, logger *slog.Logger, direction string, step func(migrator) error) error {
	m, err := newMigrator(databaseURL)
	if err != nil {
		return apperror.NewInternalError(err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("error closing migration source", "error", srcErr)
		}
		if dbErr != nil {
			logger.Warn("error closing migration database", "error", dbErr)
		}
	}()

	if err := step(m); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("schema already up to date", "direction", direction)
			return nil
		}
		return apperror.NewInternalError(fmt.Errorf("migrate %s: %w", direction, err))
	}

	logger.Info("migrations applied", "direction", direction)
	return nil
}
