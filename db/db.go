// Package db provides database connectivity and migration functionality.
// It handles establishing the connection pool (pgx) and running the embedded
// schema migrations (golang-migrate).
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	// The postgres database driver registers the "postgres://" scheme with golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	// lib/pq is the database/sql driver golang-migrate's postgres driver runs on.
	_ "github.com/lib/pq"

	"github.com/user/starter-go/apperror"
	"github.com/user/starter-go/config"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Querier is the subset of *pgxpool.Pool the repositories use.
// Depending on it (rather than on the pool) lets tests substitute pgxmock.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ Querier = (*pgxpool.Pool)(nil)

// NewPool establishes the PostgreSQL connection pool described by cfg and
// verifies it with a ping.
func NewPool(ctx context.Context, cfg *config.PoolConfig) (*pgxpool.Pool, error) {
	// `pgxpool.ParseConfig` parses the DSN string into a `pgxpool.Config` struct.
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error parsing DSN for database %s", cfg.DBName), err)
	}

	poolConfig.MaxConns = int32(cfg.MaxSize)
	poolConfig.MaxConnIdleTime = 10 * time.Minute
	poolConfig.MaxConnLifetime = 30 * time.Minute

	// Bound pool creation so an unreachable database fails fast.
	createCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(createCtx, poolConfig)
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error creating pgxpool for database %s", cfg.DBName), err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error connecting to the database %s", cfg.DBName), err)
	}

	return pool, nil
}

// newMigrator builds a golang-migrate instance reading the embedded
// migrations and targeting the configured database.
func newMigrator(cfg *config.PoolConfig) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, apperror.NewMigrationError("failed to open embedded migrations", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.DSN())
	if err != nil {
		return nil, apperror.NewMigrationError("failed to create migrator", err)
	}
	return m, nil
}

// RunMigrations applies all pending "up" migrations.
// `migrate.ErrNoChange` is not an error: the schema is already current.
func RunMigrations(cfg *config.PoolConfig) error {
	return withMigrator(cfg, func(m *migrate.Migrate) error {
		return m.Up()
	})
}

// RollbackMigrations reverts every applied migration.
func RollbackMigrations(cfg *config.PoolConfig) error {
	return withMigrator(cfg, func(m *migrate.Migrate) error {
		return m.Down()
	})
}

func withMigrator(cfg *config.PoolConfig, fn func(*migrate.Migrate) error) (err error) {
	m, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	// m.Close() returns two errors, one for the source and one for the database.
	defer func() {
		srcErr, dbErr := m.Close()
		if closeErr := errors.Join(srcErr, dbErr); closeErr != nil && err == nil {
			err = apperror.NewMigrationError("failed to close migrator", closeErr)
		}
	}()

	if err := fn(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperror.NewMigrationError("failed to run migrations", err)
	}
	return nil
}
