// Package store persists expense documents, items, and photo records
// in PostgreSQL. Each entity gets its own store type over a shared DBTX
// so the same code runs against a pool or a transaction.
package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Migrate applies the embedded schema migrations. Safe to call on every
// startup; an up-to-date schema is not an error.
func Migrate(databaseURL string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, pgxMigrateURL(databaseURL))
	if err != nil {
		return fmt.Errorf("open migration target: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		m.Close()
		return fmt.Errorf("apply migrations: %w", err)
	}

	srcErr, dbErr := m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}

// pgxMigrateURL rewrites a standard postgres:// URL to the scheme the
// migrate pgx/v5 driver registers under.
func pgxMigrateURL(u string) string {
	if strings.HasPrefix(u, "postgres://") {
		return "pgx5://" + strings.TrimPrefix(u, "postgres://")
	}
	if strings.HasPrefix(u, "postgresql://") {
		return "pgx5://" + strings.TrimPrefix(u, "postgresql://")
	}
	return u
}
