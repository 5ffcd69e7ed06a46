package pg

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenDB creates a database/sql connection to Postgres using the pgx driver.
// Bench workers each hold at most one connection, so maxConns should be at
// least the worker count.
func OpenDB(ctx context.Context, dsn string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(max(maxConns, 4))
	db.SetMaxIdleConns(max(maxConns/2, 2))

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	slog.Info("postgres connected", "dsn_len", len(dsn), "max_conns", maxConns)
	return db, nil
}

// Open connects and prepares a result store in one step.
func Open(ctx context.Context, dsn string, maxConns int) (*PGResultStore, error) {
	db, err := OpenDB(ctx, dsn, maxConns)
	if err != nil {
		return nil, err
	}
	s, err := NewPGResultStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}
