package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing favors the subscription path: every open task stream re-runs
// its snapshot query on each change announcement, so the workload is bursts
// of short concurrent reads against the documents table.
const (
	maxConns        = 16
	minConns        = 2
	maxConnIdleTime = 5 * time.Minute
)

// DB owns the connection pool backing the document store.
type DB struct {
	pool *pgxpool.Pool
}

// Pool returns the underlying connection pool.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// New connects to Postgres and verifies the connection before handing the
// pool to the store.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.MaxConnIdleTime = maxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("database connected", "max_conns", maxConns)

	return &DB{pool: pool}, nil
}

// Close releases the pool. Open subscriptions fail their next snapshot
// refresh and shut down; the server drains them before calling this.
func (db *DB) Close() {
	db.pool.Close()
	slog.Info("database connection closed")
}
