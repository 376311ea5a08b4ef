package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"avatar-video-platform/internal/domain/ports/repository"
)

// NewPgxPool initializes a connection pool from a database URL.
func NewPgxPool(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = maxConns

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return pool, nil
}

// execSQL runs q on the transaction when one is supplied, else on the pool.
func execSQL(ctx context.Context, pool *pgxpool.Pool, tx repository.Tx, q string, args ...interface{}) (pgconn.CommandTag, error) {
	if t, ok := tx.(pgx.Tx); ok && t != nil {
		return t.Exec(ctx, q, args...)
	}
	return pool.Exec(ctx, q, args...)
}

// queryRow is the single-row counterpart of execSQL.
func queryRow(ctx context.Context, pool *pgxpool.Pool, tx repository.Tx, q string, args ...interface{}) pgx.Row {
	if t, ok := tx.(pgx.Tx); ok && t != nil {
		return t.QueryRow(ctx, q, args...)
	}
	return pool.QueryRow(ctx, q, args...)
}
