package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresKV stores items as rows of the kv_store table.
type PostgresKV struct {
	db     *pgxpool.Pool
	prefix string
	logger *zap.Logger
}

func NewPostgresKV(db *pgxpool.Pool, prefix string, logger *zap.Logger) *PostgresKV {
	return &PostgresKV{db: db, prefix: prefix, logger: logger}
}

// EnsureSchema creates kv_store if it does not exist yet.
func (r *PostgresKV) EnsureSchema(ctx context.Context) error {
	query := `
        CREATE TABLE IF NOT EXISTS kv_store (
            key        TEXT PRIMARY KEY,
            value      TEXT NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )
    `
	if _, err := r.db.Exec(ctx, query); err != nil {
		r.logger.Error("Failed to create kv_store table", zap.Error(err))
		return fmt.Errorf("create kv_store: %w", err)
	}
	return nil
}

func (r *PostgresKV) GetItem(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT value FROM kv_store WHERE key = $1`

	var value string
	err := r.db.QueryRow(ctx, query, r.prefix+key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		r.logger.Error("Failed to read item",
			zap.String("key", r.prefix+key),
			zap.Error(err),
		)
		return "", false, fmt.Errorf("select %s: %w", key, err)
	}
	return value, true, nil
}

func (r *PostgresKV) SetItem(ctx context.Context, key, value string) error {
	query := `
        INSERT INTO kv_store (key, value, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (key) DO UPDATE
        SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
    `
	if _, err := r.db.Exec(ctx, query, r.prefix+key, value); err != nil {
		r.logger.Error("Failed to upsert item",
			zap.String("key", r.prefix+key),
			zap.Error(err),
		)
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (r *PostgresKV) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
