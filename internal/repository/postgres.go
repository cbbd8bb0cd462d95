package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is the Postgres draft and settings store, used when
// several bisadmin instances share drafts.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to connStr and runs migrations
func NewPostgres(ctx context.Context, connStr string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("pgx parse config error: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgx connect error: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgx ping error: %w", err)
	}

	repo := &PostgresRepository{pool: pool}
	if err := repo.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return repo, nil
}

// Close releases the pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// Ping checks if the database connection is alive
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresRepository) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS drafts (
			kind TEXT NOT NULL,
			id TEXT NOT NULL,
			data JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (kind, id)
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_drafts_updated ON drafts(kind, updated_at)`,
	}
	for _, migration := range migrations {
		if _, err := r.pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	for key, value := range DefaultSettings {
		if _, err := r.pool.Exec(ctx, `INSERT INTO settings (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`, key, value); err != nil {
			return err
		}
	}
	return nil
}

// GetDraft returns the stored snapshot or ErrNotFound
func (r *PostgresRepository) GetDraft(ctx context.Context, kind, id string) ([]byte, error) {
	if err := validKey(kind, id); err != nil {
		return nil, err
	}
	var data []byte
	err := r.pool.QueryRow(ctx, `SELECT data FROM drafts WHERE kind = $1 AND id = $2`, kind, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return data, err
}

// SaveDraft replaces the stored snapshot
func (r *PostgresRepository) SaveDraft(ctx context.Context, kind, id string, data []byte) error {
	if err := validKey(kind, id); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO drafts (kind, id, data, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (kind, id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		kind, id, string(data), time.Now().UTC())
	return err
}

// DeleteDraft removes a snapshot
func (r *PostgresRepository) DeleteDraft(ctx context.Context, kind, id string) error {
	if err := validKey(kind, id); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM drafts WHERE kind = $1 AND id = $2`, kind, id)
	return err
}

// ListDrafts returns drafts of kind (all kinds when empty), newest first
func (r *PostgresRepository) ListDrafts(ctx context.Context, kind string) ([]Draft, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT kind, id, data, updated_at FROM drafts
		WHERE $1 = '' OR kind = $1
		ORDER BY updated_at DESC, id`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	drafts := []Draft{}
	for rows.Next() {
		var d Draft
		if err := rows.Scan(&d.Kind, &d.ID, &d.Data, &d.UpdatedAt); err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// GetSetting retrieves a setting value
func (r *PostgresRepository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// SetSetting updates a setting value
func (r *PostgresRepository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	return err
}

// ListSettings returns every setting
func (r *PostgresRepository) ListSettings(ctx context.Context) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}
