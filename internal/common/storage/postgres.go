// internal/common/storage/postgres.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	_ "github.com/lib/pq"

	"stock-backoffice/internal/common/config"
)

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// PostgresBackend keeps settings in a single key/value table.
type PostgresBackend struct {
	DB    *sql.DB
	table string
}

// NewPostgres opens a PostgreSQL-backed store
func NewPostgres(cfg config.PostgresConfig) (*PostgresBackend, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return NewPostgresWithDB(db, cfg.Table)
}

// NewPostgresWithDB wraps an open database handle.
func NewPostgresWithDB(db *sql.DB, table string) (*PostgresBackend, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid storage table name %q", table)
	}
	return &PostgresBackend{DB: db, table: table}, nil
}

// EnsureSchema creates the table when missing.
func (p *PostgresBackend) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY, value TEXT NOT NULL, updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW())`, p.table)
	_, err := p.DB.ExecContext(ctx, query)
	return err
}

// Ping tests the database connection
func (p *PostgresBackend) Ping(ctx context.Context) error {
	return p.DB.PingContext(ctx)
}

func (p *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, p.table)

	var value string
	err := p.DB.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func (p *PostgresBackend) Set(ctx context.Context, key string, value []byte) error {
	query := fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES ($1, $2, NOW()) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`, p.table)
	_, err := p.DB.ExecContext(ctx, query, key, string(value))
	return err
}

func (p *PostgresBackend) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, p.table)
	_, err := p.DB.ExecContext(ctx, query, key)
	return err
}

// Close closes the database connection
func (p *PostgresBackend) Close() error {
	if p.DB != nil {
		return p.DB.Close()
	}
	return nil
}
