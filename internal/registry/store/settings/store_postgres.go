package settings

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists registry configuration in a single-row table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed settings store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) IsPaused(ctx context.Context) (bool, error) {
	var paused bool
	err := s.db.QueryRowContext(ctx, `SELECT minting_paused FROM registry_settings WHERE id = 1`).Scan(&paused)
	if err != nil {
		return false, fmt.Errorf("read pause flag: %w", err)
	}
	return paused, nil
}

func (s *PostgresStore) SetPaused(ctx context.Context, paused bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE registry_settings SET minting_paused = $1 WHERE id = 1`, paused)
	if err != nil {
		return fmt.Errorf("set pause flag: %w", err)
	}
	return nil
}

func (s *PostgresStore) BaseURI(ctx context.Context) (string, error) {
	var uri string
	err := s.db.QueryRowContext(ctx, `SELECT base_uri FROM registry_settings WHERE id = 1`).Scan(&uri)
	if err != nil {
		return "", fmt.Errorf("read base uri: %w", err)
	}
	return uri, nil
}

func (s *PostgresStore) SetBaseURI(ctx context.Context, uri string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE registry_settings SET base_uri = $1 WHERE id = 1`, uri)
	if err != nil {
		return fmt.Errorf("set base uri: %w", err)
	}
	return nil
}
