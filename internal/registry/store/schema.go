// Package store holds the shared Postgres schema for the registry stores.
// The schema is applied on startup so deployments need no external migration
// step; every statement is idempotent.
package store

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS registry_counters (
		name  TEXT PRIMARY KEY,
		value BIGINT NOT NULL
	)`,
	`INSERT INTO registry_counters (name, value)
		VALUES ('token_id', 0)
		ON CONFLICT (name) DO NOTHING`,
	`CREATE TABLE IF NOT EXISTS tokens (
		id        BIGINT PRIMARY KEY,
		owner     TEXT NOT NULL,
		token_uri TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS tokens_owner_idx ON tokens (owner, id)`,
	`CREATE TABLE IF NOT EXISTS role_grants (
		role      TEXT NOT NULL,
		principal TEXT NOT NULL,
		PRIMARY KEY (role, principal)
	)`,
	`CREATE TABLE IF NOT EXISTS registry_settings (
		id             SMALLINT PRIMARY KEY CHECK (id = 1),
		minting_paused BOOLEAN NOT NULL DEFAULT FALSE,
		base_uri       TEXT NOT NULL DEFAULT ''
	)`,
	`INSERT INTO registry_settings (id)
		VALUES (1)
		ON CONFLICT (id) DO NOTHING`,
}

// EnsureSchema creates the registry tables and seed rows if missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply registry schema: %w", err)
		}
	}
	return nil
}
