package roles

import (
	"context"
	"database/sql"
	"fmt"

	"mintgate/internal/registry/models"
	"mintgate/pkg/domain"
)

// PostgresStore persists role grants in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed role store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) HasRole(ctx context.Context, role models.Role, principal domain.Principal) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM role_grants WHERE role = $1 AND principal = $2)
	`, string(role), principal.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check role grant: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Grant(ctx context.Context, role models.Role, principal domain.Principal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO role_grants (role, principal)
		VALUES ($1, $2)
		ON CONFLICT (role, principal) DO NOTHING
	`, string(role), principal.String())
	if err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	return nil
}

func (s *PostgresStore) Revoke(ctx context.Context, role models.Role, principal domain.Principal) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM role_grants WHERE role = $1 AND principal = $2
	`, string(role), principal.String())
	if err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	return nil
}

func (s *PostgresStore) RolesOf(ctx context.Context, principal domain.Principal) ([]models.Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role FROM role_grants WHERE principal = $1 ORDER BY role
	`, principal.String())
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Role
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		out = append(out, models.Role(role))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return out, nil
}
