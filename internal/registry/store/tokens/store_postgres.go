package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"mintgate/pkg/domain"
	"mintgate/pkg/platform/sentinel"
)

// PostgresStore persists the ownership ledger in PostgreSQL. The identifier
// sequence is a counter row advanced inside the mint transaction, so a batch
// either commits every row with its identifier or nothing at all.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed token store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateTokens(ctx context.Context, owners []domain.Principal) ([]domain.TokenID, error) {
	if len(owners) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin mint transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var last int64
	err = tx.QueryRowContext(ctx, `
		UPDATE registry_counters
		SET value = value + $1
		WHERE name = 'token_id'
		RETURNING value
	`, len(owners)).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("advance token counter: %w", err)
	}
	if last < int64(len(owners)) {
		// Counter wrapped; the identifier space is gone.
		return nil, sentinel.ErrExhausted
	}

	ids := make([]domain.TokenID, len(owners))
	rawIDs := make([]int64, len(owners))
	rawOwners := make([]string, len(owners))
	first := last - int64(len(owners)) + 1
	for i := range owners {
		rawIDs[i] = first + int64(i)
		rawOwners[i] = owners[i].String()
		ids[i] = domain.TokenID(rawIDs[i])
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tokens (id, owner)
		SELECT unnest($1::bigint[]), unnest($2::text[])
	`, pq.Array(rawIDs), pq.Array(rawOwners))
	if err != nil {
		return nil, fmt.Errorf("insert tokens: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit mint transaction: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) OwnerOf(ctx context.Context, id domain.TokenID) (domain.Principal, error) {
	var owner string
	err := s.db.QueryRowContext(ctx, `SELECT owner FROM tokens WHERE id = $1`, int64(id)).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NullPrincipal, sentinel.ErrNotFound
		}
		return domain.NullPrincipal, fmt.Errorf("find token owner: %w", err)
	}
	return domain.Principal(owner), nil
}

func (s *PostgresStore) UpdateOwner(ctx context.Context, id domain.TokenID, newOwner domain.Principal) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tokens SET owner = $2 WHERE id = $1`, int64(id), newOwner.String())
	if err != nil {
		return fmt.Errorf("update token owner: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update token owner: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) TokensOf(ctx context.Context, owner domain.Principal) ([]domain.TokenID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM tokens WHERE owner = $1 ORDER BY id`, owner.String())
	if err != nil {
		return nil, fmt.Errorf("list tokens by owner: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []domain.TokenID
	for rows.Next() {
		var raw int64
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan token id: %w", err)
		}
		ids = append(ids, domain.TokenID(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tokens by owner: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) BalanceOf(ctx context.Context, owner domain.Principal) (uint64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tokens WHERE owner = $1`, owner.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tokens by owner: %w", err)
	}
	return uint64(count), nil
}

func (s *PostgresStore) TotalSupply(ctx context.Context) (uint64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx, `SELECT value FROM registry_counters WHERE name = 'token_id'`).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("read token counter: %w", err)
	}
	return uint64(value), nil
}

func (s *PostgresStore) URIOverride(ctx context.Context, id domain.TokenID) (string, error) {
	var uri sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT token_uri FROM tokens WHERE id = $1`, int64(id)).Scan(&uri)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("find token uri: %w", err)
	}
	return uri.String, nil
}

func (s *PostgresStore) SetURIOverride(ctx context.Context, id domain.TokenID, uri string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tokens SET token_uri = $2 WHERE id = $1`, int64(id), uri)
	if err != nil {
		return fmt.Errorf("set token uri: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set token uri: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
