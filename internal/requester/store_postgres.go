package requester

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "aegis/pkg/domain"
	"aegis/pkg/platform/sentinel"
)

// PostgresStore persists requesters in the requesters table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the requesters table and its indexes.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS requesters (
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL,
	contact_email TEXT NOT NULL UNIQUE,
	key_hash      TEXT NOT NULL UNIQUE,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_requesters_key_hash ON requesters (key_hash);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate requesters: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateIfEmailAvailable(ctx context.Context, r Requester) error {
	const query = `
		INSERT INTO requesters (id, name, contact_email, key_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(r.ID), r.Name, r.ContactEmail, r.KeyHash, r.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert requester: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, requesterID id.RequesterID) (Requester, error) {
	const query = `
		SELECT id, name, contact_email, key_hash, created_at
		FROM requesters WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, uuid.UUID(requesterID)))
}

func (s *PostgresStore) FindByKeyHash(ctx context.Context, keyHash string) (Requester, error) {
	const query = `
		SELECT id, name, contact_email, key_hash, created_at
		FROM requesters WHERE key_hash = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, keyHash))
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM requesters`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count requesters: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) scanOne(row *sql.Row) (Requester, error) {
	var (
		r   Requester
		rid uuid.UUID
	)
	err := row.Scan(&rid, &r.Name, &r.ContactEmail, &r.KeyHash, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Requester{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Requester{}, fmt.Errorf("scan requester: %w", err)
	}
	r.ID = id.RequesterID(rid)
	return r, nil
}
