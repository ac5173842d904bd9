package subject

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"aegis/internal/rights"
	id "aegis/pkg/domain"
	"aegis/pkg/platform/sentinel"
)

// PostgresStore persists subjects in the subjects table. The declared policy
// is stored as jsonb so adoption queries can filter on individual flags.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the subjects table and its indexes.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS subjects (
	id            UUID PRIMARY KEY,
	contact_email TEXT NOT NULL UNIQUE,
	policy        JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_subjects_policy_anti_doxxing
	ON subjects ((policy->>'anti_doxxing'));
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate subjects: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateIfEmailAvailable(ctx context.Context, sub Subject) error {
	policy, err := json.Marshal(sub.Policy)
	if err != nil {
		return fmt.Errorf("marshal policy: %w", err)
	}

	const query = `
		INSERT INTO subjects (id, contact_email, policy, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(sub.ID), sub.ContactEmail, policy, sub.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert subject: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, subjectID id.SubjectID) (Subject, error) {
	const query = `
		SELECT id, contact_email, policy, created_at
		FROM subjects WHERE id = $1`

	var (
		sub    Subject
		sid    uuid.UUID
		policy []byte
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(subjectID)).
		Scan(&sid, &sub.ContactEmail, &policy, &sub.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Subject{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Subject{}, fmt.Errorf("scan subject: %w", err)
	}

	var p rights.Policy
	if err := json.Unmarshal(policy, &p); err != nil {
		return Subject{}, fmt.Errorf("unmarshal policy: %w", err)
	}
	sub.ID = id.SubjectID(sid)
	sub.Policy = p
	return sub, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subjects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count subjects: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CountWithAntiDoxxing(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM subjects WHERE (policy->>'anti_doxxing')::boolean`
	var n int
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count protected subjects: %w", err)
	}
	return n, nil
}
