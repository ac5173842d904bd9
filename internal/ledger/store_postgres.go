package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "aegis/pkg/domain"
	"aegis/pkg/platform/sentinel"
)

// PostgresStore persists ledger entries in the audit_entries table.
// The table has no UPDATE or DELETE path in this codebase; append-only is
// enforced by the store contract and by the primary-key constraint.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the audit_entries table when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_entries (
			id           UUID PRIMARY KEY,
			requester_id UUID,
			subject_ref  TEXT NOT NULL,
			action       TEXT NOT NULL,
			timestamp    TIMESTAMPTZ NOT NULL,
			client_ip    TEXT NOT NULL DEFAULT '',
			user_agent   TEXT NOT NULL DEFAULT '',
			detail       JSONB
		);
		CREATE INDEX IF NOT EXISTS idx_audit_entries_requester ON audit_entries (requester_id, timestamp);
		CREATE INDEX IF NOT EXISTS idx_audit_entries_action ON audit_entries (action, timestamp);
	`)
	if err != nil {
		return fmt.Errorf("migrate audit_entries: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) (id.EntryID, error) {
	if entry.ID.IsNil() {
		entry.ID = id.NewEntryID()
	}

	var detail []byte
	if entry.Detail != nil {
		var err error
		detail, err = json.Marshal(entry.Detail)
		if err != nil {
			return id.EntryID{}, fmt.Errorf("marshal entry detail: %w", err)
		}
	}

	var requesterID *uuid.UUID
	if !entry.RequesterID.IsNil() {
		rid := uuid.UUID(entry.RequesterID)
		requesterID = &rid
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (id, requester_id, subject_ref, action, timestamp, client_ip, user_agent, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		uuid.UUID(entry.ID),
		requesterID,
		entry.SubjectRef,
		string(entry.Action),
		entry.Timestamp,
		entry.ClientIP,
		entry.UserAgent,
		detail,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return id.EntryID{}, sentinel.ErrConflict
		}
		return id.EntryID{}, fmt.Errorf("insert audit entry: %w", err)
	}
	return entry.ID, nil
}

func (s *PostgresStore) Scan(ctx context.Context, filter Filter, fn func(Entry) error) error {
	query := `
		SELECT id, requester_id, subject_ref, action, timestamp, client_ip, user_agent, detail
		FROM audit_entries
		WHERE 1=1
	`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !filter.RequesterID.IsNil() {
		query += " AND requester_id = " + arg(uuid.UUID(filter.RequesterID))
	}
	if len(filter.Actions) > 0 {
		actions := make([]string, len(filter.Actions))
		for i, a := range filter.Actions {
			actions[i] = string(a)
		}
		query += " AND action = ANY(" + arg(pq.Array(actions)) + ")"
	}
	if !filter.From.IsZero() {
		query += " AND timestamp >= " + arg(filter.From)
	}
	if !filter.To.IsZero() {
		query += " AND timestamp < " + arg(filter.To)
	}
	query += " ORDER BY timestamp, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			entry       Entry
			entryID     uuid.UUID
			requesterID *uuid.UUID
			action      string
			detail      []byte
		)
		err := rows.Scan(
			&entryID,
			&requesterID,
			&entry.SubjectRef,
			&action,
			&entry.Timestamp,
			&entry.ClientIP,
			&entry.UserAgent,
			&detail,
		)
		if err != nil {
			return fmt.Errorf("scan audit entry: %w", err)
		}

		entry.ID = id.EntryID(entryID)
		if requesterID != nil {
			entry.RequesterID = id.RequesterID(*requesterID)
		}
		entry.Action = Action(action)
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &entry.Detail); err != nil {
				return fmt.Errorf("unmarshal entry detail: %w", err)
			}
		}

		if err := fn(entry); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate audit entries: %w", err)
	}
	return nil
}
