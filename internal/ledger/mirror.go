package ledger

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	id "aegis/pkg/domain"
)

// StreamProducer publishes serialized ledger entries to a downstream topic.
type StreamProducer interface {
	Produce(ctx context.Context, key, value []byte)
}

// MirroredStore decorates a Store so every durably appended entry is also
// published to the compliance stream for downstream consumers (SIEM,
// long-retention archival). The wrapped store remains the source of truth:
// the append fails or succeeds with it, and stream delivery is best-effort
// fan-out after the durable write.
type MirroredStore struct {
	Store
	producer StreamProducer
	logger   *slog.Logger
}

func NewMirroredStore(store Store, producer StreamProducer, logger *slog.Logger) *MirroredStore {
	return &MirroredStore{Store: store, producer: producer, logger: logger}
}

// streamEntry is the JSON structure published to the stream.
type streamEntry struct {
	ID          string         `json:"id"`
	RequesterID string         `json:"requester_id,omitempty"`
	SubjectRef  string         `json:"subject_ref"`
	Action      string         `json:"action"`
	Timestamp   string         `json:"timestamp"`
	ClientIP    string         `json:"client_ip,omitempty"`
	UserAgent   string         `json:"user_agent,omitempty"`
	Detail      map[string]any `json:"detail,omitempty"`
}

func (m *MirroredStore) Append(ctx context.Context, entry Entry) (id.EntryID, error) {
	entryID, err := m.Store.Append(ctx, entry)
	if err != nil {
		return id.EntryID{}, err
	}
	entry.ID = entryID

	payload := streamEntry{
		ID:         entry.ID.String(),
		SubjectRef: entry.SubjectRef,
		Action:     string(entry.Action),
		Timestamp:  entry.Timestamp.UTC().Format(time.RFC3339Nano),
		ClientIP:   entry.ClientIP,
		UserAgent:  entry.UserAgent,
		Detail:     entry.Detail,
	}
	if !entry.RequesterID.IsNil() {
		payload.RequesterID = entry.RequesterID.String()
	}

	value, err := json.Marshal(payload)
	if err != nil {
		// The entry is already durable; a marshal failure only loses the
		// mirror copy.
		m.logger.ErrorContext(ctx, "marshal ledger stream entry",
			"entry_id", entry.ID.String(),
			"error", err,
		)
		return entryID, nil
	}
	m.producer.Produce(ctx, []byte(entry.ID.String()), value)
	return entryID, nil
}
