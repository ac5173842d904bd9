package ledger

import (
	"context"

	id "aegis/pkg/domain"
	dErrors "aegis/pkg/domain-errors"
	"aegis/pkg/requestcontext"
)

// Store is the persistence contract for ledger entries.
//
// Append must be atomic and safe under concurrent invocation; it assigns the
// entry id when unset and never overwrites an existing entry. Scan streams
// entries matching the filter to fn in non-decreasing timestamp order (ties
// broken by entry id) and is restartable: each call iterates from scratch
// over the entries visible at its start. A scan concurrent with writers may
// miss trailing appends but never observes a partial entry.
type Store interface {
	Append(ctx context.Context, entry Entry) (id.EntryID, error)
	Scan(ctx context.Context, filter Filter, fn func(Entry) error) error
}

// Ledger fills entry defaults and translates storage failures into the
// domain error the transport layer maps to a server-side status. A decision
// is never reported to a caller unless its audit entry was durably appended.
type Ledger struct {
	store Store
}

func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// Append persists the entry, defaulting the id and the timestamp (from the
// request-scoped clock) when unset.
func (l *Ledger) Append(ctx context.Context, entry Entry) (id.EntryID, error) {
	if entry.ID.IsNil() {
		entry.ID = id.NewEntryID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	if !entry.Action.IsValid() {
		return id.EntryID{}, dErrors.New(dErrors.CodeInvalidInput, "unknown ledger action")
	}

	entryID, err := l.store.Append(ctx, entry)
	if err != nil {
		return id.EntryID{}, dErrors.Wrap(dErrors.CodeLedgerWrite, "append audit entry", err)
	}
	return entryID, nil
}

// Scan streams matching entries to fn in timestamp order.
func (l *Ledger) Scan(ctx context.Context, filter Filter, fn func(Entry) error) error {
	return l.store.Scan(ctx, filter, fn)
}

// List collects matching entries into a slice. Use Scan for aggregation over
// large ranges; List is for bounded result sets.
func (l *Ledger) List(ctx context.Context, filter Filter) ([]Entry, error) {
	var entries []Entry
	err := l.store.Scan(ctx, filter, func(e Entry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
