package ledger

import (
	"context"
	"sort"
	"sync"

	id "aegis/pkg/domain"
	"aegis/pkg/platform/sentinel"
)

// InMemoryStore keeps the ledger in process memory. It favors clarity over
// performance and is the store of choice for tests and single-node demos.
//
// Immutability is structural: entries are value types, the slice only ever
// grows, and Scan iterates a snapshot taken under the read lock, so a reader
// never observes a partial entry and re-running a scan over a static ledger
// yields identical results.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	seen    map[id.EntryID]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{seen: make(map[id.EntryID]struct{})}
}

func (s *InMemoryStore) Append(_ context.Context, entry Entry) (id.EntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID.IsNil() {
		entry.ID = id.NewEntryID()
	}
	if _, dup := s.seen[entry.ID]; dup {
		return id.EntryID{}, sentinel.ErrConflict
	}
	s.seen[entry.ID] = struct{}{}
	s.entries = append(s.entries, entry)
	return entry.ID, nil
}

func (s *InMemoryStore) Scan(_ context.Context, filter Filter, fn func(Entry) error) error {
	s.mu.RLock()
	snapshot := make([]Entry, len(s.entries))
	copy(snapshot, s.entries)
	s.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool {
		if snapshot[i].Timestamp.Equal(snapshot[j].Timestamp) {
			return snapshot[i].ID.String() < snapshot[j].ID.String()
		}
		return snapshot[i].Timestamp.Before(snapshot[j].Timestamp)
	})

	for _, entry := range snapshot {
		if !filter.Matches(entry) {
			continue
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	return nil
}

// Len reports the number of appended entries. Test helper.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
