package requester

import (
	"context"
	"sync"

	id "aegis/pkg/domain"
	"aegis/pkg/platform/sentinel"
)

// InMemoryStore holds requesters in process memory. Email uniqueness is
// enforced under the same lock as the insert.
type InMemoryStore struct {
	mu       sync.RWMutex
	byID     map[id.RequesterID]Requester
	byEmail  map[string]id.RequesterID
	byKeyRef map[string]id.RequesterID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:     make(map[id.RequesterID]Requester),
		byEmail:  make(map[string]id.RequesterID),
		byKeyRef: make(map[string]id.RequesterID),
	}
}

func (s *InMemoryStore) CreateIfEmailAvailable(_ context.Context, r Requester) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[r.ContactEmail]; exists {
		return sentinel.ErrConflict
	}
	s.byID[r.ID] = r
	s.byEmail[r.ContactEmail] = r.ID
	s.byKeyRef[r.KeyHash] = r.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, requesterID id.RequesterID) (Requester, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.byID[requesterID]; ok {
		return r, nil
	}
	return Requester{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByKeyHash(_ context.Context, keyHash string) (Requester, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rid, ok := s.byKeyRef[keyHash]; ok {
		return s.byID[rid], nil
	}
	return Requester{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}
