package subject

import (
	"context"
	"sync"

	id "aegis/pkg/domain"
	"aegis/pkg/platform/sentinel"
)

// InMemoryStore holds subjects in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[id.SubjectID]Subject
	byEmail map[string]id.SubjectID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[id.SubjectID]Subject),
		byEmail: make(map[string]id.SubjectID),
	}
}

func (s *InMemoryStore) CreateIfEmailAvailable(_ context.Context, sub Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[sub.ContactEmail]; exists {
		return sentinel.ErrConflict
	}
	s.byID[sub.ID] = sub
	s.byEmail[sub.ContactEmail] = sub.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, subjectID id.SubjectID) (Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sub, ok := s.byID[subjectID]; ok {
		return sub, nil
	}
	return Subject{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

func (s *InMemoryStore) CountWithAntiDoxxing(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sub := range s.byID {
		if sub.Policy.AntiDoxxing {
			n++
		}
	}
	return n, nil
}
