package principals

import (
	"context"
	"errors"
	"sync"

	"github.com/campus-records/records/internal/shared"
)

// MemoryStore keeps principals and relationships in process memory. It backs
// the memory store driver and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	principals map[string]Principal
	tutees     map[string][]string
	modules    map[string][]string
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		principals: make(map[string]Principal),
		tutees:     make(map[string][]string),
		modules:    make(map[string][]string),
	}
}

// Add registers a principal. Existing usernames are rejected because salts
// are never rotated implicitly.
func (s *MemoryStore) Add(p Principal) error {
	if p.Username == "" || p.Salt == "" || p.Verifier == "" {
		return errors.New("principals: username, salt and verifier required")
	}
	if p.Role == RoleUnknown {
		return errors.New("principals: role required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.principals[p.Username]; ok {
		return errors.New("principals: duplicate username " + p.Username)
	}
	s.principals[p.Username] = p
	return nil
}

// AssignTutee links a student to a staff member.
func (s *MemoryStore) AssignTutee(staff, student string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tutees[staff] = append(s.tutees[staff], student)
}

// AssignModule records that staff teaches the module.
func (s *MemoryStore) AssignModule(staff, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules[staff] = append(s.modules[staff], code)
}

// FindByUsername implements Store.
func (s *MemoryStore) FindByUsername(_ context.Context, username string) (*Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.principals[username]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

// Tutees implements Relationships.
func (s *MemoryStore) Tutees(_ context.Context, staff string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.tutees[staff]...), nil
}

// TaughtModules implements Relationships.
func (s *MemoryStore) TaughtModules(_ context.Context, staff string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.modules[staff]...), nil
}

var _ Store = (*MemoryStore)(nil)
