package sessions

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned by stores when no binding exists for a token.
	ErrNotFound = errors.New("sessions: not found")
	// ErrDuplicate is returned when a token is already bound.
	ErrDuplicate = errors.New("sessions: duplicate token")
)

// Store persists session bindings.
type Store interface {
	// Put stores a new binding. It must not overwrite an existing token.
	Put(ctx context.Context, sess Session) error
	// Get returns ErrNotFound for unknown tokens.
	Get(ctx context.Context, token string) (Session, error)
	// Delete removes a binding. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
	// DeleteExpired removes bindings expired at now and reports how many.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// MemoryStore keeps sessions in process memory. It starts empty and its
// contents are lost when the process exits.
type MemoryStore struct {
	entries sync.Map // token -> *Session
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Put publishes a fully built binding in a single step.
func (s *MemoryStore) Put(_ context.Context, sess Session) error {
	entry := sess
	if _, loaded := s.entries.LoadOrStore(sess.Token, &entry); loaded {
		return ErrDuplicate
	}
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, token string) (Session, error) {
	v, ok := s.entries.Load(token)
	if !ok {
		return Session{}, ErrNotFound
	}
	return *v.(*Session), nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.entries.Delete(token)
	return nil
}

// DeleteExpired implements Store.
func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	removed := 0
	s.entries.Range(func(key, value any) bool {
		if value.(*Session).Expired(now) && s.entries.CompareAndDelete(key, value) {
			removed++
		}
		return true
	})
	return removed, nil
}

// Len counts live and not yet swept entries.
func (s *MemoryStore) Len() int {
	n := 0
	s.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

var _ Store = (*MemoryStore)(nil)
