package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

// UserStore is the persistence surface the auth service needs for
// principals. The full record CRUD lives elsewhere; authentication only
// creates accounts, looks them up, and stamps logins.
type UserStore interface {
	Create(ctx context.Context, p *Principal) error
	Find(ctx context.Context, id string) (*Principal, error)
	FindByEmail(ctx context.Context, email string) (*Principal, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// MemoryUserStore keeps principals in process memory for tests and
// DSN-less development runs.
type MemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[string]*Principal
	byEmail map[string]string
}

// NewMemoryUserStore constructs an empty store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    make(map[string]*Principal),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryUserStore) Create(_ context.Context, p *Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(p.Email)
	if _, exists := s.byEmail[email]; exists {
		return ErrConflict
	}
	clone := *p
	s.byID[p.ID] = &clone
	s.byEmail[email] = p.ID
	return nil
}

func (s *MemoryUserStore) Find(_ context.Context, id string) (*Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *s.byID[id]
	return &clone, nil
}

func (s *MemoryUserStore) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	stamp := at.UTC()
	p.LastLoginAt = &stamp
	p.UpdatedAt = stamp
	return nil
}
