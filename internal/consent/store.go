package consent

import (
	"context"
	"sync"
	"time"
)

// Store persists consent records.
type Store interface {
	Append(ctx context.Context, rec *Record) error
	// Latest returns the most recent record of a type for a subject, or
	// ErrNotFound when none was ever granted.
	Latest(ctx context.Context, subjectID string, t Type) (*Record, error)
	ListBySubject(ctx context.Context, subjectID string) ([]*Record, error)
	MarkWithdrawn(ctx context.Context, id string, at time.Time) error
}

// MemoryStore is an in-process Store for tests and DSN-less development.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *rec
	s.records = append(s.records, &clone)
	return nil
}

func (s *MemoryStore) Latest(_ context.Context, subjectID string, t Type) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if rec.SubjectID == subjectID && rec.Type == t {
			clone := *rec
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListBySubject(_ context.Context, subjectID string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Record
	for _, rec := range s.records {
		if rec.SubjectID == subjectID {
			clone := *rec
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *MemoryStore) MarkWithdrawn(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.ID == id {
			stamp := at.UTC()
			rec.WithdrawnAt = &stamp
			return nil
		}
	}
	return ErrNotFound
}
