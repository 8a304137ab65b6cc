package consent

import (
	"context"
	"time"

	"thisisme.app/internal/ids"
)

// Service provides high level consent operations over a Store.
type Service struct {
	store Store
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Grant records a consent of the given type for a subject. Granting again
// after withdrawal appends a fresh record; the withdrawn one stays in the
// ledger.
func (s *Service) Grant(ctx context.Context, subjectID string, t Type) (*Record, error) {
	basis, err := BasisFor(t)
	if err != nil {
		return nil, err
	}
	rec := &Record{
		ID:        ids.New(),
		SubjectID: subjectID,
		Type:      t,
		Basis:     basis,
		GrantedAt: s.now().UTC(),
	}
	if err := s.store.Append(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Withdraw marks the latest grant of the given type withdrawn. Withdrawing
// something never granted, or already withdrawn, is not an error.
func (s *Service) Withdraw(ctx context.Context, subjectID string, t Type) error {
	if _, err := BasisFor(t); err != nil {
		return err
	}
	rec, err := s.store.Latest(ctx, subjectID, t)
	if err != nil {
		if err == ErrNotFound {
			return nil
		}
		return err
	}
	if !rec.Active() {
		return nil
	}
	return s.store.MarkWithdrawn(ctx, rec.ID, s.now())
}

// Status reports whether the subject currently holds an active grant of the
// given type.
func (s *Service) Status(ctx context.Context, subjectID string, t Type) (bool, error) {
	if _, err := BasisFor(t); err != nil {
		return false, err
	}
	rec, err := s.store.Latest(ctx, subjectID, t)
	if err != nil {
		if err == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return rec.Active(), nil
}

// History lists every consent record for a subject, granted and withdrawn.
func (s *Service) History(ctx context.Context, subjectID string) ([]*Record, error) {
	return s.store.ListBySubject(ctx, subjectID)
}
