package auth

import (
	"context"
	"sync"
	"time"
)

// RefreshSession is the registry's record of an issued refresh token. The
// signature proves a refresh token was minted here; only the registry can
// prove it is still usable.
type RefreshSession struct {
	TokenID   string
	SubjectID string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// RefreshRegistry tracks issued refresh tokens for revocation. It is the
// sole source of truth for refresh validity: logout, rotation, and
// reuse-after-revocation all flow through it. Multiple concurrent sessions
// per subject are expected (multi-device login), so Register never
// deduplicates.
type RefreshRegistry interface {
	Register(ctx context.Context, subjectID, tokenID string, expiresAt time.Time) error
	// Revoke marks one session revoked. Idempotent; revoking an unknown
	// or already-revoked token is not an error.
	Revoke(ctx context.Context, tokenID string) error
	// RevokeAll revokes every session of a subject (logout everywhere).
	RevokeAll(ctx context.Context, subjectID string) error
	IsActive(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRegistry is an in-process RefreshRegistry for tests and
// single-instance deployments. A single lock serializes check-and-revoke on
// the same token, so a concurrent Revoke can never interleave with an
// IsActive read.
type MemoryRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*RefreshSession
	now      func() time.Time
}

// MemoryRegistryOption configures MemoryRegistry.
type MemoryRegistryOption func(*MemoryRegistry)

// WithRegistryClock overrides the time source.
func WithRegistryClock(fn func() time.Time) MemoryRegistryOption {
	return func(r *MemoryRegistry) {
		if fn != nil {
			r.now = fn
		}
	}
}

// NewMemoryRegistry constructs an empty registry.
func NewMemoryRegistry(opts ...MemoryRegistryOption) *MemoryRegistry {
	r := &MemoryRegistry{
		sessions: make(map[string]*RefreshSession),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *MemoryRegistry) Register(_ context.Context, subjectID, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[tokenID] = &RefreshSession{
		TokenID:   tokenID,
		SubjectID: subjectID,
		IssuedAt:  r.now().UTC(),
		ExpiresAt: expiresAt,
	}
	return nil
}

func (r *MemoryRegistry) Revoke(_ context.Context, tokenID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[tokenID]; ok {
		session.Revoked = true
	}
	return nil
}

func (r *MemoryRegistry) RevokeAll(_ context.Context, subjectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.SubjectID == subjectID {
			session.Revoked = true
		}
	}
	return nil
}

func (r *MemoryRegistry) IsActive(_ context.Context, tokenID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[tokenID]
	if !ok {
		return false, nil
	}
	return !session.Revoked, nil
}

// PurgeExpired drops sessions whose expiry is before now. Housekeeping
// only: expiry is already enforced at token verification, so correctness
// never depends on this running.
func (r *MemoryRegistry) PurgeExpired(_ context.Context, now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	purged := 0
	for id, session := range r.sessions {
		if session.ExpiresAt.Before(now) {
			delete(r.sessions, id)
			purged++
		}
	}
	return purged
}
