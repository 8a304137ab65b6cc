package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"thisisme.app/internal/consent"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// ConsentRecorder is the slice of the consent ledger registration needs.
type ConsentRecorder interface {
	Grant(ctx context.Context, subjectID string, t consent.Type) (*consent.Record, error)
}

// Service implements the credential flows: registration, login, refresh
// rotation, and logout. It owns no HTTP concerns; handlers translate its
// sentinel errors to status codes.
type Service struct {
	users      UserStore
	registry   RefreshRegistry
	codec      *TokenCodec
	consents   ConsentRecorder
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source.
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithAccessTTL overrides the access token lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

// WithRefreshTTL overrides the refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// WithConsentRecorder wires the consent ledger so registration records the
// account-creation consent. Without it registration still succeeds but
// records nothing.
func WithConsentRecorder(rec ConsentRecorder) ServiceOption {
	return func(s *Service) {
		s.consents = rec
	}
}

// NewService wires the auth service from its stores and token codec.
func NewService(users UserStore, registry RefreshRegistry, codec *TokenCodec, opts ...ServiceOption) *Service {
	s := &Service{
		users:      users,
		registry:   registry,
		codec:      codec,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an OWNER parent account. Registration requires consent
// up front; the grant is recorded in the ledger before the first token pair
// is issued.
func (s *Service) Register(ctx context.Context, profile Profile, password string, consentGiven bool) (*Principal, *Session, error) {
	email := strings.ToLower(strings.TrimSpace(profile.Email))
	displayName := strings.TrimSpace(profile.DisplayName)
	switch {
	case email == "" || !strings.Contains(email, "@"):
		return nil, nil, ErrValidation
	case displayName == "":
		return nil, nil, ErrValidation
	case password == "":
		return nil, nil, ErrValidation
	case !consentGiven:
		return nil, nil, ErrValidation
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	principal := &Principal{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		Role:         RoleOwner,
		AccountKind:  AccountParent,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, principal); err != nil {
		return nil, nil, err
	}
	if s.consents != nil {
		if _, err := s.consents.Grant(ctx, principal.ID, consent.TypeAccountCreation); err != nil {
			return nil, nil, err
		}
	}

	session, err := s.issueSession(ctx, principal)
	if err != nil {
		return nil, nil, err
	}
	return principal, session, nil
}

// Login authenticates by email (or bare child username) and password. Every
// failure path returns ErrInvalidCredentials; an unknown email still pays a
// hash comparison so timing does not distinguish it from a wrong password.
func (s *Service) Login(ctx context.Context, identifier, password string) (*Session, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	principal, err := s.users.FindByEmail(ctx, identifier)
	if err != nil && errors.Is(err, ErrNotFound) && !strings.Contains(identifier, "@") {
		// Child accounts log in with a bare username.
		principal, err = s.users.FindByEmail(ctx, identifier+"@"+ChildEmailDomain)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = VerifyPassword(enumerationGuardHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := VerifyPassword(principal.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !principal.Active {
		return nil, ErrInvalidCredentials
	}

	if err := s.users.UpdateLastLogin(ctx, principal.ID, s.now()); err != nil {
		return nil, err
	}
	return s.issueSession(ctx, principal)
}

// Refresh rotates a refresh token: the presented token is revoked and a
// fresh pair is issued. A token that verifies but was already revoked fails
// with ErrRevoked; the caller must log in again.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	tok, err := s.codec.Verify(refreshToken)
	if err != nil {
		return nil, err
	}
	if tok.Class != TokenClassRefresh {
		return nil, ErrInvalidToken
	}

	active, err := s.registry.IsActive(ctx, tok.TokenID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrRevoked
	}

	principal, err := s.users.Find(ctx, tok.SubjectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !principal.Active {
		return nil, ErrRevoked
	}

	if err := s.registry.Revoke(ctx, tok.TokenID); err != nil {
		return nil, err
	}
	return s.issueSession(ctx, principal)
}

// Logout revokes the presented refresh token. A token that fails
// verification reveals nothing and the call succeeds anyway; logout is
// idempotent from the client's point of view.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	tok, err := s.codec.Verify(refreshToken)
	if err != nil {
		return nil
	}
	if tok.Class != TokenClassRefresh {
		return nil
	}
	return s.registry.Revoke(ctx, tok.TokenID)
}

// LogoutAll revokes every refresh session of a subject.
func (s *Service) LogoutAll(ctx context.Context, subjectID string) error {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return ErrValidation
	}
	return s.registry.RevokeAll(ctx, subjectID)
}

// Authenticate verifies an access token and loads its principal. This is
// the request-path entry point the HTTP middleware calls per request.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*Principal, SessionToken, error) {
	tok, err := s.codec.Verify(accessToken)
	if err != nil {
		return nil, SessionToken{}, err
	}
	if tok.Class != TokenClassAccess {
		return nil, SessionToken{}, ErrInvalidToken
	}
	principal, err := s.users.Find(ctx, tok.SubjectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, SessionToken{}, ErrInvalidToken
		}
		return nil, SessionToken{}, err
	}
	if !principal.Active {
		return nil, SessionToken{}, ErrRevoked
	}
	return principal, tok, nil
}

// CheckPassword re-verifies the password of an already-authenticated
// subject, used to gate destructive actions.
func (s *Service) CheckPassword(ctx context.Context, subjectID, password string) error {
	principal, err := s.users.Find(ctx, subjectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	if err := VerifyPassword(principal.PasswordHash, password); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *Service) issueSession(ctx context.Context, principal *Principal) (*Session, error) {
	access, accessTok, err := s.codec.Mint(principal.ID, principal.Email, TokenClassAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, refreshTok, err := s.codec.Mint(principal.ID, "", TokenClassRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	if err := s.registry.Register(ctx, principal.ID, refreshTok.TokenID, refreshTok.ExpiresAt); err != nil {
		return nil, err
	}
	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessTok.ExpiresAt,
		SubjectID:    principal.ID,
		DisplayName:  principal.DisplayName,
		Email:        principal.Email,
		AccountKind:  principal.AccountKind,
		Role:         principal.Role,
		PassportID:   principal.PassportID,
	}, nil
}
