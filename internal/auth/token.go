package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClass separates short-lived request credentials from long-lived
// refresh credentials. Every operation checks the class it requires.
type TokenClass string

const (
	TokenClassAccess  TokenClass = "access"
	TokenClassRefresh TokenClass = "refresh"
)

// The signing secret must be at least 256 bits.
const minSecretBytes = 32

const defaultIssuer = "thisisme"

// SessionToken is the verified view of a signed token. Projections
// (subject, class, expiry) are only meaningful after Verify succeeds.
type SessionToken struct {
	SubjectID string
	Class     TokenClass
	TokenID   string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenClaims struct {
	Email string `json:"email,omitempty"`
	Class string `json:"type"`
	jwt.RegisteredClaims
}

// TokenCodec mints and verifies signed session tokens. It is stateless
// apart from the read-only secret, so concurrent use needs no locking.
type TokenCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// CodecOption configures TokenCodec behavior.
type CodecOption func(*TokenCodec)

// WithCodecClock overrides the time source (useful for expiry tests).
func WithCodecClock(fn func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// WithCodecIssuer overrides the issuer claim.
func WithCodecIssuer(issuer string) CodecOption {
	return func(c *TokenCodec) {
		if trimmed := strings.TrimSpace(issuer); trimmed != "" {
			c.issuer = trimmed
		}
	}
}

// NewTokenCodec constructs a codec from a symmetric secret. The secret is
// injected here once at startup and never surfaced again: it does not
// appear in errors, logs, or any claim.
func NewTokenCodec(secret []byte, opts ...CodecOption) (*TokenCodec, error) {
	if len(secret) < minSecretBytes {
		return nil, errors.New("auth: signing secret must be at least 32 bytes")
	}
	c := &TokenCodec{
		secret: secret,
		issuer: defaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Mint builds a signed HS256 token carrying subject, class, and validity
// window. Refresh tokens get a unique jti so the registry can revoke them
// individually; access tokens carry the account email for the HTTP layer.
func (c *TokenCodec) Mint(subjectID, email string, class TokenClass, ttl time.Duration) (string, SessionToken, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return "", SessionToken{}, errors.New("auth: subject is required")
	}
	if class != TokenClassAccess && class != TokenClassRefresh {
		return "", SessionToken{}, errors.New("auth: unsupported token class")
	}
	if ttl <= 0 {
		return "", SessionToken{}, errors.New("auth: ttl must be greater than zero")
	}

	now := c.now().UTC()
	tok := SessionToken{
		SubjectID: subjectID,
		Class:     class,
		TokenID:   uuid.NewString(),
		Email:     email,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	claims := tokenClaims{
		Email: email,
		Class: string(class),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subjectID,
			ID:        tok.TokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(tok.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", SessionToken{}, err
	}
	return signed, tok, nil
}

// Verify checks signature, shape, and expiry. Failures collapse into
// ErrInvalidToken except for a valid signature past its expiry, which is
// ErrExpired; nothing finer leaks to the caller.
func (c *TokenCodec) Verify(tokenString string) (SessionToken, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return SessionToken{}, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &tokenClaims{},
		func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, ErrInvalidToken
			}
			return c.secret, nil
		},
		jwt.WithTimeFunc(func() time.Time { return c.now().UTC() }),
		jwt.WithIssuer(c.issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return SessionToken{}, ErrExpired
		}
		return SessionToken{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return SessionToken{}, ErrInvalidToken
	}
	return sessionTokenFromClaims(claims)
}

func sessionTokenFromClaims(claims *tokenClaims) (SessionToken, error) {
	if strings.TrimSpace(claims.Subject) == "" {
		return SessionToken{}, ErrInvalidToken
	}
	class := TokenClass(claims.Class)
	if class != TokenClassAccess && class != TokenClassRefresh {
		return SessionToken{}, ErrInvalidToken
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return SessionToken{}, ErrInvalidToken
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return SessionToken{}, ErrInvalidToken
	}
	return SessionToken{
		SubjectID: claims.Subject,
		Class:     class,
		TokenID:   claims.ID,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
