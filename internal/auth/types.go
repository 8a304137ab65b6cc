package auth

import "time"

// AccountKind distinguishes how an account was provisioned. Role governs
// record access; kind governs the account's own lifecycle (child accounts
// log in with synthetic emails and carry a linked passport).
type AccountKind string

const (
	AccountParent       AccountKind = "PARENT"
	AccountProfessional AccountKind = "PROFESSIONAL"
	AccountChild        AccountKind = "CHILD"
)

// ChildEmailDomain is the synthetic domain for child account logins. A
// child signs in with a bare username, which the login flow expands to
// username@<domain> before lookup.
const ChildEmailDomain = "child.thisisme.local"

// Principal is a registered account. Identity is immutable; the role
// changes only through an explicit administrative action.
type Principal struct {
	ID           string
	Email        string
	DisplayName  string
	Role         Role
	AccountKind  AccountKind
	PasswordHash string
	// PassportID links a CHILD account to the passport it is the subject
	// of. Empty for other kinds.
	PassportID  string
	Active      bool
	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Profile is the caller-supplied identity portion of a registration.
type Profile struct {
	Email       string
	DisplayName string
}

// Session is the success payload of every credential flow: a fresh token
// pair plus enough identity for the client to render the account.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	SubjectID    string
	DisplayName  string
	Email        string
	AccountKind  AccountKind
	Role         Role
	PassportID   string
}
