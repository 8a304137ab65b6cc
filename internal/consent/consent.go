// Package consent keeps the UK GDPR consent ledger: which subject agreed
// to which kind of processing, under which lawful basis, and when it was
// withdrawn. Registration and sharing flows consult it before touching the
// data they cover.
package consent

import (
	"errors"
	"time"
)

// Type identifies a consented processing purpose.
type Type string

const (
	// TypeAccountCreation — account setup; lawful basis CONTRACT (Art 6.1.b).
	TypeAccountCreation Type = "ACCOUNT_CREATION"
	// TypeChildHealthData — the child's health and behavioural records;
	// special category data, so Art 9.2.a explicit consent is required.
	TypeChildHealthData Type = "CHILD_HEALTH_DATA"
	// TypeProfessionalSharing — sharing with a named professional.
	TypeProfessionalSharing Type = "PROFESSIONAL_SHARING"
	// TypeDocumentOCR — text extraction from uploaded documents.
	TypeDocumentOCR Type = "DOCUMENT_OCR"
	// TypeShareableLink — creating a shareable link to the passport.
	TypeShareableLink Type = "SHAREABLE_LINK"
	// TypeCoOwnerAccess — granting the other parent full access.
	TypeCoOwnerAccess Type = "CO_OWNER_ACCESS"
)

// LawfulBasis is the Art 6 (or Art 9) ground a processing purpose rests on.
type LawfulBasis string

const (
	BasisConsent         LawfulBasis = "CONSENT"
	BasisContract        LawfulBasis = "CONTRACT"
	BasisExplicitConsent LawfulBasis = "EXPLICIT_CONSENT"
)

var basisTable = map[Type]LawfulBasis{
	TypeAccountCreation:     BasisContract,
	TypeChildHealthData:     BasisExplicitConsent,
	TypeProfessionalSharing: BasisConsent,
	TypeDocumentOCR:         BasisConsent,
	TypeShareableLink:       BasisConsent,
	TypeCoOwnerAccess:       BasisConsent,
}

var (
	ErrNotFound    = errors.New("consent: not found")
	ErrUnknownType = errors.New("consent: unknown consent type")
)

// BasisFor returns the lawful basis a consent type maps to.
func BasisFor(t Type) (LawfulBasis, error) {
	basis, ok := basisTable[t]
	if !ok {
		return "", ErrUnknownType
	}
	return basis, nil
}

// RequiresExplicit reports whether the type covers special category data
// and therefore needs explicit, unmissable consent at the point of capture.
func RequiresExplicit(t Type) bool {
	return basisTable[t] == BasisExplicitConsent
}

// Record is one consent grant. Withdrawal never deletes the record; the
// ledger keeps the full history for accountability.
type Record struct {
	ID          string
	SubjectID   string
	Type        Type
	Basis       LawfulBasis
	GrantedAt   time.Time
	WithdrawnAt *time.Time
}

// Active reports whether the grant currently stands.
func (r *Record) Active() bool {
	return r != nil && r.WithdrawnAt == nil
}
