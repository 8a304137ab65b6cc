package auth

import "strings"

// Role is the canonical access role a principal holds on a child record.
// The set is closed; capability lookups are table-driven so the whole
// decision surface stays in this file.
type Role string

const (
	RoleOwner        Role = "OWNER"
	RoleCoOwner      Role = "CO_OWNER"
	RoleProfessional Role = "PROFESSIONAL"
	RoleViewer       Role = "VIEWER"
	RoleChild        Role = "CHILD"
)

// roleAliases maps external vocabulary onto canonical roles. The client API
// historically called the second parent a "co-parent"; internally the role
// has always been stored as CO_OWNER.
var roleAliases = map[string]Role{
	"CO_PARENT": RoleCoOwner,
}

// externalLabels is the inverse of roleAliases for serialization.
var externalLabels = map[Role]string{
	RoleCoOwner: "CO_PARENT",
}

// CanonicalRole resolves a raw role label, case-insensitively, applying the
// alias table before direct lookup. Unknown labels fail with ErrUnknownRole.
func CanonicalRole(label string) (Role, error) {
	normalized := strings.ToUpper(strings.TrimSpace(label))
	if normalized == "" {
		return "", ErrUnknownRole
	}
	if role, ok := roleAliases[normalized]; ok {
		return role, nil
	}
	switch Role(normalized) {
	case RoleOwner, RoleCoOwner, RoleProfessional, RoleViewer, RoleChild:
		return Role(normalized), nil
	}
	return "", ErrUnknownRole
}

// ExternalLabel returns the wire vocabulary for a role. Only CO_OWNER
// differs from its canonical name; everything else is surfaced as-is.
func ExternalLabel(role Role) string {
	if label, ok := externalLabels[role]; ok {
		return label
	}
	return string(role)
}

// CapabilitySet is the fixed permission profile of a role. Visibility
// policies can narrow these capabilities per record but never widen them.
type CapabilitySet struct {
	// Read and Write are the baseline record permissions.
	Read  bool
	Write bool
	// Manage covers granting access, revoking it, and record deletion.
	Manage bool
	// FilteredRead means the role only sees content published to it
	// (the child view hides OWNERS_ONLY and PROFESSIONALS material).
	FilteredRead bool
	// ModeratedWrite means contributions are queued for guardian review
	// instead of being written directly.
	ModeratedWrite bool
}

var capabilityTable = map[Role]CapabilitySet{
	RoleOwner:        {Read: true, Write: true, Manage: true},
	RoleCoOwner:      {Read: true, Write: true, Manage: true},
	RoleProfessional: {Read: true, Write: true},
	RoleViewer:       {Read: true},
	RoleChild:        {Read: true, FilteredRead: true, ModeratedWrite: true},
}

// Capabilities looks up the static capability set for a role. Unknown roles
// get the zero set, which permits nothing.
func Capabilities(role Role) CapabilitySet {
	return capabilityTable[role]
}

// Roles lists every canonical role. Order matches the privilege ladder.
func Roles() []Role {
	return []Role{RoleOwner, RoleCoOwner, RoleProfessional, RoleViewer, RoleChild}
}
