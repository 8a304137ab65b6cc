package auth

// VisibilityLevel controls which roles may see a record (timeline entry or
// passport section).
type VisibilityLevel string

const (
	// VisibilityOwnersOnly restricts a record to the parents.
	VisibilityOwnersOnly VisibilityLevel = "OWNERS_ONLY"
	// VisibilityProfessionals additionally admits linked professionals.
	VisibilityProfessionals VisibilityLevel = "PROFESSIONALS"
	// VisibilityAll admits every linked viewer, including the child view.
	VisibilityAll VisibilityLevel = "ALL"
	// VisibilityCustom defers to the policy's explicit allowed-role set.
	VisibilityCustom VisibilityLevel = "CUSTOM"
)

// Policy is the per-record visibility rule. AllowedRoles is consulted only
// when Level is CUSTOM, except that PROFESSIONALS-level records may also
// name extra roles explicitly.
type Policy struct {
	Level        VisibilityLevel
	AllowedRoles map[Role]struct{}
}

// Relationship states whether the viewer holds an active grant on the
// record's passport. A viewer without a grant sees nothing regardless of
// role; this mirrors the permission-record lookup the access checks are
// built on.
type Relationship string

const (
	RelationshipNone    Relationship = "NONE"
	RelationshipGranted Relationship = "GRANTED"
)

func (p Policy) allows(role Role) bool {
	_, ok := p.AllowedRoles[role]
	return ok
}

// CanRead decides read eligibility for a viewer against a record's policy.
// Pure and total: every input combination yields a deterministic boolean.
func CanRead(policy Policy, role Role, rel Relationship) bool {
	if rel != RelationshipGranted {
		return false
	}
	switch policy.Level {
	case VisibilityAll:
		return true
	case VisibilityProfessionals:
		if role == RoleOwner || role == RoleCoOwner || role == RoleProfessional {
			return true
		}
		return policy.allows(role)
	case VisibilityOwnersOnly:
		return role == RoleOwner || role == RoleCoOwner
	case VisibilityCustom:
		return policy.allows(role)
	}
	return false
}

// CanWrite decides write eligibility. Write permission is always a subset of
// read permission, and visibility alone never grants writes: the role's own
// capability set must include Write. CHILD contributions therefore go
// through moderation (ModeratedWrite) rather than this path.
func CanWrite(policy Policy, role Role, rel Relationship) bool {
	return CanRead(policy, role, rel) && Capabilities(role).Write
}
