package auth

import (
	"errors"
	"testing"
)

func TestCanonicalRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
	}{
		{"OWNER", RoleOwner},
		{"owner", RoleOwner},
		{" Viewer ", RoleViewer},
		{"CO_OWNER", RoleCoOwner},
		{"CO_PARENT", RoleCoOwner},
		{"co_parent", RoleCoOwner},
		{"PROFESSIONAL", RoleProfessional},
		{"CHILD", RoleChild},
	}
	for _, tc := range cases {
		got, err := CanonicalRole(tc.in)
		if err != nil {
			t.Fatalf("CanonicalRole(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("CanonicalRole(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalRoleUnknown(t *testing.T) {
	for _, in := range []string{"", "  ", "ADMIN", "CO-PARENT", "PARENT"} {
		if _, err := CanonicalRole(in); !errors.Is(err, ErrUnknownRole) {
			t.Fatalf("CanonicalRole(%q): expected ErrUnknownRole, got %v", in, err)
		}
	}
}

func TestExternalLabel(t *testing.T) {
	if got := ExternalLabel(RoleCoOwner); got != "CO_PARENT" {
		t.Fatalf("ExternalLabel(CO_OWNER) = %q", got)
	}
	if got := ExternalLabel(RoleOwner); got != "OWNER" {
		t.Fatalf("ExternalLabel(OWNER) = %q", got)
	}
}

func TestCapabilities(t *testing.T) {
	for _, role := range []Role{RoleOwner, RoleCoOwner} {
		caps := Capabilities(role)
		if !caps.Read || !caps.Write || !caps.Manage {
			t.Fatalf("%s should hold read/write/manage: %+v", role, caps)
		}
	}

	pro := Capabilities(RoleProfessional)
	if !pro.Read || !pro.Write || pro.Manage {
		t.Fatalf("professional capabilities wrong: %+v", pro)
	}

	viewer := Capabilities(RoleViewer)
	if !viewer.Read || viewer.Write || viewer.Manage {
		t.Fatalf("viewer capabilities wrong: %+v", viewer)
	}

	child := Capabilities(RoleChild)
	if !child.Read || child.Write || !child.FilteredRead || !child.ModeratedWrite {
		t.Fatalf("child capabilities wrong: %+v", child)
	}

	// Unknown roles permit nothing.
	if got := Capabilities(Role("ADMIN")); got != (CapabilitySet{}) {
		t.Fatalf("unknown role capabilities = %+v", got)
	}
}
