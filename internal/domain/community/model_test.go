package community

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := map[string]Role{"": RoleMember, "member": RoleMember, " ADMIN ": RoleAdmin}
	for raw, want := range tests {
		got, err := ParseRole(raw)
		if err != nil || got != want {
			t.Fatalf("ParseRole(%q) = %s, %v; want %s", raw, got, err, want)
		}
	}
	if _, err := ParseRole("owner"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestHasExternalGroup(t *testing.T) {
	empty := ""
	ref := "1203630@g.us"
	if (Community{}).HasExternalGroup() {
		t.Fatalf("nil ref must not count as attached")
	}
	if (Community{ExternalGroupRef: &empty}).HasExternalGroup() {
		t.Fatalf("empty ref must not count as attached")
	}
	if !(Community{ExternalGroupRef: &ref}).HasExternalGroup() {
		t.Fatalf("expected attached group")
	}
}
