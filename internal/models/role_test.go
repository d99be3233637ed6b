package models

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"super_admin", RoleSuperAdmin, false},
		{"admin", RoleAdmin, false},
		{"user", RoleUser, false},
		{"member", RoleMember, false},
		{"Admin", "", true},
		{"", "", true},
		{"pastor", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRole(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRoleElevated(t *testing.T) {
	for _, r := range Roles {
		want := r == RoleSuperAdmin || r == RoleAdmin
		if r.Elevated() != want {
			t.Errorf("%s.Elevated() = %v, want %v", r, r.Elevated(), want)
		}
	}
	if Role("bishop").Elevated() {
		t.Error("unknown role must not be elevated")
	}
}
