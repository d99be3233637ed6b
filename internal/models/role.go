package models

import "fmt"

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
	RoleMember     Role = "member"
)

// Roles lists every valid role in display order.
var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleUser, RoleMember}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleUser, RoleMember:
		return true
	}
	return false
}

// Elevated reports whether r may perform destructive actions.
func (r Role) Elevated() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin:
		return true
	case RoleUser, RoleMember:
		return false
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole converts untrusted input into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q", s)
	}
	return r, nil
}
