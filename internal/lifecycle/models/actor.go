package models

import (
	"fmt"

	dErrors "artpriv/pkg/domain-errors"
)

// Role is the caller's role as asserted by the identity context.
type Role string

const (
	RoleDonor      Role = "donor"
	RoleBank       Role = "bank"
	RoleSuperAdmin Role = "super_admin"
	RoleSupport    Role = "support"
	RoleSystem     Role = "system"
)

// IsAdmin reports whether r is an administrative role.
func (r Role) IsAdmin() bool {
	return r == RoleSuperAdmin || r == RoleSupport
}

// ParseRole accepts only roles a bearer token may carry. The system role is internal.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleDonor, RoleBank, RoleSuperAdmin, RoleSupport:
		return r, nil
	}
	return "", dErrors.New(dErrors.CodeUnauthorized, fmt.Sprintf("unknown role %q", s))
}

// Actor is whoever requests a transition.
type Actor struct {
	ID   string
	Role Role
}

// SystemActor issues automatic transitions such as the consent quorum advance.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

func (a Actor) String() string { return string(a.Role) + ":" + a.ID }
