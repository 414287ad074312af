package entity

import "slices"

// Role represents the authorization level attached to a user.
type Role string

const (
	// RoleUser is the default, unprivileged role given on self-registration.
	RoleUser Role = "ROLE_USER"
	// RoleAdmin grants access to administrative endpoints.
	RoleAdmin Role = "ROLE_ADMIN"
)

// DefaultRole is assigned to every newly registered user.
const DefaultRole = RoleUser

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// Roles is a slice of Role for convenience.
type Roles []Role

// Contains checks if the roles slice contains a specific role.
func (rs Roles) Contains(role Role) bool {
	return slices.Contains(rs, role)
}
