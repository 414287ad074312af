// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity record owned by the credential store.
// Email is the login identifier and is unique across all users.
type User struct {
	ID           uuid.UUID    // The Global Unique Identifier (GUID) for the user.
	Email        string       // Unique login identifier, stored in normalized form.
	PasswordHash string       // bcrypt hash of the password. The plaintext is never kept.
	Role         Role         // Authorization level, ROLE_USER for self-registration.
	Provider     ProviderType // Origin of the identity (local password or an external provider).
	CreatedAt    time.Time    // Timestamp of when this user account was created.
	UpdatedAt    time.Time    // Timestamp of the last modification to this user's data.
}

// IsLocal reports whether the user signs in with a password managed by this service.
func (u *User) IsLocal() bool {
	return u.Provider == ProviderTypeLocal
}
