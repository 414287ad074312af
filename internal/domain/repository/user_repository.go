// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"authservice/internal/domain/entity"
)

// ErrUserNotFound is a domain-specific error returned when a user is not found.
var ErrUserNotFound = errors.New("user not found")

// UserRepository is the credential store: user records keyed by email.
// The application layer will depend on this interface, not the concrete implementation.
type UserRepository interface {
	// FindByEmail retrieves a single user by exact email match.
	// It returns ErrUserNotFound when no record matches.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// Create persists a new user entity to the storage.
	// A record with the same email yields domainerrors.ErrDuplicateUser.
	Create(ctx context.Context, user *entity.User) error

	// FindAll returns every persisted user in creation order.
	FindAll(ctx context.Context) ([]*entity.User, error)
}
