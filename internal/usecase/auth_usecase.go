// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"authservice/internal/domain/entity"
)

// --- Input DTOs ---

// LoginRequest carries the credentials of a single login or registration call.
// It is never persisted.
type LoginRequest struct {
	Email    string
	Password string
}

// AuthUsecase defines the interface for authentication and account provisioning.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AuthUsecase interface {
	// Authenticate verifies the credentials and returns a signed token for the email.
	// It fails with ErrUserNotFound for an unknown email and ErrInvalidCredentials otherwise.
	Authenticate(ctx context.Context, req LoginRequest) (string, error)

	// CreateUser registers a new account with the default role and the given provider.
	CreateUser(ctx context.Context, req LoginRequest, provider entity.ProviderType) (*entity.User, error)

	// FindAll lists every registered user.
	FindAll(ctx context.Context) ([]*entity.User, error)

	// FindUser returns the user with this email, or nil when there is none.
	FindUser(ctx context.Context, email string) (*entity.User, error)

	// ExistsUser reports whether an account with this email is registered.
	ExistsUser(ctx context.Context, email string) (bool, error)

	// GoogleLogin signs in with a Google ID token, provisioning the account on first use.
	GoogleLogin(ctx context.Context, idToken string) (string, error)

	// EnsureAdmin creates an administrator account unless the email is already taken.
	EnsureAdmin(ctx context.Context, email, password string) error
}
