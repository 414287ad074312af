package auth

import (
	"context"

	"authservice/internal/domain/repository"
	"authservice/internal/domain/service"
	"authservice/internal/errors"
)

// passwordAuthenticator compares a plaintext password against the hash held by the credential store.
type passwordAuthenticator struct {
	userRepo repository.UserRepository
	hasher   service.PasswordHasher
}

// NewPasswordAuthenticator creates the authenticator used for LOCAL accounts.
func NewPasswordAuthenticator(userRepo repository.UserRepository, hasher service.PasswordHasher) service.Authenticator {
	return &passwordAuthenticator{
		userRepo: userRepo,
		hasher:   hasher,
	}
}

// Authenticate loads the principal again and checks the password against its stored hash.
// Accounts from external providers have no usable password and are always rejected.
func (a *passwordAuthenticator) Authenticate(ctx context.Context, email, password string) error {
	user, err := a.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return service.ErrPrincipalNotFound
		}

		return errors.Wrap(err, "load principal")
	}

	if !user.IsLocal() || !a.hasher.Check(password, user.PasswordHash) {
		return service.ErrBadCredentials
	}

	return nil
}
