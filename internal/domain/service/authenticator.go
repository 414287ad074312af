package service

import (
	"context"
	"errors"
)

var (
	// ErrPrincipalNotFound means the account disappeared between lookup and verification.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrBadCredentials means the supplied secret does not match the account.
	ErrBadCredentials = errors.New("bad credentials")
)

// Authenticator verifies an (email, password) pair against the credential store.
// It returns nil on success, ErrPrincipalNotFound or ErrBadCredentials on rejection,
// and any other error for infrastructure failures.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) error
}
