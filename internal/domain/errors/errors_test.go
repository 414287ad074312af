package errors

import (
	"net/http"
	"testing"

	"authservice/internal/errors"

	"github.com/stretchr/testify/assert"
)

func TestBaseError_WithDetailsMatchesKind(t *testing.T) {
	err := ErrUserNotFound.WithDetails("email=a@x.com")

	assert.True(t, errors.Is(err, ErrUserNotFound))
	assert.False(t, errors.Is(err, ErrInvalidCredentials))
	assert.Equal(t, "email=a@x.com", err.Details())
	assert.Equal(t, "USER_NOT_FOUND", err.ErrorCode())
	assert.Equal(t, http.StatusNotFound, err.HTTPCode())
}

func TestBaseError_NestedDetailsKeepKind(t *testing.T) {
	err := ErrDuplicateUser.WithDetails("first").WithDetails("second")

	assert.True(t, errors.Is(err, ErrDuplicateUser))
	assert.Equal(t, "second", err.Details())
}

func TestBaseError_WrapMessage(t *testing.T) {
	err := ErrInvalidCredentials.WrapMessage("login failed")

	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	var appErr AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusUnauthorized, appErr.HTTPCode())
}

func TestDatabaseExecuteError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewDatabaseExecuteError(cause, "failed to list users")

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, http.StatusInternalServerError, err.HTTPCode())
	assert.Equal(t, "DATABASE_EXECUTE_FAILED", err.ErrorCode())
	assert.Contains(t, err.Error(), "connection reset")
}
