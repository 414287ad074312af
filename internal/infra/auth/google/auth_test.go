package google

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"authservice/config"
	"authservice/internal/domain/entity"
	domainerrors "authservice/internal/domain/errors"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stubValidator(payload *idtoken.Payload, err error) validateFunc {
	return func(_ context.Context, _, _ string) (*idtoken.Payload, error) {
		return payload, err
	}
}

func validPayload() *idtoken.Payload {
	return &idtoken.Payload{
		Issuer:   "https://accounts.google.com",
		Audience: "test_client_id",
		Subject:  "google-sub-123",
		Claims: map[string]any{
			"email":          "test@example.com",
			"email_verified": true,
			"name":           "Test User",
		},
	}
}

func TestAuthService_VerifyIDToken_Success(t *testing.T) {
	var gotAudience string
	validate := func(_ context.Context, _, audience string) (*idtoken.Payload, error) {
		gotAudience = audience
		return validPayload(), nil
	}
	svc := newAuthService("test_client_id", validate, newDiscardLogger())

	user, err := svc.VerifyIDToken(context.Background(), "id-token")

	require.NoError(t, err)
	assert.Equal(t, "test_client_id", gotAudience)
	assert.Equal(t, "google-sub-123", user.ID)
	assert.Equal(t, "test@example.com", user.Email)
	assert.Equal(t, "Test User", user.Name)
	assert.Equal(t, entity.ProviderTypeGoogle, user.Provider)
	assert.True(t, user.EmailVerified)
}

func TestAuthService_VerifyIDToken_Failures(t *testing.T) {
	unverified := validPayload()
	unverified.Claims["email_verified"] = false

	noEmail := validPayload()
	delete(noEmail.Claims, "email")

	badIssuer := validPayload()
	badIssuer.Issuer = "https://evil.example.com"

	tests := []struct {
		name     string
		validate validateFunc
	}{
		{name: "signature rejected", validate: stubValidator(nil, errors.New("idtoken: invalid signature"))},
		{name: "email not verified", validate: stubValidator(unverified, nil)},
		{name: "missing email", validate: stubValidator(noEmail, nil)},
		{name: "foreign issuer", validate: stubValidator(badIssuer, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newAuthService("test_client_id", tt.validate, newDiscardLogger())

			user, err := svc.VerifyIDToken(context.Background(), "id-token")

			assert.Nil(t, user)
			assert.ErrorIs(t, err, domainerrors.ErrOAuthTokenInvalid)
		})
	}
}

func TestAuthService_NotConfigured(t *testing.T) {
	svc := NewAuthService(&config.Config{}, newDiscardLogger())

	user, err := svc.VerifyIDToken(context.Background(), "id-token")

	assert.Nil(t, user)
	assert.ErrorIs(t, err, domainerrors.ErrOAuthNotConfigured)
}

func TestAuthService_GetProvider(t *testing.T) {
	cfg := &config.Config{GoogleOAuth: &config.GoogleOAuthConfig{ClientID: "test_client_id"}}
	svc := NewAuthService(cfg, newDiscardLogger())

	assert.Equal(t, entity.ProviderTypeGoogle, svc.GetProvider())
}
