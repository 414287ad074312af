// Package google verifies Google-issued OpenID Connect ID tokens.
package google

import (
	"context"
	"log/slog"

	"authservice/config"
	"authservice/internal/domain/entity"
	domainerrors "authservice/internal/domain/errors"
	"authservice/internal/domain/service"

	"github.com/pkg/errors"
	"google.golang.org/api/idtoken"
)

var validIssuers = map[string]struct{}{
	"https://accounts.google.com": {},
	"accounts.google.com":         {},
}

// validateFunc matches idtoken.Validate so tests can substitute a fake verifier.
type validateFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// AuthServiceImpl implements service.OAuthAuthService for Google Sign-In
type AuthServiceImpl struct {
	clientID string
	validate validateFunc
	logger   *slog.Logger
}

// NewAuthService creates a new Google AuthService
func NewAuthService(cfg *config.Config, logger *slog.Logger) service.OAuthAuthService {
	clientID := ""
	if cfg.GoogleOAuth != nil {
		clientID = cfg.GoogleOAuth.ClientID
	}

	return newAuthService(clientID, idtoken.Validate, logger)
}

func newAuthService(clientID string, validate validateFunc, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		clientID: clientID,
		validate: validate,
		logger:   logger,
	}
}

// VerifyIDToken implements service.OAuthAuthService interface
func (s *AuthServiceImpl) VerifyIDToken(ctx context.Context, idToken string) (*service.OAuthUser, error) {
	if s.clientID == "" {
		return nil, domainerrors.ErrOAuthNotConfigured
	}

	// Signature, expiry and audience are checked against Google's published keys.
	payload, err := s.validate(ctx, idToken, s.clientID)
	if err != nil {
		s.logger.Warn("Google ID token rejected", slog.Any("error", err))

		return nil, domainerrors.ErrOAuthTokenInvalid.WrapMessage(err.Error())
	}

	if _, ok := validIssuers[payload.Issuer]; !ok {
		return nil, domainerrors.ErrOAuthTokenInvalid.WrapMessage("invalid issuer: " + payload.Issuer)
	}

	oauthUser, err := userFromClaims(payload)
	if err != nil {
		return nil, domainerrors.ErrOAuthTokenInvalid.WrapMessage(err.Error())
	}

	s.logger.Info("Google ID token verified successfully",
		slog.String("userID", oauthUser.ID),
		slog.String("email", oauthUser.Email))

	return oauthUser, nil
}

// GetProvider returns the OAuth provider type
func (s *AuthServiceImpl) GetProvider() entity.ProviderType {
	return entity.ProviderTypeGoogle
}

func userFromClaims(payload *idtoken.Payload) (*service.OAuthUser, error) {
	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, errors.New("token carries no email")
	}

	verified, _ := payload.Claims["email_verified"].(bool)
	if !verified {
		return nil, errors.New("email not verified")
	}

	name, _ := payload.Claims["name"].(string)

	return &service.OAuthUser{
		ID:            payload.Subject,
		Email:         email,
		Name:          name,
		Provider:      entity.ProviderTypeGoogle,
		EmailVerified: verified,
	}, nil
}
