package service

import (
	"context"

	"authservice/internal/domain/entity"
)

// OAuthUser represents user information from OAuth providers
type OAuthUser struct {
	ID            string              // Provider-specific user ID (e.g., Google's 'sub' claim)
	Email         string              // User's email address
	Name          string              // User's display name
	Provider      entity.ProviderType // The OAuth provider
	EmailVerified bool                // Whether the email is verified by the provider
}

// OAuthAuthService defines the interface for OAuth authentication operations
// This is specifically for ID token verification (like Google ID tokens)
type OAuthAuthService interface {
	// VerifyIDToken verifies an OAuth ID token and returns user information
	VerifyIDToken(ctx context.Context, idToken string) (*OAuthUser, error)

	// GetProvider returns the OAuth provider type
	GetProvider() entity.ProviderType
}
