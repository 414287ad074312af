package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims defines the custom claims carried by issued tokens.
// The subject (sub) is the user's email.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenService defines the interface for generating and validating JWTs.
// This abstracts the details of token creation from the use cases.
type TokenService interface {
	// GenerateToken creates a signed, time-bound token for the given subject email.
	GenerateToken(subjectEmail string, role string) (string, error)

	// ValidateToken checks signature and expiry and returns the embedded claims.
	ValidateToken(tokenString string) (*Claims, error)

	// GetTokenDuration returns the configured lifetime of issued tokens.
	GetTokenDuration() time.Duration
}
