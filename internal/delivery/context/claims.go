package context

import (
	"context"

	"authservice/internal/domain/service"

	"github.com/labstack/echo/v4"
)

// SetClaims stores the verified token claims on both echo.Context and the request context.
func SetClaims(c echo.Context, claims *service.Claims) {
	c.Set(string(KeyClaims), claims)
	c.SetRequest(c.Request().WithContext(WithClaims(c.Request().Context(), claims)))
}

// GetClaims returns the claims stored by the auth middleware.
func GetClaims(c echo.Context) (*service.Claims, bool) {
	claims, ok := c.Get(string(KeyClaims)).(*service.Claims)

	return claims, ok && claims != nil
}

// WithClaims returns a new context carrying the claims.
func WithClaims(ctx context.Context, claims *service.Claims) context.Context {
	return context.WithValue(ctx, KeyClaims, claims)
}

// GetClaimsFromContext extracts the claims from a standard context.Context.
func GetClaimsFromContext(ctx context.Context) (*service.Claims, bool) {
	claims, ok := ctx.Value(KeyClaims).(*service.Claims)

	return claims, ok && claims != nil
}
