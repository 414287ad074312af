package middleware

import (
	"log/slog"
	"strings"

	deliverycontext "authservice/internal/delivery/context"
	"authservice/internal/domain/entity"
	domainerrors "authservice/internal/domain/errors"
	"authservice/internal/domain/service"

	"github.com/labstack/echo/v4"
)

const bearerPrefix = "Bearer "

// AuthMiddleware provides middleware for JWT authentication and authorization.
type AuthMiddleware struct {
	tokenSvc service.TokenService
	logger   *slog.Logger
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc, logger: logger}
}

// Authenticate validates the Bearer token and stores its claims on the context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return domainerrors.ErrUnauthorized.WithDetails("authorization header is missing")
		}

		tokenString, found := strings.CutPrefix(authHeader, bearerPrefix)
		if !found || strings.TrimSpace(tokenString) == "" {
			return domainerrors.ErrUnauthorized.WithDetails("token must be a Bearer token")
		}

		claims, err := m.tokenSvc.ValidateToken(strings.TrimSpace(tokenString))
		if err != nil {
			deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).
				Debug("Rejected access token", slog.Any("error", err))

			return domainerrors.ErrUnauthorized.WithDetails("invalid or expired token")
		}

		if claims.Subject == "" {
			return domainerrors.ErrUnauthorized.WithDetails("subject missing from token")
		}

		deliverycontext.SetClaims(c, claims)

		return next(c)
	}
}

// RequireRole is a middleware factory that checks if the caller has a specific role.
// It must be used AFTER the Authenticate middleware.
func (m *AuthMiddleware) RequireRole(requiredRole entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := deliverycontext.GetClaims(c)
			if !ok {
				return domainerrors.ErrUnauthorized
			}

			if entity.Role(claims.Role) != requiredRole {
				return domainerrors.ErrForbidden.WithDetails("require " + requiredRole.String())
			}

			return next(c)
		}
	}
}
