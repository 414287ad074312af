package router

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"authservice/config"
	apimiddleware "authservice/internal/delivery/api/middleware"
	"authservice/internal/delivery/api/router/handler"
	"authservice/internal/delivery/api/validator"
	"authservice/internal/domain/entity"
	"authservice/internal/domain/service"
	"authservice/internal/infra/metrics"
	mockService "authservice/internal/mocks/service"
	mockUsecase "authservice/internal/mocks/usecase"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type routerFixtures struct {
	echo     *echo.Echo
	authUC   *mockUsecase.MockAuthUsecase
	tokenSvc *mockService.MockTokenService
}

func setupRouter(t *testing.T, cfg *config.Config) routerFixtures {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authUC := mockUsecase.NewMockAuthUsecase(t)
	tokenSvc := mockService.NewMockTokenService(t)

	e := echo.New()
	e.Validator = validator.New()
	e.HTTPErrorHandler = apimiddleware.NewErrorMiddleware(logger).HandleHTTPError

	r := NewRouter(RouterParams{
		AuthHandler:    handler.NewAuthHandler(handler.AuthHandlerParams{AuthUC: authUC, TokenService: tokenSvc, Logger: logger}),
		UserHandler:    handler.NewUserHandler(handler.UserHandlerParams{AuthUC: authUC, Logger: logger}),
		AuthMiddleware: apimiddleware.NewAuthMiddleware(tokenSvc, logger),
		Metrics:        metrics.NewProm(),
		Config:         cfg,
	})
	r.RegisterRoutes(e)

	return routerFixtures{echo: e, authUC: authUC, tokenSvc: tokenSvc}
}

func get(e *echo.Echo, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func claimsFor(email string, role entity.Role) *service.Claims {
	return &service.Claims{Role: role.String(), RegisteredClaims: jwt.RegisteredClaims{Subject: email}}
}

func TestRouter_UserRoutesRequireToken(t *testing.T) {
	fx := setupRouter(t, &config.Config{})

	for _, target := range []string{"/users/me", "/users/exists?email=a@b.com", "/users/a@b.com", "/users"} {
		rec := get(fx.echo, target, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Basic Zm9vOmJhcg==")
	rec := httptest.NewRecorder()
	fx.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_InvalidToken(t *testing.T) {
	fx := setupRouter(t, &config.Config{})
	fx.tokenSvc.EXPECT().ValidateToken("expired").Return(nil, errors.Wrap(jwt.ErrTokenExpired, "parse token")).Once()

	rec := get(fx.echo, "/users/me", "expired")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestRouter_ListIsAdminOnly(t *testing.T) {
	t.Run("regular user is forbidden", func(t *testing.T) {
		fx := setupRouter(t, &config.Config{})
		fx.tokenSvc.EXPECT().ValidateToken("user-token").Return(claimsFor("alice@example.com", entity.RoleUser), nil).Once()

		rec := get(fx.echo, "/users", "user-token")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "FORBIDDEN")
	})

	t.Run("admin lists users", func(t *testing.T) {
		fx := setupRouter(t, &config.Config{})
		fx.tokenSvc.EXPECT().ValidateToken("admin-token").Return(claimsFor("admin@example.com", entity.RoleAdmin), nil).Once()
		fx.authUC.EXPECT().FindAll(mock.Anything).Return([]*entity.User{}, nil).Once()

		rec := get(fx.echo, "/users", "admin-token")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRouter_StaticRoutesWinOverEmailParam(t *testing.T) {
	fx := setupRouter(t, &config.Config{})
	fx.tokenSvc.EXPECT().ValidateToken("user-token").Return(claimsFor("alice@example.com", entity.RoleUser), nil).Once()
	fx.authUC.EXPECT().ExistsUser(mock.Anything, "bob@example.com").Return(false, nil).Once()

	rec := get(fx.echo, "/users/exists?email=bob@example.com", "user-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"exists":false`)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	t.Run("served when enabled", func(t *testing.T) {
		fx := setupRouter(t, &config.Config{Metrics: &config.MetricsConfig{Enabled: true, Path: "/metrics"}})

		rec := get(fx.echo, "/metrics", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "go_goroutines")
	})

	t.Run("absent when disabled", func(t *testing.T) {
		fx := setupRouter(t, &config.Config{})

		rec := get(fx.echo, "/metrics", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
