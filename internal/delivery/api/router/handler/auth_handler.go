// Package handler contains the HTTP handlers for the authentication API.
package handler

import (
	"log/slog"
	"net/http"

	"authservice/internal/delivery/api/response"
	"authservice/internal/domain/entity"
	"authservice/internal/domain/service"
	"authservice/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const tokenTypeBearer = "Bearer"

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	AuthUC       usecase.AuthUsecase
	TokenService service.TokenService
	Logger       *slog.Logger
}

// AuthHandler serves registration and login.
type AuthHandler struct {
	authUC   usecase.AuthUsecase
	tokenSvc service.TokenService
	logger   *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler.
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	return &AuthHandler{
		authUC:   params.AuthUC,
		tokenSvc: params.TokenService,
		logger:   params.Logger,
	}
}

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// GoogleLoginRequest is the body of the federated login endpoint.
type GoogleLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// TokenResponse is returned by every successful login.
type TokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	ExpiresIn int64  `json:"expiresIn"`
}

// Register creates a LOCAL account.
func (h *AuthHandler) Register(c echo.Context) error {
	var req CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid registration input")
	}

	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authUC.CreateUser(c.Request().Context(), usecase.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	}, entity.ProviderTypeLocal)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, newUserResponse(user))
}

// Login verifies email and password and returns a session token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}

	// Only presence is checked here; length rules belong to registration.
	if req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Email and password are required")
	}

	token, err := h.authUC.Authenticate(c.Request().Context(), usecase.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, h.tokenResponse(token))
}

// GoogleLogin exchanges a Google ID token for a session token.
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	var req GoogleLoginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid Google login input")
	}

	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	token, err := h.authUC.GoogleLogin(c.Request().Context(), req.IDToken)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, h.tokenResponse(token))
}

func (h *AuthHandler) tokenResponse(token string) TokenResponse {
	return TokenResponse{
		Token:     token,
		TokenType: tokenTypeBearer,
		ExpiresIn: int64(h.tokenSvc.GetTokenDuration().Seconds()),
	}
}
