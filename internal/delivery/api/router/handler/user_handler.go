package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"authservice/internal/delivery/api/response"
	deliverycontext "authservice/internal/delivery/context"
	"authservice/internal/domain/entity"
	domainerrors "authservice/internal/domain/errors"
	"authservice/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// UserHandlerParams holds dependencies for UserHandler, injected by Fx.
type UserHandlerParams struct {
	fx.In

	AuthUC usecase.AuthUsecase
	Logger *slog.Logger
}

// UserHandler serves the authenticated user lookups.
type UserHandler struct {
	authUC usecase.AuthUsecase
	logger *slog.Logger
}

// NewUserHandler is the constructor for UserHandler.
func NewUserHandler(params UserHandlerParams) *UserHandler {
	return &UserHandler{
		authUC: params.AuthUC,
		logger: params.Logger,
	}
}

// UserResponse is the public view of a user. The password hash never leaves the service.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"createdAt"`
}

// ExistsResponse answers the exists lookup.
type ExistsResponse struct {
	Email  string `json:"email"`
	Exists bool   `json:"exists"`
}

func newUserResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		Role:      user.Role.String(),
		Provider:  user.Provider.String(),
		CreatedAt: user.CreatedAt,
	}
}

// Me returns the account behind the presented token.
func (h *UserHandler) Me(c echo.Context) error {
	claims, ok := deliverycontext.GetClaims(c)
	if !ok {
		return errors.WithStack(domainerrors.ErrUnauthorized)
	}

	user, err := h.authUC.FindUser(c.Request().Context(), claims.Subject)
	if err != nil {
		return errors.WithStack(err)
	}
	if user == nil {
		// The account was removed after the token was issued.
		return errors.WithStack(domainerrors.ErrUnauthorized.WithDetails("account no longer exists"))
	}

	return response.Success(c, http.StatusOK, newUserResponse(user))
}

// Exists reports whether an account uses the email given in the query.
func (h *UserHandler) Exists(c echo.Context) error {
	email := c.QueryParam("email")
	if email == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Query parameter email is required")
	}

	exists, err := h.authUC.ExistsUser(c.Request().Context(), email)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, ExistsResponse{Email: email, Exists: exists})
}

// Get returns a single user by email.
func (h *UserHandler) Get(c echo.Context) error {
	email, err := pathParam(c, "email")
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid email in path")
	}

	user, err := h.authUC.FindUser(c.Request().Context(), email)
	if err != nil {
		return errors.WithStack(err)
	}
	if user == nil {
		return errors.WithStack(domainerrors.ErrUserNotFound.WithDetails(email))
	}

	return response.Success(c, http.StatusOK, newUserResponse(user))
}

// List returns every user. Admin only.
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.authUC.FindAll(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, newUserResponse(user))
	}

	return response.Success(c, http.StatusOK, out)
}

// pathParam returns a decoded path parameter. echo routes on RawPath when the request has one,
// leaving its params escaped.
func pathParam(c echo.Context, name string) (string, error) {
	value := c.Param(name)
	if c.Request().URL.RawPath == "" {
		return value, nil
	}

	return url.PathUnescape(value)
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"})
}
