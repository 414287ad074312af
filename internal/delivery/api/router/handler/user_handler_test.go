package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	deliverycontext "authservice/internal/delivery/context"
	"authservice/internal/domain/entity"
	domainerrors "authservice/internal/domain/errors"
	"authservice/internal/domain/service"
	mockUsecase "authservice/internal/mocks/usecase"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupUserHandler(t *testing.T, subject string) (*echo.Echo, *mockUsecase.MockAuthUsecase) {
	authUC := mockUsecase.NewMockAuthUsecase(t)
	h := NewUserHandler(UserHandlerParams{AuthUC: authUC, Logger: newDiscardLogger()})

	e := newTestEcho()
	withClaims := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if subject != "" {
				deliverycontext.SetClaims(c, &service.Claims{
					Role:             entity.RoleUser.String(),
					RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
				})
			}

			return next(c)
		}
	}

	g := e.Group("/users", withClaims)
	g.GET("/me", h.Me)
	g.GET("/exists", h.Exists)
	g.GET("/:email", h.Get)
	g.GET("", h.List)

	return e, authUC
}

func sampleUser(email string) *entity.User {
	return &entity.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "$2a$12$secret-hash",
		Role:         entity.RoleUser,
		Provider:     entity.ProviderTypeLocal,
		CreatedAt:    time.Now(),
	}
}

func TestUserHandler_Me(t *testing.T) {
	t.Run("returns the token subject", func(t *testing.T) {
		e, authUC := setupUserHandler(t, "alice@example.com")
		authUC.EXPECT().FindUser(mock.Anything, "alice@example.com").Return(sampleUser("alice@example.com"), nil).Once()

		rec := doJSON(t, e, http.MethodGet, "/users/me", nil)
		assertStatus(t, rec, http.StatusOK)
		assert.NotContains(t, rec.Body.String(), "secret-hash")

		var got UserResponse
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &got))
		assert.Equal(t, "alice@example.com", got.Email)
	})

	t.Run("deleted account is unauthorized", func(t *testing.T) {
		e, authUC := setupUserHandler(t, "gone@example.com")
		authUC.EXPECT().FindUser(mock.Anything, "gone@example.com").Return(nil, nil).Once()

		rec := doJSON(t, e, http.MethodGet, "/users/me", nil)
		assertStatus(t, rec, http.StatusUnauthorized)
	})

	t.Run("missing claims", func(t *testing.T) {
		e, _ := setupUserHandler(t, "")

		rec := doJSON(t, e, http.MethodGet, "/users/me", nil)
		assertStatus(t, rec, http.StatusUnauthorized)
	})
}

func TestUserHandler_Exists(t *testing.T) {
	e, authUC := setupUserHandler(t, "alice@example.com")
	authUC.EXPECT().ExistsUser(mock.Anything, "bob@example.com").Return(true, nil).Once()
	authUC.EXPECT().ExistsUser(mock.Anything, "carol@example.com").Return(false, nil).Once()

	for email, want := range map[string]bool{"bob@example.com": true, "carol@example.com": false} {
		rec := doJSON(t, e, http.MethodGet, "/users/exists?email="+email, nil)
		assertStatus(t, rec, http.StatusOK)

		var got ExistsResponse
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &got))
		assert.Equal(t, want, got.Exists, email)
	}

	rec := doJSON(t, e, http.MethodGet, "/users/exists", nil)
	assertStatus(t, rec, http.StatusBadRequest)
}

func TestUserHandler_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		e, authUC := setupUserHandler(t, "alice@example.com")
		authUC.EXPECT().FindUser(mock.Anything, "bob@example.com").Return(sampleUser("bob@example.com"), nil).Once()

		rec := doJSON(t, e, http.MethodGet, "/users/bob@example.com", nil)
		assertStatus(t, rec, http.StatusOK)
	})

	t.Run("escaped email is decoded", func(t *testing.T) {
		e, authUC := setupUserHandler(t, "alice@example.com")
		authUC.EXPECT().FindUser(mock.Anything, "a+b@x.com").Return(sampleUser("a+b@x.com"), nil).Once()
		authUC.EXPECT().FindUser(mock.Anything, "a@x.com").Return(nil, nil).Once()

		rec := doJSON(t, e, http.MethodGet, "/users/a%2Bb@x.com", nil)
		assertStatus(t, rec, http.StatusOK)

		rec = doJSON(t, e, http.MethodGet, "/users/a%40x.com", nil)
		assertStatus(t, rec, http.StatusNotFound)
		assert.NotContains(t, rec.Body.String(), "%40")
	})

	t.Run("literal percent is not decoded twice", func(t *testing.T) {
		e, authUC := setupUserHandler(t, "alice@example.com")
		authUC.EXPECT().FindUser(mock.Anything, "a%b@x.com").Return(sampleUser("a%b@x.com"), nil).Once()

		rec := doJSON(t, e, http.MethodGet, "/users/a%25b@x.com", nil)
		assertStatus(t, rec, http.StatusOK)
	})

	t.Run("absent is not found", func(t *testing.T) {
		e, authUC := setupUserHandler(t, "alice@example.com")
		authUC.EXPECT().FindUser(mock.Anything, "ghost@example.com").Return(nil, nil).Once()

		rec := doJSON(t, e, http.MethodGet, "/users/ghost@example.com", nil)
		assertStatus(t, rec, http.StatusNotFound)
		assert.Equal(t, "USER_NOT_FOUND", decode(t, rec).Error.Code)
	})

	t.Run("store failure hides internals", func(t *testing.T) {
		e, authUC := setupUserHandler(t, "alice@example.com")
		authUC.EXPECT().FindUser(mock.Anything, mock.Anything).
			Return(nil, domainerrors.NewDatabaseExecuteError(errors.New("connection refused"), "find user")).
			Once()

		rec := doJSON(t, e, http.MethodGet, "/users/bob@example.com", nil)
		assertStatus(t, rec, http.StatusInternalServerError)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})
}

func TestUserHandler_List(t *testing.T) {
	e, authUC := setupUserHandler(t, "admin@example.com")
	authUC.EXPECT().FindAll(mock.Anything).Return([]*entity.User{
		sampleUser("a@example.com"),
		sampleUser("b@example.com"),
	}, nil).Once()

	rec := doJSON(t, e, http.MethodGet, "/users", nil)
	assertStatus(t, rec, http.StatusOK)

	var got []UserResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "a@example.com", got[0].Email)
}

func TestHealthCheck(t *testing.T) {
	e := newTestEcho()
	e.GET("/health", HealthCheck)

	rec := doJSON(t, e, http.MethodGet, "/health", nil)
	assertStatus(t, rec, http.StatusOK)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
