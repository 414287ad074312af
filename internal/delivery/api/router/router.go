// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"authservice/config"
	"authservice/internal/delivery/api/middleware"
	"authservice/internal/delivery/api/router/handler"
	"authservice/internal/domain/entity"
	"authservice/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// RouterParams holds the handlers and middleware the router mounts, injected by Fx.
type RouterParams struct {
	fx.In

	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	AuthMiddleware *middleware.AuthMiddleware
	Metrics        *metrics.Prom `optional:"true"`
	Config         *config.Config
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler    *handler.AuthHandler
	userHandler    *handler.UserHandler
	authMiddleware *middleware.AuthMiddleware
	metrics        *metrics.Prom
	config         *config.Config
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:    params.AuthHandler,
		userHandler:    params.UserHandler,
		authMiddleware: params.AuthMiddleware,
		metrics:        params.Metrics,
		config:         params.Config,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	if r.metrics != nil && r.config.Metrics != nil && r.config.Metrics.Enabled {
		e.GET(r.config.Metrics.Path, echo.WrapHandler(r.metrics.Handler()))
	}

	// Auth routes
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/register", r.authHandler.Register)
		authGroup.POST("/login", r.authHandler.Login)
		authGroup.POST("/google", r.authHandler.GoogleLogin)
	}

	// User routes that require authentication
	userGroup := e.Group("/users")
	userGroup.Use(r.authMiddleware.Authenticate)
	{
		userGroup.GET("/me", r.userHandler.Me)
		userGroup.GET("/exists", r.userHandler.Exists)
		userGroup.GET("/:email", r.userHandler.Get)
		userGroup.GET("", r.userHandler.List, r.authMiddleware.RequireRole(entity.RoleAdmin))
	}
}
