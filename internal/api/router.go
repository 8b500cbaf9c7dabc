package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/credentio/credential-system/internal/api/handler"
	"github.com/credentio/credential-system/internal/api/middleware"
	"github.com/credentio/credential-system/internal/api/token"
	"github.com/credentio/credential-system/internal/core/ports"
)

// RouterDeps carries the wired dependencies for the HTTP surface.
// Sessions may be nil (tokens then live until expiry) and HealthChecks may
// be empty (the memory backend has nothing to probe).
type RouterDeps struct {
	Service      ports.CredentialService
	Issuer       *token.Issuer
	Sessions     ports.SessionStore
	HealthChecks map[string]handler.Pinger
	JWTSecret    string
	Logger       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("credential"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Service, deps.Issuer, deps.Sessions)
	userHandler := handler.NewUserHandler(deps.Service, deps.Sessions)
	healthHandler := handler.NewHealthHandler(deps.HealthChecks)
	authMiddleware := middleware.Auth(deps.JWTSecret, deps.Sessions)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, authMiddleware)

	// --- User routes (bearer token required) ---
	users := e.Group("/users", authMiddleware)
	users.GET("/me", userHandler.Me)
	users.PATCH("/me", userHandler.Update)
	users.PUT("/me/password", userHandler.ChangePassword)
	users.DELETE("/me", userHandler.Delete)
	users.GET("", userHandler.List)

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", healthHandler.Live)
	e.GET("/health/ready", healthHandler.Ready)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
