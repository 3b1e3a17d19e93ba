package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sessionkit/cookie-session/internal/api/http/handlers"
	"github.com/sessionkit/cookie-session/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Sessions   *handlers.SessionHandler
	Auth       *auth.Sessions
	CookieName string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Sessions.Register)
	authGroup.Post("/login", cfg.Sessions.Login)
	authGroup.Post("/logout", cfg.Sessions.Logout)

	authGroup.Get("/me", cfg.Auth.Middleware(cfg.CookieName), cfg.Sessions.Me)
}
