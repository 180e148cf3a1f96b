package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/contacts-service/internal/api/http/handlers"
	"github.com/spec-kit/contacts-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Users    *handlers.UsersHandler
	Contacts *handlers.ContactsHandler
	Resolver *auth.Resolver
	Limiter  *RateLimiter
	// Gatherer backs GET /metrics; nil leaves the route unregistered.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/system/health", cfg.Health.System)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Resolver.Handle, cfg.Auth.Logout)
	authGroup.Get("/confirmed_email/:token", cfg.Auth.ConfirmEmail)
	authGroup.Post("/resend_confirm_email", cfg.Auth.ResendConfirmation)
	authGroup.Post("/refresh_token", cfg.Auth.Refresh)
	authGroup.Post("/request_reset_password", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/reset_password/:token", cfg.Auth.ResetPassword)

	users := api.Group("/users", cfg.Resolver.Handle)
	users.Get("/me", cfg.Users.Me)
	users.Put("/avatar", cfg.Users.UpdateAvatar)
	users.Patch("/avatar", cfg.Users.UpdateAvatar)
	users.Get("/", auth.RequireRoles(auth.AdminOnly), cfg.Users.List)
	users.Get("/:id", auth.RequireRoles(auth.AdminOrModerator), cfg.Users.Get)
	users.Patch("/:id/role", auth.RequireRoles(auth.AdminOnly), cfg.Users.SetRole)

	read := cfg.Limiter.Limit("contacts:read", 50, time.Minute)
	contacts := api.Group("/contacts", cfg.Resolver.Handle)
	contacts.Get("/", read, cfg.Contacts.List)
	contacts.Get("/search", read, cfg.Contacts.Search)
	contacts.Get("/upcoming-birthdays", read, cfg.Contacts.UpcomingBirthdays)
	contacts.Get("/:id", read, cfg.Contacts.Get)
	contacts.Post("/", cfg.Limiter.Limit("contacts:create", 25, time.Minute), cfg.Contacts.Create)
	contacts.Put("/:id", cfg.Limiter.Limit("contacts:update", 25, time.Minute), cfg.Contacts.Update)
	contacts.Delete("/:id", cfg.Limiter.Limit("contacts:delete", 5, time.Minute), cfg.Contacts.Delete)
}
