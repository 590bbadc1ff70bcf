package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/roster-service/internal/api/http/handlers"
	"github.com/spec-kit/roster-service/internal/auth"
	"github.com/spec-kit/roster-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Roster         *handlers.RosterHandler
	Uploads        *handlers.UploadsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	manage := auth.RequireRole(domain.CallerRoleManager, domain.CallerRoleAdmin)

	orgs := app.Group("/orgs/:orgUUID", cfg.AuthMiddleware.Handle)
	orgs.Get("/members", auth.RequireAnyRole(), cfg.Roster.Members)
	orgs.Post("/members", manage, cfg.Roster.AddMember)
	orgs.Delete("/members/:personUUID", manage, cfg.Roster.RemoveMember)
	orgs.Post("/uploads", manage, cfg.Uploads.Enqueue)

	uploads := app.Group("/uploads", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	uploads.Get("/", cfg.Uploads.List)
	uploads.Get("/:jobID", cfg.Uploads.Status)

	internal := app.Group("/internal", cfg.AuthMiddleware.HandleScheduler)
	internal.Post("/uploads/:jobID/process", cfg.Uploads.Process)
}
