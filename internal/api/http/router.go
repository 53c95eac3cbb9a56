package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Admin          *handlers.AdminHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/profiles/login", cfg.Auth.LoginProfile)
	authGroup.Post("/collaborators/login", cfg.Auth.LoginCollaborator)
	authGroup.Post("/invites/validate", cfg.Auth.ValidateInvite)
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/devices/register", cfg.Auth.RegisterDevice)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireSuperAdmin())
	admin.Post("/invites", cfg.Admin.IssueInvite)
	admin.Get("/invites", cfg.Admin.ListInvites)
	admin.Get("/invites/summary", cfg.Admin.InviteSummary)
	admin.Get("/invites/:id", cfg.Admin.InviteStatus)
	admin.Post("/invites/:id/revoke", cfg.Admin.RevokeInvite)
	admin.Post("/profiles/:id/deactivate", cfg.Admin.DeactivateProfile)
	admin.Post("/collaborators", cfg.Admin.CreateCollaborator)
	admin.Post("/auth-codes", cfg.Admin.IssueAuthCode)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireCollaborator())
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/stats", cfg.Tickets.Stats)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/assign", cfg.Tickets.Assign)
	tickets.Post("/:id/status", cfg.Tickets.SetStatus)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)

	device := app.Group("/device/tickets", cfg.AuthMiddleware.Handle, auth.RequireDevice())
	device.Post("/", cfg.Tickets.CreateTicket)
	device.Get("/", cfg.Tickets.ListTickets)
	device.Get("/:id", cfg.Tickets.GetTicket)
	device.Post("/:id/comments", cfg.Tickets.AddComment)
}
