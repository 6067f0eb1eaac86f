package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
	// AuthLimiter throttles register and login. Nil disables throttling.
	AuthLimiter fiber.Handler
	// Metrics serves /metrics when set.
	Metrics fiber.Handler
}

// RegisterRoutes wires HTTP routes. Role gates are declared per route and
// enforced again by the services.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	limited := func(h fiber.Handler) []fiber.Handler {
		if cfg.AuthLimiter == nil {
			return []fiber.Handler{h}
		}
		return []fiber.Handler{cfg.AuthLimiter, h}
	}
	requireAuth := cfg.AuthMiddleware.Handle

	user := app.Group("/user")
	user.Post("/register", limited(cfg.Users.Register)...)
	user.Post("/login", limited(cfg.Users.Login)...)
	user.Put("/profile", requireAuth, auth.RequireOperation(auth.OpUpdateOwnProfile), cfg.Users.UpdateProfile)
	user.Get("/stats", requireAuth, auth.RequireOperation(auth.OpViewStats), cfg.Users.Stats)
	user.Post("/customer", requireAuth, auth.RequireOperation(auth.OpCreateCustomer), cfg.Users.CreateCustomer)
	user.Get("/customer/all", requireAuth, auth.RequireOperation(auth.OpListCustomers), cfg.Users.ListCustomers)
	user.Put("/customer/:id", requireAuth, auth.RequireOperation(auth.OpUpdateUser), cfg.Users.UpdateUser)
	user.Delete("/customer/:id", requireAuth, auth.RequireOperation(auth.OpDeleteUser), cfg.Users.DeleteUser)

	tickets := app.Group("/tickets", requireAuth)
	tickets.Post("/", auth.RequireOperation(auth.OpCreateTicket), cfg.Tickets.CreateTicket)
	tickets.Get("/get/all", auth.RequireOperation(auth.OpListAllTickets), cfg.Tickets.ListAll)
	tickets.Get("/get/customer", auth.RequireOperation(auth.OpListOwnTickets), cfg.Tickets.ListMine)
	tickets.Post("/addNote", auth.RequireOperation(auth.OpAppendNote), cfg.Tickets.AddNote)
	tickets.Post("/agent/addNote", auth.RequireOperation(auth.OpAppendAgentNote), cfg.Tickets.AddAgentNote)
	tickets.Put("/agent/updateStatus", auth.RequireOperation(auth.OpUpdateTicketStatus), cfg.Tickets.UpdateStatus)
	tickets.Get("/:ticketId/notes", auth.RequireOperation(auth.OpReadNotes), cfg.Tickets.ListNotes)
	tickets.Delete("/:ticketId", auth.RequireOperation(auth.OpDeleteTicket), cfg.Tickets.DeleteTicket)
}
