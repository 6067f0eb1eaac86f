package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// Operation names a gated action.
type Operation string

const (
	OpCreateTicket       Operation = "ticket.create"
	OpListOwnTickets     Operation = "ticket.list_own"
	OpListAllTickets     Operation = "ticket.list_all"
	OpUpdateTicketStatus Operation = "ticket.update_status"
	OpAppendNote         Operation = "ticket.append_note"
	OpAppendAgentNote    Operation = "ticket.append_agent_note"
	OpReadNotes          Operation = "ticket.read_notes"
	OpDeleteTicket       Operation = "ticket.delete"
	OpCreateCustomer     Operation = "user.create_customer"
	OpListCustomers      Operation = "user.list"
	OpUpdateUser         Operation = "user.update"
	OpDeleteUser         Operation = "user.delete"
	OpUpdateOwnProfile   Operation = "user.update_own"
	OpViewStats          Operation = "stats.view"
)

var (
	anyRole   = []domain.Role{domain.RoleCustomer, domain.RoleAgent, domain.RoleAdmin}
	staffRole = []domain.Role{domain.RoleAgent, domain.RoleAdmin}
	adminRole = []domain.Role{domain.RoleAdmin}
)

// Policy maps every gated operation to the roles allowed to perform it.
// Ownership checks (own tickets, own notes) are applied by the ticket
// service on top of the role check.
var Policy = map[Operation][]domain.Role{
	OpCreateTicket:       anyRole,
	OpListOwnTickets:     anyRole,
	OpListAllTickets:     staffRole,
	OpUpdateTicketStatus: staffRole,
	OpAppendNote:         anyRole,
	OpAppendAgentNote:    staffRole,
	OpReadNotes:          anyRole,
	OpDeleteTicket:       staffRole,
	OpCreateCustomer:     adminRole,
	OpListCustomers:      adminRole,
	OpUpdateUser:         adminRole,
	OpDeleteUser:         adminRole,
	OpUpdateOwnProfile:   anyRole,
	OpViewStats:          adminRole,
}

// Require fails with Unauthenticated when no identity is present and with
// Forbidden when the identity's role is not allowed.
func Require(identity *domain.Identity, allowed ...domain.Role) error {
	if identity == nil || identity.UserID == "" {
		return apperrors.NewUnauthorized("authentication required")
	}
	for _, role := range allowed {
		if identity.Role == role {
			return nil
		}
	}
	return apperrors.NewForbidden("insufficient role")
}

// Authorize applies the policy entry for op. Unknown operations are denied.
func Authorize(identity *domain.Identity, op Operation) error {
	allowed, ok := Policy[op]
	if !ok {
		return apperrors.NewForbidden("operation not permitted")
	}
	return Require(identity, allowed...)
}

// RequireOperation gates a route on the policy entry for op.
func RequireOperation(op Operation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, _ := IdentityFromContext(c)
		if err := Authorize(identity, op); err != nil {
			return err
		}
		return c.Next()
	}
}
