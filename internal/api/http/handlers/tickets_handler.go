package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketsHandler serves the ticket endpoints for every role.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Create(c.UserContext(), identity(c), service.TicketCreateInput{
		Title:      req.Title,
		CustomerID: req.CustomerID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewTicketResponse(ticket))
}

// ListAll GET /tickets/get/all. An empty result is reported as 404.
func (h *TicketsHandler) ListAll(c *fiber.Ctx) error {
	tickets, err := h.service.ListAll(c.UserContext(), identity(c))
	if err != nil {
		return err
	}
	if len(tickets) == 0 {
		return apperrors.NewNotFound("Tickets", nil)
	}
	return c.JSON(dto.NewTicketResponses(tickets))
}

// ListMine GET /tickets/get/customer. An empty result is reported as 404.
func (h *TicketsHandler) ListMine(c *fiber.Ctx) error {
	tickets, err := h.service.ListForCustomer(c.UserContext(), identity(c))
	if err != nil {
		return err
	}
	if len(tickets) == 0 {
		return apperrors.NewNotFound("Tickets", nil)
	}
	return c.JSON(dto.NewTicketResponses(tickets))
}

// AddNote POST /tickets/addNote.
func (h *TicketsHandler) AddNote(c *fiber.Ctx) error {
	var req dto.AddNoteRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.AppendNote(c.UserContext(), identity(c), req.TicketID, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}

// AddAgentNote POST /tickets/agent/addNote.
func (h *TicketsHandler) AddAgentNote(c *fiber.Ctx) error {
	var req dto.AgentNoteRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.AppendAgentNote(c.UserContext(), identity(c), req.Notes.SelectedTicketID, req.Notes.NewNote)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}

// UpdateStatus PUT /tickets/agent/updateStatus.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.UpdateStatus(c.UserContext(), identity(c), req.SelectedTicketID, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(dto.StatusUpdateResponse{
		Message: "Ticket status updated successfully",
		Ticket:  dto.NewTicketResponse(ticket),
	})
}

// ListNotes GET /tickets/:ticketId/notes.
func (h *TicketsHandler) ListNotes(c *fiber.Ctx) error {
	notes, err := h.service.ListNotes(c.UserContext(), identity(c), c.Params("ticketId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewNoteResponses(notes))
}

// DeleteTicket DELETE /tickets/:ticketId.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), identity(c), c.Params("ticketId")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Ticket deleted successfully"})
}
