package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload. CustomerID is only honoured for staff.
type CreateTicketRequest struct {
	Title      string `json:"title" validate:"required,max=200"`
	CustomerID string `json:"customerId"`
}

// AddNoteRequest is the participant note flow.
type AddNoteRequest struct {
	TicketID string `json:"ticketId" validate:"required"`
	Note     string `json:"note" validate:"required,max=5000"`
}

// AgentNoteRequest is the staff note flow; the payload is nested.
type AgentNoteRequest struct {
	Notes AgentNote `json:"notes"`
}

// AgentNote is the nested body of AgentNoteRequest.
type AgentNote struct {
	SelectedTicketID string `json:"selectedTicketId" validate:"required"`
	NewNote          string `json:"newNote" validate:"required,max=5000"`
}

// UpdateStatusRequest payload. Status is checked by the service so an
// unknown value is reported as an invalid state.
type UpdateStatusRequest struct {
	SelectedTicketID string `json:"selectedTicketId" validate:"required"`
	Status           string `json:"status"`
}

// CustomerSummary is the ticket owner as shown in listings.
type CustomerSummary struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// NoteAuthorResponse identifies who wrote a note.
type NoteAuthorResponse struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// NoteResponse is one entry of a ticket's note history.
type NoteResponse struct {
	ID        string             `json:"_id"`
	Text      string             `json:"text"`
	AddedBy   NoteAuthorResponse `json:"addedBy"`
	Timestamp time.Time          `json:"timestamp"`
}

// TicketResponse is the full ticket including notes.
type TicketResponse struct {
	ID        string              `json:"_id"`
	Title     string              `json:"title"`
	Status    domain.TicketStatus `json:"status"`
	Customer  CustomerSummary     `json:"customer"`
	Notes     []NoteResponse      `json:"notes"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:     t.ID,
		Title:  t.Title,
		Status: t.Status,
		Customer: CustomerSummary{
			ID:    t.Customer.ID,
			Name:  t.Customer.Name,
			Email: t.Customer.Email,
		},
		Notes:     NewNoteResponses(t.Notes),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// NewTicketResponses maps a slice of tickets.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i]))
	}
	return out
}

// NewNoteResponses maps notes, preserving order.
func NewNoteResponses(notes []domain.Note) []NoteResponse {
	out := make([]NoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, NoteResponse{
			ID:        n.ID,
			Text:      n.Text,
			AddedBy:   NoteAuthorResponse{ID: n.AddedBy.UserID, Name: n.AddedBy.Name},
			Timestamp: n.Timestamp,
		})
	}
	return out
}

// StatusUpdateResponse wraps the ticket after a status change.
type StatusUpdateResponse struct {
	Message string         `json:"message"`
	Ticket  TicketResponse `json:"ticket"`
}
