package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketNoteAdded     EventType = "ticket_note_added"
	EventTicketDeleted       EventType = "ticket_deleted"
	EventCustomerCreated     EventType = "customer_created"
	EventUserDeleted         EventType = "user_deleted"
)

// AllEventTypes lists every event the services publish.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketStatusChanged,
	EventTicketNoteAdded,
	EventTicketDeleted,
	EventCustomerCreated,
	EventUserDeleted,
}

// Actor identifies who triggered an event.
type Actor struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
}

// ActorOf builds an Actor from an authenticated identity.
func ActorOf(identity *domain.Identity) Actor {
	if identity == nil {
		return Actor{}
	}
	return Actor{UserID: identity.UserID, Role: identity.Role}
}

// Event represents a domain event emitted by services. SubjectID is the
// ticket id for ticket events and the user id for user events.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SubjectID string    `json:"subjectId"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	CustomerID string `json:"customerId"`
	Title      string `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"oldStatus"`
	NewStatus domain.TicketStatus `json:"newStatus"`
}

// TicketNoteAddedPayload payload.
type TicketNoteAddedPayload struct {
	NoteID      string `json:"noteId"`
	AuthorID    string `json:"authorId"`
	BodyPreview string `json:"bodyPreview"`
}

// UserPayload is shared by customer_created and user_deleted.
type UserPayload struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}
