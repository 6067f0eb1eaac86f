package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusActive  TicketStatus = "Active"
	TicketStatusPending TicketStatus = "Pending"
	TicketStatusClosed  TicketStatus = "Closed"
)

// TicketStatuses lists every accepted status in display order.
var TicketStatuses = []TicketStatus{TicketStatusActive, TicketStatusPending, TicketStatusClosed}

// ParseTicketStatus accepts only the exact enum spellings.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	for _, s := range TicketStatuses {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

// CustomerRef is the ticket owner with the display fields attached on read.
// Name and Email are empty when the owning user has since been deleted.
type CustomerRef struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Ticket is the aggregate for support requests. Notes are embedded.
type Ticket struct {
	ID        string
	Title     string
	Status    TicketStatus
	Customer  CustomerRef
	Notes     []Note
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OwnedBy reports whether userID filed the ticket.
func (t *Ticket) OwnedBy(userID string) bool {
	return t.Customer.ID == userID
}
