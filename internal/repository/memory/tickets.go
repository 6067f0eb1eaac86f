package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type ticketRepo struct{ s *Store }

func (r ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	if ticket.Notes == nil {
		ticket.Notes = []domain.Note{}
	}
	now := s.now()
	ticket.CreatedAt, ticket.UpdatedAt = now, now
	stored := *ticket
	stored.Customer = domain.CustomerRef{ID: ticket.Customer.ID}
	stored.Notes = append([]domain.Note(nil), ticket.Notes...)
	s.tickets[ticket.ID] = stored
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.hydrate(ticket), nil
}

func (r ticketRepo) ListAll(_ context.Context) ([]domain.Ticket, error) {
	return r.list(func(domain.Ticket) bool { return true }), nil
}

func (r ticketRepo) ListByCustomer(_ context.Context, customerID string) ([]domain.Ticket, error) {
	return r.list(func(t domain.Ticket) bool { return t.Customer.ID == customerID }), nil
}

func (r ticketRepo) list(keep func(domain.Ticket) bool) []domain.Ticket {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.Ticket{}
	for _, ticket := range s.tickets {
		if keep(ticket) {
			result = append(result, *s.hydrate(ticket))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result
}

func (r ticketRepo) UpdateStatus(_ context.Context, id string, status domain.TicketStatus, from []domain.TicketStatus) (*domain.Ticket, domain.TicketStatus, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, "", repository.ErrNotFound
	}
	previous := ticket.Status
	if len(from) > 0 && !containsStatus(from, previous) {
		return nil, "", repository.ErrStatusGuard
	}
	ticket.Status = status
	ticket.UpdatedAt = s.now()
	s.tickets[id] = ticket
	return s.hydrate(ticket), previous, nil
}

func (r ticketRepo) AppendNote(_ context.Context, id string, note domain.Note) (*domain.Ticket, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	note.Timestamp = s.now()
	if n := len(ticket.Notes); n > 0 && note.Timestamp.Before(ticket.Notes[n-1].Timestamp) {
		note.Timestamp = ticket.Notes[n-1].Timestamp
	}
	notes := make([]domain.Note, len(ticket.Notes), len(ticket.Notes)+1)
	copy(notes, ticket.Notes)
	ticket.Notes = append(notes, note)
	ticket.UpdatedAt = note.Timestamp
	s.tickets[id] = ticket
	return s.hydrate(ticket), nil
}

func (r ticketRepo) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tickets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.tickets, id)
	return nil
}

func (r ticketRepo) Count(_ context.Context) (int, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tickets), nil
}

// hydrate copies a stored ticket and attaches owner details. Caller holds mu.
func (s *Store) hydrate(ticket domain.Ticket) *domain.Ticket {
	out := ticket
	out.Notes = append([]domain.Note{}, ticket.Notes...)
	if owner, ok := s.users[ticket.Customer.ID]; ok {
		out.Customer.Name = owner.Name
		out.Customer.Email = owner.Email
	}
	return &out
}

func containsStatus(list []domain.TicketStatus, s domain.TicketStatus) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}
