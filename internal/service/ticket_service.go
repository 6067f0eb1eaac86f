package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketService coordinates ticket workflows. Every method authorizes the
// actor before touching the store.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	policy     config.TicketsConfig
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Policy     config.TicketsConfig
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation. CustomerID is honoured only
// for agents and admins; customers always file for themselves.
type TicketCreateInput struct {
	Title      string
	CustomerID string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		policy:     deps.Policy,
		logger:     logger,
	}
}

// Create files a new Active ticket. The owner must exist.
func (s *TicketService) Create(ctx context.Context, actor *domain.Identity, input TicketCreateInput) (*domain.Ticket, error) {
	if err := auth.Authorize(actor, auth.OpCreateTicket); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}

	customerID := actor.UserID
	if id := strings.TrimSpace(input.CustomerID); id != "" && id != actor.UserID {
		if !actor.Role.IsStaff() {
			return nil, apperrors.NewForbidden("customers can only file tickets for themselves")
		}
		customerID = id
	}

	owner, err := s.users.GetByID(ctx, customerID)
	if err != nil {
		return nil, translate(err, "Customer")
	}

	ticket := &domain.Ticket{
		Title:    title,
		Status:   domain.TicketStatusActive,
		Customer: domain.CustomerRef{ID: owner.ID, Name: owner.Name, Email: owner.Email},
		Notes:    []domain.Note{},
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventTicketCreated,
		SubjectID: ticket.ID,
		Actor:     events.ActorOf(actor),
		Payload:   events.TicketCreatedPayload{CustomerID: owner.ID, Title: ticket.Title},
	})
	return ticket, nil
}

// ListAll returns every ticket with owner details attached.
func (s *TicketService) ListAll(ctx context.Context, actor *domain.Identity) ([]domain.Ticket, error) {
	if err := auth.Authorize(actor, auth.OpListAllTickets); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return tickets, nil
}

// ListForCustomer returns the tickets owned by the caller.
func (s *TicketService) ListForCustomer(ctx context.Context, actor *domain.Identity) ([]domain.Ticket, error) {
	if err := auth.Authorize(actor, auth.OpListOwnTickets); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.ListByCustomer(ctx, actor.UserID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return tickets, nil
}

// UpdateStatus moves a ticket to rawStatus. Only the three enum spellings
// are accepted. With reopening disabled, Closed tickets stay Closed.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.Identity, ticketID, rawStatus string) (*domain.Ticket, error) {
	if err := auth.Authorize(actor, auth.OpUpdateTicketStatus); err != nil {
		return nil, err
	}
	status, ok := domain.ParseTicketStatus(rawStatus)
	if !ok {
		return nil, apperrors.NewInvalidState("invalid status", map[string]any{
			"status":  rawStatus,
			"allowed": domain.TicketStatuses,
		})
	}

	var from []domain.TicketStatus
	if !s.policy.AllowReopen && status != domain.TicketStatusClosed {
		from = []domain.TicketStatus{domain.TicketStatusActive, domain.TicketStatusPending}
	}
	updated, previous, err := s.tickets.UpdateStatus(ctx, ticketID, status, from)
	if err != nil {
		return nil, translate(err, "Ticket")
	}

	if previous != updated.Status {
		publish(ctx, s.dispatcher, s.logger, events.Event{
			Type:      events.EventTicketStatusChanged,
			SubjectID: updated.ID,
			Actor:     events.ActorOf(actor),
			Payload:   events.TicketStatusChangedPayload{OldStatus: previous, NewStatus: updated.Status},
		})
	}
	return updated, nil
}

// AppendNote is the participant flow: customers may only write on their
// own tickets, staff on any.
func (s *TicketService) AppendNote(ctx context.Context, actor *domain.Identity, ticketID, text string) (*domain.Ticket, error) {
	return s.appendNote(ctx, actor, auth.OpAppendNote, ticketID, text)
}

// AppendAgentNote is the staff flow.
func (s *TicketService) AppendAgentNote(ctx context.Context, actor *domain.Identity, ticketID, text string) (*domain.Ticket, error) {
	return s.appendNote(ctx, actor, auth.OpAppendAgentNote, ticketID, text)
}

func (s *TicketService) appendNote(ctx context.Context, actor *domain.Identity, op auth.Operation, ticketID, text string) (*domain.Ticket, error) {
	if err := auth.Authorize(actor, op); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("note text is required", nil)
	}
	if !actor.Role.IsStaff() {
		if _, err := s.ownedTicket(ctx, actor, ticketID); err != nil {
			return nil, err
		}
	}

	note := domain.Note{
		Text:    text,
		AddedBy: domain.NoteAuthor{UserID: actor.UserID, Name: s.authorName(ctx, actor)},
	}
	updated, err := s.tickets.AppendNote(ctx, ticketID, note)
	if err != nil {
		return nil, translate(err, "Ticket")
	}

	added := updated.Notes[len(updated.Notes)-1]
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventTicketNoteAdded,
		SubjectID: updated.ID,
		Actor:     events.ActorOf(actor),
		Payload: events.TicketNoteAddedPayload{
			NoteID:      added.ID,
			AuthorID:    actor.UserID,
			BodyPreview: stringPreview(added.Text, 120),
		},
	})
	return updated, nil
}

// ListNotes returns a ticket's notes in append order.
func (s *TicketService) ListNotes(ctx context.Context, actor *domain.Identity, ticketID string) ([]domain.Note, error) {
	if err := auth.Authorize(actor, auth.OpReadNotes); err != nil {
		return nil, err
	}
	ticket, err := s.ownedTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	return ticket.Notes, nil
}

// Delete removes a ticket and its notes.
func (s *TicketService) Delete(ctx context.Context, actor *domain.Identity, ticketID string) error {
	if err := auth.Authorize(actor, auth.OpDeleteTicket); err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return translate(err, "Ticket")
	}
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventTicketDeleted,
		SubjectID: ticketID,
		Actor:     events.ActorOf(actor),
	})
	return nil
}

// ownedTicket loads a ticket the actor may see: staff see all, customers
// only their own.
func (s *TicketService) ownedTicket(ctx context.Context, actor *domain.Identity, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, translate(err, "Ticket")
	}
	if !actor.Role.IsStaff() && !ticket.OwnedBy(actor.UserID) {
		return nil, apperrors.NewForbidden("ticket belongs to another customer")
	}
	return ticket, nil
}

// authorName snapshots the author's current display name. The token's
// name is used when the directory has no newer value.
func (s *TicketService) authorName(ctx context.Context, actor *domain.Identity) string {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("resolve note author", zap.String("user_id", actor.UserID), zap.Error(err))
		}
		return actor.Name
	}
	return user.Name
}
