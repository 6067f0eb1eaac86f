package service

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// Stats are live counts read at call time.
type Stats struct {
	Customers int `json:"customers"`
	Tickets   int `json:"tickets"`
}

// StatsService aggregates counts across users and tickets.
type StatsService struct {
	users   repository.UserRepository
	tickets repository.TicketRepository
}

// NewStatsService builds the service.
func NewStatsService(users repository.UserRepository, tickets repository.TicketRepository) *StatsService {
	return &StatsService{users: users, tickets: tickets}
}

// Compute counts customer accounts and all tickets. Admin only.
func (s *StatsService) Compute(ctx context.Context, actor *domain.Identity) (Stats, error) {
	if err := auth.Authorize(actor, auth.OpViewStats); err != nil {
		return Stats{}, err
	}
	customers, err := s.users.CountByRole(ctx, domain.RoleCustomer)
	if err != nil {
		return Stats{}, apperrors.NewInternalError(err)
	}
	tickets, err := s.tickets.Count(ctx)
	if err != nil {
		return Stats{}, apperrors.NewInternalError(err)
	}
	return Stats{Customers: customers, Tickets: tickets}, nil
}
