package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func TestAdminOperationsRequireAdmin(t *testing.T) {
	h := newHarness(t, permissive)
	ctx := context.Background()
	name := "x"

	for _, actor := range []*domain.Identity{h.customer, h.agent} {
		_, err := h.users.CreateCustomer(ctx, actor, CustomerInput{Name: "N", Email: "n@example.com", Password: "pw"})
		requireCode(t, err, apperrors.CodeForbidden)
		_, err = h.users.List(ctx, actor, nil)
		requireCode(t, err, apperrors.CodeForbidden)
		_, err = h.users.Update(ctx, actor, h.other.UserID, domain.UserUpdate{Name: &name})
		requireCode(t, err, apperrors.CodeForbidden)
		requireCode(t, h.users.Delete(ctx, actor, h.other.UserID), apperrors.CodeForbidden)
		_, err = h.stats.Compute(ctx, actor)
		requireCode(t, err, apperrors.CodeForbidden)
	}

	_, err := h.stats.Compute(ctx, nil)
	requireCode(t, err, apperrors.CodeUnauthenticated)
}

func TestCreateCustomer(t *testing.T) {
	h := newHarness(t, permissive)
	ctx := context.Background()

	user, err := h.users.CreateCustomer(ctx, h.admin, CustomerInput{Name: "Nell", Email: "nell@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, user.Role)
	assert.NoError(t, auth.ComparePassword(user.PasswordHash, "pw"))

	_, err = h.users.CreateCustomer(ctx, h.admin, CustomerInput{Name: "Nell 2", Email: "nell@example.com", Password: "pw"})
	requireCode(t, err, apperrors.CodeConflict)

	assert.Equal(t, []events.EventType{events.EventCustomerCreated}, h.eventTypes())
}

func TestListUsersByRole(t *testing.T) {
	h := newHarness(t, permissive)
	ctx := context.Background()

	customer := domain.RoleCustomer
	customers, err := h.users.List(ctx, h.admin, &customer)
	require.NoError(t, err)
	assert.Len(t, customers, 2)

	everyone, err := h.users.List(ctx, h.admin, nil)
	require.NoError(t, err)
	assert.Len(t, everyone, 4)
}

func TestAdminUpdate(t *testing.T) {
	h := newHarness(t, permissive)
	ctx := context.Background()

	email := "otto@new.example.com"
	password := "new-pw"
	role := domain.RoleAgent
	updated, err := h.users.Update(ctx, h.admin, h.other.UserID, domain.UserUpdate{Email: &email, Password: &password, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, email, updated.Email)
	assert.Equal(t, domain.RoleAgent, updated.Role)

	_, err = h.auth.Login(ctx, email, password)
	require.NoError(t, err)

	taken := "cara@example.com"
	_, err = h.users.Update(ctx, h.admin, h.other.UserID, domain.UserUpdate{Email: &taken})
	requireCode(t, err, apperrors.CodeConflict)

	bogus := domain.Role("root")
	_, err = h.users.Update(ctx, h.admin, h.other.UserID, domain.UserUpdate{Role: &bogus})
	requireCode(t, err, apperrors.CodeInvalidInput)

	_, err = h.users.Update(ctx, h.admin, "missing", domain.UserUpdate{Email: &email})
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestUpdateProfileCannotChangeRole(t *testing.T) {
	h := newHarness(t, permissive)
	ctx := context.Background()

	admin := domain.RoleAdmin
	name := "Cara B"
	updated, err := h.users.UpdateProfile(ctx, h.customer, domain.UserUpdate{Name: &name, Role: &admin})
	require.NoError(t, err)
	assert.Equal(t, "Cara B", updated.Name)
	assert.Equal(t, domain.RoleCustomer, updated.Role)
}

func TestDeleteUserKeepsTickets(t *testing.T) {
	h := newHarness(t, permissive)
	ctx := context.Background()
	ticket, err := h.tickets.Create(ctx, h.customer, TicketCreateInput{Title: "Orphan"})
	require.NoError(t, err)

	require.NoError(t, h.users.Delete(ctx, h.admin, h.customer.UserID))
	requireCode(t, h.users.Delete(ctx, h.admin, h.customer.UserID), apperrors.CodeNotFound)

	all, err := h.tickets.ListAll(ctx, h.agent)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, ticket.ID, all[0].ID)
	assert.Empty(t, all[0].Customer.Name)

	assert.Contains(t, h.eventTypes(), events.EventUserDeleted)
}

func TestStatsReflectCurrentState(t *testing.T) {
	h := newHarness(t, permissive)
	ctx := context.Background()

	stats, err := h.stats.Compute(ctx, h.admin)
	require.NoError(t, err)
	assert.Equal(t, Stats{Customers: 2, Tickets: 0}, stats)

	_, err = h.tickets.Create(ctx, h.customer, TicketCreateInput{Title: "A"})
	require.NoError(t, err)
	_, err = h.tickets.Create(ctx, h.agent, TicketCreateInput{Title: "B"})
	require.NoError(t, err)

	stats, err = h.stats.Compute(ctx, h.admin)
	require.NoError(t, err)
	assert.Equal(t, Stats{Customers: 2, Tickets: 2}, stats)
}
