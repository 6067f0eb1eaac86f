package repository_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// openPool connects to TEST_POSTGRES_DSN and applies migrations, or skips.
func openPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, persistence.RunMigrations(ctx, pool, zap.NewNop()))
	return pool
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.NewString())
}

func TestPostgresUserRepository(t *testing.T) {
	pool := openPool(t)
	ctx := context.Background()
	users := repository.NewUserRepository(pool)

	user := &domain.User{Name: "Pat", Email: uniqueEmail("pat"), PasswordHash: "x", Role: domain.RoleCustomer}
	require.NoError(t, users.Create(ctx, user))
	t.Cleanup(func() { _ = users.Delete(ctx, user.ID) })

	err := users.Create(ctx, &domain.User{Name: "Dup", Email: user.Email, PasswordHash: "x", Role: domain.RoleCustomer})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	byEmail, err := users.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byEmail.Role = domain.RoleAgent
	require.NoError(t, users.Update(ctx, byEmail))
	byID, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgent, byID.Role)

	_, err = users.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, users.Delete(ctx, uuid.NewString()), repository.ErrNotFound)
}

func TestPostgresTicketRepository(t *testing.T) {
	pool := openPool(t)
	ctx := context.Background()
	users := repository.NewUserRepository(pool)
	tickets := repository.NewTicketRepository(pool)

	owner := &domain.User{Name: "Owner", Email: uniqueEmail("owner"), PasswordHash: "x", Role: domain.RoleCustomer}
	require.NoError(t, users.Create(ctx, owner))
	t.Cleanup(func() { _ = users.Delete(ctx, owner.ID) })

	ticket := &domain.Ticket{Title: "VPN down", Status: domain.TicketStatusActive, Customer: domain.CustomerRef{ID: owner.ID}}
	require.NoError(t, tickets.Create(ctx, ticket))
	t.Cleanup(func() { _ = tickets.Delete(ctx, ticket.ID) })

	got, err := tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "Owner", got.Customer.Name)
	assert.Empty(t, got.Notes)

	mine, err := tickets.ListByCustomer(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := tickets.AppendNote(ctx, ticket.ID, domain.Note{
				Text:    fmt.Sprintf("note %d", i),
				AddedBy: domain.NoteAuthor{UserID: owner.ID, Name: owner.Name},
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err = tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, got.Notes, writers)
	for i := 1; i < len(got.Notes); i++ {
		assert.False(t, got.Notes[i].Timestamp.Before(got.Notes[i-1].Timestamp))
	}

	closed, previous, err := tickets.UpdateStatus(ctx, ticket.ID, domain.TicketStatusClosed, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, closed.Status)
	assert.Equal(t, domain.TicketStatusActive, previous)
	assert.Len(t, closed.Notes, writers)
	assert.Equal(t, "Owner", closed.Customer.Name)

	_, _, err = tickets.UpdateStatus(ctx, ticket.ID, domain.TicketStatusActive,
		[]domain.TicketStatus{domain.TicketStatusActive, domain.TicketStatusPending})
	assert.ErrorIs(t, err, repository.ErrStatusGuard)

	_, _, err = tickets.UpdateStatus(ctx, uuid.NewString(), domain.TicketStatusActive,
		[]domain.TicketStatus{domain.TicketStatusActive})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// Deleting the owner leaves the ticket listed with only the owner id.
	require.NoError(t, users.Delete(ctx, owner.ID))
	got, err = tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.Customer.ID)
	assert.Empty(t, got.Customer.Name)

	require.NoError(t, tickets.Delete(ctx, ticket.ID))
	_, err = tickets.GetByID(ctx, ticket.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
