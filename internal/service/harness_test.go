package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

type harness struct {
	store    *memory.Store
	auth     *AuthService
	users    *UserService
	tickets  *TicketService
	stats    *StatsService
	mu       sync.Mutex
	events   []events.Event
	customer *domain.Identity
	other    *domain.Identity
	agent    *domain.Identity
	admin    *domain.Identity
}

func newHarness(t *testing.T, policy config.TicketsConfig) *harness {
	t.Helper()
	h := &harness{store: memory.NewStore()}

	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	dispatcher.SubscribeAll(func(_ context.Context, e events.Event) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.events = append(h.events, e)
		return nil
	})

	logger := zap.NewNop()
	h.auth = NewAuthService(h.store.Users(), tokens, config.AuthConfig{BcryptCost: bcrypt.MinCost}, logger)
	h.users = NewUserService(h.store.Users(), h.auth, dispatcher, logger)
	h.tickets = NewTicketService(TicketDependencies{
		TicketRepo: h.store.Tickets(),
		UserRepo:   h.store.Users(),
		Dispatcher: dispatcher,
		Policy:     policy,
		Logger:     logger,
	})
	h.stats = NewStatsService(h.store.Users(), h.store.Tickets())

	h.customer = h.seed(t, "Cara", "cara@example.com", domain.RoleCustomer)
	h.other = h.seed(t, "Otto", "otto@example.com", domain.RoleCustomer)
	h.agent = h.seed(t, "Ada", "ada@example.com", domain.RoleAgent)
	h.admin = h.seed(t, "Root", "root@example.com", domain.RoleAdmin)
	h.events = nil
	return h
}

func (h *harness) seed(t *testing.T, name, email string, role domain.Role) *domain.Identity {
	t.Helper()
	user, err := h.auth.createUser(context.Background(), name, email, "secret-"+name, role)
	require.NoError(t, err)
	identity := domain.IdentityOf(user)
	return &identity
}

func (h *harness) eventTypes() []events.EventType {
	h.mu.Lock()
	defer h.mu.Unlock()
	types := make([]events.EventType, 0, len(h.events))
	for _, e := range h.events {
		types = append(types, e.Type)
	}
	return types
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, apperrors.HasCode(err, code), "expected %s, got %v", code, err)
}
