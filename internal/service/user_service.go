package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// UserService manages the user directory on behalf of administrators and
// account owners.
type UserService struct {
	users      repository.UserRepository
	accounts   *AuthService
	dispatcher events.Dispatcher
	bcryptCost int
	logger     *zap.Logger
}

// NewUserService builds the service. Account creation is delegated to
// accounts so hashing and uniqueness rules stay in one place.
func NewUserService(users repository.UserRepository, accounts *AuthService, dispatcher events.Dispatcher, logger *zap.Logger) *UserService {
	return &UserService{
		users:      users,
		accounts:   accounts,
		dispatcher: dispatcher,
		bcryptCost: accounts.bcryptCost,
		logger:     logger,
	}
}

// CustomerInput is the admin customer-creation payload.
type CustomerInput struct {
	Name     string
	Email    string
	Password string
}

// CreateCustomer adds a customer account. The role is always customer.
func (s *UserService) CreateCustomer(ctx context.Context, actor *domain.Identity, input CustomerInput) (*domain.User, error) {
	if err := auth.Authorize(actor, auth.OpCreateCustomer); err != nil {
		return nil, err
	}
	user, err := s.accounts.createUser(ctx, input.Name, input.Email, input.Password, domain.RoleCustomer)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventCustomerCreated,
		SubjectID: user.ID,
		Actor:     events.ActorOf(actor),
		Payload:   events.UserPayload{Email: user.Email, Role: user.Role},
	})
	return user, nil
}

// List returns users, optionally narrowed to one role.
func (s *UserService) List(ctx context.Context, actor *domain.Identity, role *domain.Role) ([]domain.User, error) {
	if err := auth.Authorize(actor, auth.OpListCustomers); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx, repository.UserFilter{Role: role})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// Update applies an admin edit; any field including role may change.
func (s *UserService) Update(ctx context.Context, actor *domain.Identity, id string, update domain.UserUpdate) (*domain.User, error) {
	if err := auth.Authorize(actor, auth.OpUpdateUser); err != nil {
		return nil, err
	}
	return s.apply(ctx, id, update)
}

// UpdateProfile lets a caller edit their own name, email and password.
// Role changes are dropped on this path.
func (s *UserService) UpdateProfile(ctx context.Context, actor *domain.Identity, update domain.UserUpdate) (*domain.User, error) {
	if err := auth.Authorize(actor, auth.OpUpdateOwnProfile); err != nil {
		return nil, err
	}
	update.Role = nil
	return s.apply(ctx, actor.UserID, update)
}

func (s *UserService) apply(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "User")
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name cannot be empty", nil)
		}
		user.Name = name
	}
	if update.Email != nil {
		email := strings.TrimSpace(*update.Email)
		if email == "" {
			return nil, apperrors.NewValidationError("email cannot be empty", nil)
		}
		user.Email = email
	}
	if update.Role != nil {
		if _, ok := domain.ParseRole(string(*update.Role)); !ok {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": string(*update.Role)})
		}
		user.Role = *update.Role
	}
	if update.Password != nil {
		if *update.Password == "" {
			return nil, apperrors.NewValidationError("password cannot be empty", nil)
		}
		hash, err := hashPassword(*update.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, translate(err, "User")
	}
	return user, nil
}

// Delete removes a user permanently. Tickets they filed are kept.
func (s *UserService) Delete(ctx context.Context, actor *domain.Identity, id string) error {
	if err := auth.Authorize(actor, auth.OpDeleteUser); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return translate(err, "User")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return translate(err, "User")
	}
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventUserDeleted,
		SubjectID: id,
		Actor:     events.ActorOf(actor),
		Payload:   events.UserPayload{Email: user.Email, Role: user.Role},
	})
	return nil
}
