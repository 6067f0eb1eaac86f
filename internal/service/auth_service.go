package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AuthService coordinates registration, login and token identity checks.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// AuthResult is a user together with a freshly issued session token.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// RegisterInput is the open registration payload. Role is optional.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// NewAuthService builds the service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, cfg config.AuthConfig, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// Tokens exposes the token manager for the auth middleware.
func (s *AuthService) Tokens() *auth.TokenManager {
	return s.tokens
}

// Register creates a customer account and signs the caller in. Callers may
// not grant themselves staff roles.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	role := domain.RoleCustomer
	if raw := strings.TrimSpace(input.Role); raw != "" {
		parsed, ok := domain.ParseRole(raw)
		if !ok {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": raw})
		}
		if parsed != domain.RoleCustomer {
			return nil, apperrors.NewForbidden("only administrators can grant the " + raw + " role")
		}
	}

	user, err := s.createUser(ctx, input.Name, input.Email, input.Password, role)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return s.issue(user)
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		auth.BurnCompare(password, s.bcryptCost)
		return nil, apperrors.NewUnauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("Invalid credentials")
	}
	return s.issue(user)
}

// ResolveIdentity implements auth.IdentityResolver against the directory.
func (s *AuthService) ResolveIdentity(ctx context.Context, userID string) (*domain.Identity, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, auth.ErrUnknownUser
	}
	if err != nil {
		return nil, err
	}
	identity := domain.IdentityOf(user)
	return &identity, nil
}

// EnsureAdmin creates the bootstrap administrator when configured and
// missing. An existing account with that email is left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		s.logger.Debug("admin bootstrap not configured")
		return nil
	}

	existing, err := s.users.GetByEmail(ctx, cfg.Email)
	if err == nil {
		if existing.Role != domain.RoleAdmin {
			s.logger.Warn("bootstrap admin email belongs to a non-admin account",
				zap.String("user_id", existing.ID), zap.String("role", string(existing.Role)))
		}
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	user, err := s.createUser(ctx, cfg.Name, cfg.Email, cfg.Password, domain.RoleAdmin)
	if err != nil {
		// Another replica may have won the race.
		if apperrors.HasCode(err, apperrors.CodeConflict) {
			return nil
		}
		return err
	}
	s.logger.Info("bootstrap admin created", zap.String("user_id", user.ID))
	return nil
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, apperrors.NewValidationError("name, email and password are required", nil)
	}

	hash, err := hashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, translate(err, "User")
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, exp, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: exp}, nil
}

// hashPassword reports an over-long password as invalid input.
func hashPassword(password string, cost int) (string, error) {
	hash, err := auth.HashPassword(password, cost)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes), nil)
	}
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return hash, nil
}
