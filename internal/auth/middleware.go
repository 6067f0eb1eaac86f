package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const identityKey = "auth_identity"

// ErrUnknownUser is returned by an IdentityResolver when the subject no
// longer exists.
var ErrUnknownUser = errors.New("unknown user")

// IdentityResolver re-reads the current identity of a token subject.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID string) (*domain.Identity, error)
}

// AuthMiddleware validates bearer tokens and stores the caller identity.
type AuthMiddleware struct {
	tokens   *TokenManager
	resolver IdentityResolver
}

// NewAuthMiddleware constructs middleware. When resolver is non-nil the
// token's role and name are replaced with the directory's current values.
func NewAuthMiddleware(tokens *TokenManager, resolver IdentityResolver) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, resolver: resolver}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}
	// Some clients persist the token JSON-encoded and send it quoted.
	raw := strings.Trim(strings.TrimSpace(parts[1]), `"`)
	if raw == "" {
		return apperrors.NewUnauthorized("missing token")
	}

	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		return apperrors.NewUnauthorized("invalid or expired token")
	}
	identity := claims.Identity()

	if m.resolver != nil {
		current, err := m.resolver.ResolveIdentity(c.UserContext(), identity.UserID)
		if err != nil {
			if errors.Is(err, ErrUnknownUser) {
				return apperrors.NewUnauthorized("user no longer exists")
			}
			return apperrors.NewInternalError(err)
		}
		identity = *current
	}

	c.Locals(identityKey, &identity)
	return c.Next()
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok
}
