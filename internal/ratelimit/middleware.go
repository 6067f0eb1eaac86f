package ratelimit

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// Options configures the fiber middleware.
type Options struct {
	// Scope namespaces the key so different route groups count separately.
	Scope string
	// FailOpen admits requests when the limiter backend errors.
	FailOpen bool
	// OnReject is called for every rejected request.
	OnReject func(scope string)
}

// Middleware enforces limiter per client IP.
func Middleware(limiter Limiter, logger *zap.Logger, opts Options) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := opts.Scope + ":" + c.IP()

		decision, err := limiter.Allow(c.UserContext(), key)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("scope", opts.Scope), zap.Error(err))
			if opts.FailOpen {
				return c.Next()
			}
			return apperrors.NewInternalError(err)
		}

		if !decision.Allowed {
			seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			if opts.OnReject != nil {
				opts.OnReject(opts.Scope)
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(seconds))
			return apperrors.NewRateLimited("Too many requests. Please try again shortly.", seconds)
		}

		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		return c.Next()
	}
}
