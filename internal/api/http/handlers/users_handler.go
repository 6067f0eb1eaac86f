package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// UsersHandler serves registration, login and the user directory.
type UsersHandler struct {
	auth  *service.AuthService
	users *service.UserService
	stats *service.StatsService
}

// NewUsersHandler creates handler.
func NewUsersHandler(authService *service.AuthService, userService *service.UserService, statsService *service.StatsService) *UsersHandler {
	return &UsersHandler{auth: authService, users: userService, stats: statsService}
}

// Register POST /user/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	result, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(authResponse("User registered successfully", result))
}

// Login POST /user/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(authResponse("User login successfully", result))
}

// UpdateProfile PUT /user/profile.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	var req dto.ProfileUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateProfile(c.UserContext(), identity(c), req.ToDomain())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Profile updated successfully", "user": dto.NewUserResponse(user)})
}

// Stats GET /user/stats.
func (h *UsersHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.stats.Compute(c.UserContext(), identity(c))
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// CreateCustomer POST /user/customer.
func (h *UsersHandler) CreateCustomer(c *fiber.Ctx) error {
	var req dto.CustomerCreateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	user, err := h.users.CreateCustomer(c.UserContext(), identity(c), service.CustomerInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":  "Customer created successfully",
		"customer": dto.NewUserResponse(user),
	})
}

// ListCustomers GET /user/customer/all. Customers by default; ?role=agent,
// ?role=admin or ?role=all widen the listing.
func (h *UsersHandler) ListCustomers(c *fiber.Ctx) error {
	var filter *domain.Role
	switch raw := c.Query("role", string(domain.RoleCustomer)); raw {
	case "all":
	default:
		role, ok := domain.ParseRole(raw)
		if !ok {
			return apperrors.NewValidationError("invalid role filter", map[string]any{"role": raw})
		}
		filter = &role
	}

	users, err := h.users.List(c.UserContext(), identity(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":   "Customers fetched successfully",
		"customers": dto.NewUserResponses(users),
	})
}

// UpdateUser PUT /user/customer/:id.
func (h *UsersHandler) UpdateUser(c *fiber.Ctx) error {
	var req dto.UserUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	user, err := h.users.Update(c.UserContext(), identity(c), c.Params("id"), req.ToDomain())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "User updated successfully", "user": dto.NewUserResponse(user)})
}

// DeleteUser DELETE /user/customer/:id.
func (h *UsersHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.users.Delete(c.UserContext(), identity(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

func authResponse(message string, result *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		Message:   message,
		NewUser:   dto.NewUserResponse(result.User),
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	}
}
