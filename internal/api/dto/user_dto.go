package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// UserRegisterRequest payload for open registration. Role may only be
// "customer" or empty.
type UserRegisterRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=customer agent admin"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CustomerCreateRequest payload for admin-created customers.
type CustomerCreateRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// UserUpdateRequest is the admin edit; absent fields are left unchanged.
type UserUpdateRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=120"`
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
	Role     *string `json:"role"`
}

// ToDomain converts the request into a domain update.
func (r UserUpdateRequest) ToDomain() domain.UserUpdate {
	update := domain.UserUpdate{Name: r.Name, Email: r.Email, Password: r.Password}
	if r.Role != nil {
		role := domain.Role(*r.Role)
		update.Role = &role
	}
	return update
}

// ProfileUpdateRequest is the self-service edit.
type ProfileUpdateRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=120"`
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
}

// ToDomain converts the request into a domain update.
func (r ProfileUpdateRequest) ToDomain() domain.UserUpdate {
	return domain.UserUpdate{Name: r.Name, Email: r.Email, Password: r.Password}
}

// UserResponse is the public view of an account; the password hash never
// leaves the service.
type UserResponse struct {
	ID        string      `json:"_id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NewUserResponses maps a slice of users.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message   string       `json:"message"`
	NewUser   UserResponse `json:"newUser"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}
