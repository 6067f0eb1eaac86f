package domain

import "time"

// Role governs which operations a user may perform.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleAdmin    Role = "admin"
)

// ParseRole validates a role string. Empty input is not a role.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleCustomer, RoleAgent, RoleAdmin:
		return Role(raw), true
	default:
		return "", false
	}
}

// IsStaff reports whether the role works tickets rather than files them.
func (r Role) IsStaff() bool {
	return r == RoleAgent || r == RoleAdmin
}

// User is a customer, agent or admin account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserUpdate carries optional field changes; nil leaves a field untouched.
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
	Role     *Role
}

// Identity is the caller derived from a verified session token.
type Identity struct {
	UserID string
	Name   string
	Email  string
	Role   Role
}

// IdentityOf snapshots a user into a session identity.
func IdentityOf(u *User) Identity {
	return Identity{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
