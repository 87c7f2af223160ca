package model

import (
	"fmt"
	"time"
)

// Role is the closed set of account roles.
type Role string

// Roles.
const (
	RoleHousehold Role = "household"
	RoleStaff     Role = "staff"
	RoleAdmin     Role = "admin"
)

// ParseRole converts a stored role string into a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleHousehold, RoleStaff, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// User is an account. Role is fixed at registration.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Name         string    `json:"name,omitempty"`
	Address      string    `json:"address,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// DisplayName returns the full name if set, otherwise the username.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// MinUsernameLength is the minimum accepted username length.
const MinUsernameLength = 3

// ValidatePassword checks the password length policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
