// Package account registers users, checks credentials and seeds the first
// admin.
package account

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"math/big"
	"net/mail"
	"strings"

	"github.com/erazemk/ewaste/internal/auth"
	"github.com/erazemk/ewaste/internal/fault"
	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/store"
)

// RegisterInput is a self-registration form.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Name            string
	Address         string
	Phone           string
}

// Validate checks the form and returns a *fault.ValidationError.
func (in *RegisterInput) Validate() error {
	var v fault.ValidationError

	if len(strings.TrimSpace(in.Username)) < model.MinUsernameLength {
		v.Add("username", fmt.Sprintf("must be at least %d characters", model.MinUsernameLength))
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != strings.TrimSpace(in.Email) {
		v.Add("email", "invalid email address")
	}
	if err := model.ValidatePassword(in.Password); err != nil {
		v.Add("password", err.Error())
	}
	if in.Password != in.ConfirmPassword {
		v.Add("confirm_password", "passwords do not match")
	}

	return v.Err()
}

// Register creates a household or staff account. An existing username or
// email yields fault.ErrConflict and nothing is created.
func Register(ctx context.Context, db *sql.DB, in RegisterInput, role model.Role) (*model.User, error) {
	if role != model.RoleHousehold && role != model.RoleStaff {
		return nil, fmt.Errorf("self-registration as %q: %w", role, fault.ErrUnauthorized)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	exists, err := store.UserExists(ctx, db, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fault.ErrConflict
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user, err := store.CreateUser(ctx, db, &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Name:         strings.TrimSpace(in.Name),
		Address:      strings.TrimSpace(in.Address),
		Phone:        strings.TrimSpace(in.Phone),
	})
	if err != nil {
		return nil, err
	}

	slog.Info("user registered", "user", user.Username, "role", user.Role)
	return user, nil
}

// Authenticate returns the user whose username or email is identifier and
// whose password matches.
func Authenticate(ctx context.Context, db *sql.DB, identifier, password string) (*model.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, fault.ErrInvalidCredentials
	}

	user, err := store.GetUserByLogin(ctx, db, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, fault.ErrInvalidCredentials
	}
	return user, nil
}

// EnsureAdmin creates an admin account with a generated password if no admin
// exists yet. The password is returned only when the account was created.
func EnsureAdmin(ctx context.Context, db *sql.DB, username, email string) (string, bool, error) {
	admins, err := store.ListUsersByRole(ctx, db, model.RoleAdmin)
	if err != nil {
		return "", false, err
	}
	if len(admins) > 0 {
		return "", false, nil
	}

	password, err := GeneratePassword(16)
	if err != nil {
		return "", false, fmt.Errorf("generating password: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", false, err
	}

	if _, err := store.CreateUser(ctx, db, &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Name:         "System Admin",
	}); err != nil {
		return "", false, fmt.Errorf("creating admin user: %w", err)
	}

	return password, true, nil
}

// GeneratePassword creates a random password of the given length.
func GeneratePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
