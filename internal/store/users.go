package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/ewaste/internal/fault"
	"github.com/erazemk/ewaste/internal/model"
)

const userColumns = `id, username, email, password_hash, role, name, address, phone, created_at`

// CreateUser inserts a new user. A duplicate username or email yields
// fault.ErrConflict.
func CreateUser(ctx context.Context, db DBTX, u *model.User) (*model.User, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, role, name, address, phone)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, string(u.Role),
		nullString(u.Name), nullString(u.Address), nullString(u.Phone),
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("creating user: %w", fault.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db DBTX, id int64) (*model.User, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByLogin returns the user whose username or email equals identifier.
func GetUserByLogin(ctx context.Context, db DBTX, identifier string) (*model.User, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE username = ? OR email = ? ORDER BY id LIMIT 1`, identifier, identifier,
	)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by login: %w", err)
	}
	return u, nil
}

// UserExists reports whether any user already has the username or the email.
func UserExists(ctx context.Context, db DBTX, username, email string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ? OR email = ?`, username, email,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking user existence: %w", err)
	}
	return count > 0, nil
}

// ListUsersByRole returns all users with the given role.
func ListUsersByRole(ctx context.Context, db DBTX, role model.Role) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY id`, string(role),
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func scanUser(s rowScanner) (*model.User, error) {
	u := &model.User{}
	var role string
	var name, address, phone sql.NullString
	if err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role,
		&name, &address, &phone, &u.CreatedAt); err != nil {
		return nil, err
	}
	r, err := model.ParseRole(role)
	if err != nil {
		return nil, err
	}
	u.Role = r
	u.Name = name.String
	u.Address = address.String
	u.Phone = phone.String
	return u, nil
}
