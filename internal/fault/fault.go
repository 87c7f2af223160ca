// Package fault defines the errors the pickup workflow reports to its callers.
package fault

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is returned when the actor may not perform an action.
	// It is used for missing resources the actor could not see either.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a username or email is already taken.
	ErrConflict = errors.New("username or email already taken")

	// ErrInvalidAssignment is returned when the chosen staff is missing or not staff.
	ErrInvalidAssignment = errors.New("invalid staff assignment")

	// ErrInvalidTransition is returned when the current status forbids the action.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidCredentials is returned when login fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError collects per-field input problems.
type ValidationError struct {
	Fields map[string]string
}

// Add records a problem with a field. The first message per field wins.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// Err returns e if any field was recorded, nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HTTPStatus maps an error to the status code the JSON API responds with.
func HTTPStatus(err error) int {
	var verr *ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidAssignment):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-facing text for an error. Unknown errors are
// reported generically so internal details do not leak.
func Message(err error) string {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, ErrNotFound):
		return "Not found"
	case errors.Is(err, ErrConflict):
		return "Username or email already taken"
	case errors.Is(err, ErrInvalidAssignment):
		return "Invalid staff"
	case errors.Is(err, ErrInvalidTransition):
		return "That action is not allowed in the request's current status"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid credentials"
	default:
		return "Something went wrong"
	}
}
