package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrDuplicateEmail is returned when signing up with an email that is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUserNotFound is returned when no user record matches the given email.
	ErrUserNotFound = errors.New("user not found")
	// ErrIncorrectPassword is returned when the password does not match the stored hash.
	ErrIncorrectPassword = errors.New("incorrect password")
	// ErrUnauthorized is returned when a request carries no live session.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden is returned when an authenticated user lacks the required role.
	ErrForbidden = errors.New("access denied")
	// ErrSessionNotFound is returned when a session id is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")
)

// ValidationError describes the first rule an inbound payload violated.
type ValidationError struct {
	Field   string
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s (%s): %s", e.Field, e.Rule, e.Message)
}

// StorageError wraps a failure of the database or the session store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage wraps err as a StorageError for the given operation.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	// Inline marks user-correctable errors that are rendered next to the form
	// with a retry link instead of through the generic error page.
	Inline bool
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
// Storage and unknown errors collapse to a generic 500 so internals never reach the client.
func MapErrorToHTTP(err error) *HTTPError {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		return inline(http.StatusBadRequest, validationErr.Message, "VALIDATION_ERROR")
	case errors.Is(err, ErrDuplicateEmail):
		return inline(http.StatusConflict, "Email already registered.", "DUPLICATE_EMAIL")
	case errors.Is(err, ErrUserNotFound):
		return inline(http.StatusUnauthorized, "User not found.", "USER_NOT_FOUND")
	case errors.Is(err, ErrIncorrectPassword):
		return inline(http.StatusUnauthorized, "Incorrect password.", "INCORRECT_PASSWORD")
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrSessionNotFound):
		return NewHTTPError(http.StatusUnauthorized, "Not authenticated.", "UNAUTHORIZED")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, "Access denied.", "FORBIDDEN")
	default:
		return NewHTTPError(http.StatusInternalServerError, "Internal server error.", "INTERNAL_ERROR")
	}
}

func inline(statusCode int, message, code string) *HTTPError {
	e := NewHTTPError(statusCode, message, code)
	e.Inline = true
	return e
}
