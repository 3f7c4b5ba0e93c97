// Package apperror defines the error taxonomy shared by every layer of the service.
// Each failure a request can hit is mapped to exactly one ErrorType before it reaches
// the HTTP boundary, and the ErrorType alone decides the status code. The response
// body only ever carries Message; the wrapped Err stays server-side for logging.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType enumerates the categories of application errors.
type ErrorType int

const (
	// UnknownError is for unspecified errors. It is reported as an internal error.
	UnknownError ErrorType = iota
	// ValidationError is a client-correctable payload problem (400).
	ValidationError
	// ConflictError is a duplicate registration (409).
	ConflictError
	// AuthError is a failed credential check (401).
	AuthError
	// InternalError is any unexpected failure in hashing, storage or signing (500).
	InternalError
	// ConfigError is a startup misconfiguration. It never reaches a client.
	ConfigError
)

// Fixed user-visible messages. Only validation and conflict errors carry
// case-specific text; the other kinds always use one of these.
const (
	MsgInternal           = "Internal server error"
	MsgInvalidCredentials = "Invalid email or password"
	MsgAlreadyRegistered  = "User already registered"
)

// AppError is the application's error value.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error // underlying cause, never serialised
}

// Error includes the underlying cause so logs keep the full chain.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code for the error type.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case ValidationError:
		return http.StatusBadRequest
	case ConflictError:
		return http.StatusConflict
	case AuthError:
		return http.StatusUnauthorized
	default:
		// InternalError, ConfigError and UnknownError all surface as 500.
		return http.StatusInternalServerError
	}
}

// NewAppError creates a new AppError of the given type.
func NewAppError(errType ErrorType, message string, underlyingError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     underlyingError,
	}
}

// NewValidationError creates a ValidationError carrying the validator's message.
func NewValidationError(message string, underlyingError error) *AppError {
	return NewAppError(ValidationError, message, underlyingError)
}

// NewConflictError creates a ConflictError.
func NewConflictError(message string, underlyingError error) *AppError {
	return NewAppError(ConflictError, message, underlyingError)
}

// NewAuthError creates an AuthError. The message is always MsgInvalidCredentials so
// that an unknown email and a wrong password are indistinguishable to the caller.
func NewAuthError(underlyingError error) *AppError {
	return NewAppError(AuthError, MsgInvalidCredentials, underlyingError)
}

// NewInternalError creates an InternalError with the fixed generic message.
func NewInternalError(underlyingError error) *AppError {
	return NewAppError(InternalError, MsgInternal, underlyingError)
}

// NewConfigError creates a ConfigError.
func NewConfigError(message string, underlyingError error) *AppError {
	return NewAppError(ConfigError, message, underlyingError)
}

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Message string `json:"message" example:"Invalid email or password"`
}

// ToResponse converts an AppError to its wire representation. Internal and config
// errors are always rendered with MsgInternal.
func (e *AppError) ToResponse() ErrorResponse {
	if e.StatusCode() == http.StatusInternalServerError {
		return ErrorResponse{Message: MsgInternal}
	}
	return ErrorResponse{Message: e.Message}
}

// FromError finds an *AppError anywhere in err's chain.
// Errors are usually wrapped on their way up (fmt.Errorf with %w, oops), so a
// plain type assertion would miss them; errors.As walks the Unwrap chain.
func FromError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries an *AppError of the given type.
func Is(err error, errType ErrorType) bool {
	appErr, ok := FromError(err)
	return ok && appErr.Type == errType
}

// The helpers below are shorthands for Is, mostly for tests.

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool { return Is(err, ValidationError) }

// IsConflictError checks if an error is a ConflictError.
func IsConflictError(err error) bool { return Is(err, ConflictError) }

// IsAuthError checks if an error is an AuthError.
func IsAuthError(err error) bool { return Is(err, AuthError) }

// IsInternalError checks if an error is an InternalError.
func IsInternalError(err error) bool { return Is(err, InternalError) }
