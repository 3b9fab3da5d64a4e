// Package errors provides the application error type used across the export service.
// Errors carry a stable code that maps onto an HTTP status for API responses.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents application error codes
type ErrorCode string

const (
	// Input errors (1xxx)
	ErrCodeInternal      ErrorCode = "E1000"
	ErrCodeValidation    ErrorCode = "E1001"
	ErrCodeNotFound      ErrorCode = "E1002"
	ErrCodeUnsupported   ErrorCode = "E1003"
	ErrCodeUnauthorized  ErrorCode = "E1005"
	ErrCodeInvalidResult ErrorCode = "E1006"

	// Export errors (2xxx)
	ErrCodeExportFailed ErrorCode = "E2001"
	ErrCodeRenderFailed ErrorCode = "E2002"
	ErrCodeImageInvalid ErrorCode = "E2003"
	ErrCodeEmitFailed   ErrorCode = "E2004"

	// Upstream errors (3xxx)
	ErrCodeUpstream        ErrorCode = "E3001"
	ErrCodeUpstreamTimeout ErrorCode = "E3002"
	ErrCodeUpstreamStatus  ErrorCode = "E3003"

	// Configuration errors (6xxx)
	ErrCodeConfigNotFound ErrorCode = "E6001"
	ErrCodeConfigInvalid  ErrorCode = "E6002"
	ErrCodeConfigParse    ErrorCode = "E6003"
)

// Exit codes for application startup failures
const (
	// ExitCodeConfigValidation indicates configuration validation failure
	ExitCodeConfigValidation = 2
)

// AppError represents an application-level error with code and context
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
	Details any       `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for the error
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeValidation, ErrCodeUnsupported, ErrCodeInvalidResult:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeUpstream, ErrCodeUpstreamStatus:
		return http.StatusBadGateway
	case ErrCodeUpstreamTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with AppError
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// ErrInternal creates an internal server error
func ErrInternal(message string, err error) *AppError {
	return Wrap(ErrCodeInternal, message, err)
}

// ErrValidation creates a validation error
func ErrValidation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// ErrNotFound creates a not found error
func ErrNotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

// ErrUnsupportedFormat reports an export format nobody registered.
func ErrUnsupportedFormat(format string) *AppError {
	return New(ErrCodeUnsupported, fmt.Sprintf("unsupported export format: %s", format))
}

// ErrExport wraps a renderer failure.
func ErrExport(message string, err error) *AppError {
	return Wrap(ErrCodeExportFailed, message, err)
}

// ErrUpstream wraps a failure talking to the analysis backend.
func ErrUpstream(message string, err error) *AppError {
	return Wrap(ErrCodeUpstream, message, err)
}

// IsAppError reports whether err is, or wraps, an AppError
func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// AsAppError finds the first AppError in err's chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
