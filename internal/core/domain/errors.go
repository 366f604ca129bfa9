package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// DomainError represents a business error with a structured error code.
//
// Codes follow GT-<AREA>-<NNNN>. For codes whose last four digits start with
// 4 or 5, the first three digits are the HTTP status (GT-TODO-4040 is a 404).
type DomainError struct {
	Code    string // Error code (e.g., "GT-TODO-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// HTTPStatus maps the error code to an HTTP status code.
func (e *DomainError) HTTPStatus() int {
	return CodeToHTTPStatus(e.Code)
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// CodeToHTTPStatus maps an error code to an HTTP status code.
// Argument errors are client errors; anything unrecognized is a 500.
func CodeToHTTPStatus(code string) int {
	if strings.HasPrefix(code, "GT-ARG-") {
		return http.StatusBadRequest
	}
	idx := strings.LastIndex(code, "-")
	if idx < 0 || len(code)-idx-1 != 4 {
		return http.StatusInternalServerError
	}
	n, err := strconv.Atoi(code[idx+1:])
	if err != nil {
		return http.StatusInternalServerError
	}
	if status := n / 10; status >= 400 && status <= 599 {
		return status
	}
	return http.StatusInternalServerError
}

// ============================================================================
// Todo Errors (TODO)
// ============================================================================

var (
	// ErrTodoNotFound indicates the requested todo does not exist.
	ErrTodoNotFound = NewDomainError("GT-TODO-4040", "todo not found")

	// ErrTodoValidation indicates todo data validation failed.
	ErrTodoValidation = NewDomainError("GT-TODO-4001", "todo validation failed")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("GT-SYS-5000", "internal server error")

	// ErrStorageError indicates a storage layer error.
	ErrStorageError = NewDomainError("GT-SYS-5001", "storage error")

	// ErrServiceUnavailable indicates the service is temporarily unavailable.
	ErrServiceUnavailable = NewDomainError("GT-SYS-5030", "service unavailable")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("GT-SYS-4000", "bad request")

	// ErrRouteNotFound indicates no route matched the request.
	ErrRouteNotFound = NewDomainError("GT-SYS-4040", "route not found")

	// ErrMethodNotAllowed indicates the route exists but not for this method.
	ErrMethodNotAllowed = NewDomainError("GT-SYS-4050", "method not allowed")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("GT-SYS-4290", "too many requests")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("GT-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("GT-ARG-1002", "missing required argument")
)
