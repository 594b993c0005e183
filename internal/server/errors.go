package server

import (
	"errors"
	"fmt"

	"github.com/ifitclub/clubstats/internal/club"
	"github.com/ifitclub/clubstats/internal/store"
	"github.com/ifitclub/clubstats/internal/workers"
)

// ErrorCode classifies MCP tool errors for structured error handling
type ErrorCode string

const (
	// ErrInvalidInput indicates invalid or malformed input parameters
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound ErrorCode = "NOT_FOUND"
	// ErrDatabaseError indicates a database operation failed
	ErrDatabaseError ErrorCode = "DATABASE_ERROR"
	// ErrInternalError indicates an unexpected internal error
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
	// ErrConflict indicates the request collides with work already running
	ErrConflict ErrorCode = "CONFLICT"
)

// ToolError represents a structured tool error with code, message, and optional details
type ToolError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *ToolError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidInputError creates an error for invalid input parameters
func NewInvalidInputError(msg string) *ToolError {
	return &ToolError{Code: ErrInvalidInput, Message: msg}
}

// NewInvalidInputErrorWithDetails creates an error for invalid input with additional details
func NewInvalidInputErrorWithDetails(msg, details string) *ToolError {
	return &ToolError{Code: ErrInvalidInput, Message: msg, Details: details}
}

// NewNotFoundErrorWithID creates an error for a missing resource with its identifier
func NewNotFoundErrorWithID(resource string, id interface{}) *ToolError {
	return &ToolError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Details: fmt.Sprintf("id=%v", id),
	}
}

// NewDatabaseErrorWithContext creates a database error with additional context
func NewDatabaseErrorWithContext(operation string, err error) *ToolError {
	return &ToolError{
		Code:    ErrDatabaseError,
		Message: fmt.Sprintf("Database %s failed", operation),
		Details: err.Error(),
	}
}

// NewInternalError creates an error for unexpected internal failures
func NewInternalError(msg string) *ToolError {
	return &ToolError{Code: ErrInternalError, Message: msg}
}

// NewInternalErrorWithCause creates an internal error wrapping another error
func NewInternalErrorWithCause(msg string, err error) *ToolError {
	return &ToolError{
		Code:    ErrInternalError,
		Message: msg,
		Details: err.Error(),
	}
}

// NewConflictError creates an error for a request that duplicates running work
func NewConflictError(msg, details string) *ToolError {
	return &ToolError{Code: ErrConflict, Message: msg, Details: details}
}

// toolError maps service errors onto a ToolError. operation names the
// failing step for database errors.
func toolError(operation string, athleteID int64, err error) *ToolError {
	var te *ToolError
	switch {
	case errors.As(err, &te):
		return te
	case errors.Is(err, club.ErrAthleteNotFound), errors.Is(err, store.ErrNotFound):
		return NewNotFoundErrorWithID("athlete", athleteID)
	case errors.Is(err, club.ErrInvalidInput):
		return NewInvalidInputErrorWithDetails("invalid argument", err.Error())
	case errors.Is(err, workers.ErrSyncInProgress):
		return NewConflictError("a sync is already running for this athlete", err.Error())
	case errors.Is(err, workers.ErrQueueFull):
		return NewInternalErrorWithCause("sync queue is full, try again shortly", err)
	default:
		return NewDatabaseErrorWithContext(operation, err)
	}
}
