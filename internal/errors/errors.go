package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Faultline error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"    // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"          // 404
	ErrFrameOutOfRange  ErrorCode = "FRAME_OUT_OF_RANGE" // 404
	ErrUniqueConstraint ErrorCode = "UNIQUE_CONSTRAINT"  // 409
	ErrEventTooLarge    ErrorCode = "EVENT_TOO_LARGE"    // 413
	ErrMalformedEvent   ErrorCode = "MALFORMED_EVENT"    // 422
	ErrCancelled        ErrorCode = "CANCELLED"          // 499
	ErrInternal         ErrorCode = "INTERNAL"           // 500
)

// FaultlineError represents a structured error with code, status, and details.
type FaultlineError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *FaultlineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *FaultlineError {
	return &FaultlineError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when an event cannot be found.
func NewNotFound(id string) *FaultlineError {
	return &FaultlineError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("event not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewFrameOutOfRange creates a 404 error for a frame index beyond the event's stack.
func NewFrameOutOfRange(index, frames int) *FaultlineError {
	return &FaultlineError{
		Code:    ErrFrameOutOfRange,
		Status:  404,
		Message: fmt.Sprintf("frame index %d out of range (event has %d frames)", index, frames),
		Details: map[string]any{"index": index, "frames": frames},
	}
}

// NewEventTooLarge creates a 413 error when an event payload exceeds the size limit.
func NewEventTooLarge(max, actual int) *FaultlineError {
	return &FaultlineError{
		Code:    ErrEventTooLarge,
		Status:  413,
		Message: fmt.Sprintf("event payload exceeds maximum size: %d bytes (max %d)", actual, max),
		Details: map[string]any{"max_bytes": max, "actual_bytes": actual},
	}
}

// NewMalformedEvent creates a 422 error when an event payload cannot be decoded.
func NewMalformedEvent(err error) *FaultlineError {
	msg := "malformed event payload"
	if err != nil {
		msg = fmt.Sprintf("malformed event payload: %v", err)
	}
	return &FaultlineError{
		Code:    ErrMalformedEvent,
		Status:  422,
		Message: msg,
	}
}

// NewCancelled creates a 499 error for operations aborted by context cancellation.
func NewCancelled(operation string) *FaultlineError {
	return &FaultlineError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("operation cancelled: %s", operation),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message is generic; the original error is kept in Details for logging.
func NewInternal(err error) *FaultlineError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &FaultlineError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error is (or wraps) a FaultlineError with the given code.
func Is(err error, code ErrorCode) bool {
	var fErr *FaultlineError
	if stderrors.As(err, &fErr) {
		return fErr.Code == code
	}
	return false
}
