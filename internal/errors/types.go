package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType defines the category of the error
type ErrorType string

const (
	ErrorTypeValidation          ErrorType = "VALIDATION_ERROR"
	ErrorTypeFetch               ErrorType = "FETCH_ERROR"
	ErrorTypeParse               ErrorType = "PARSE_ERROR"
	ErrorTypeClassification      ErrorType = "CLASSIFICATION_ERROR"
	ErrorTypePositionUnavailable ErrorType = "POSITION_UNAVAILABLE"
	ErrorTypeNotFound            ErrorType = "NOT_FOUND_ERROR"
	ErrorTypeBusy                ErrorType = "BUSY_ERROR"
	ErrorTypeInternal            ErrorType = "INTERNAL_ERROR"
)

// AppError represents a structured error for the application
type AppError struct {
	Type          ErrorType `json:"type"`
	Message       string    `json:"message"`
	StatusCode    int       `json:"-"`
	ErrorCode     string    `json:"errorCode"`
	IsOperational bool      `json:"-"`
	Recovery      string    `json:"recoverySuggestion,omitempty"`
	Err           error     `json:"-"`

	// UpstreamStatus is the HTTP status returned by a remote dependency, if any.
	UpstreamStatus int `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Code returns the application-specific error code
func (e *AppError) Code() string {
	return e.ErrorCode
}

// RecoverySuggestion returns the suggestion on how to recover from the error
func (e *AppError) RecoverySuggestion() string {
	return e.Recovery
}

// IsRetryable determines if the operation that caused the error should be retried
func (e *AppError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeFetch, ErrorTypePositionUnavailable, ErrorTypeBusy:
		return true
	case ErrorTypeClassification:
		// A rejected image or bad key will not get better on its own.
		if e.UpstreamStatus == 0 {
			return true
		}
		if e.UpstreamStatus == http.StatusNotImplemented {
			return false
		}
		return e.UpstreamStatus == http.StatusTooManyRequests || e.UpstreamStatus >= 500
	default:
		return false
	}
}

// As returns the AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}

// NewValidationError creates a new validation error (400)
func NewValidationError(message string, errorCode string, suggestion string) *AppError {
	return &AppError{
		Type:          ErrorTypeValidation,
		Message:       message,
		StatusCode:    http.StatusBadRequest,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      suggestion,
	}
}

// NewNotFoundError creates a new not found error (404)
func NewNotFoundError(message string, errorCode string, suggestion string) *AppError {
	return &AppError{
		Type:          ErrorTypeNotFound,
		Message:       message,
		StatusCode:    http.StatusNotFound,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      suggestion,
	}
}

// NewBusyError creates a new error for an operation that is already running (409)
func NewBusyError(operation string) *AppError {
	return &AppError{
		Type:          ErrorTypeBusy,
		Message:       fmt.Sprintf("%s is already in progress", operation),
		StatusCode:    http.StatusConflict,
		ErrorCode:     "OPERATION_IN_PROGRESS",
		IsOperational: true,
		Recovery:      "Wait for the running operation to finish and try again.",
	}
}

// NewFetchError creates a new catalog transport error (502)
func NewFetchError(message string, errorCode string, upstreamStatus int, err error) *AppError {
	return &AppError{
		Type:           ErrorTypeFetch,
		Message:        message,
		StatusCode:     http.StatusBadGateway,
		ErrorCode:      errorCode,
		IsOperational:  true,
		Recovery:       "Check that the catalog endpoint is reachable and try again later.",
		Err:            err,
		UpstreamStatus: upstreamStatus,
	}
}

// NewParseError creates a new catalog payload error (502)
func NewParseError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeParse,
		Message:       message,
		StatusCode:    http.StatusBadGateway,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      "Fix the catalog document; retrying will return the same result.",
		Err:           err,
	}
}

// NewClassificationError creates a new vision service error (502)
func NewClassificationError(message string, errorCode string, upstreamStatus int, err error) *AppError {
	return &AppError{
		Type:           ErrorTypeClassification,
		Message:        message,
		StatusCode:     http.StatusBadGateway,
		ErrorCode:      errorCode,
		IsOperational:  true,
		Recovery:       "Try again with a clearer photo or wait for the vision service to be available.",
		Err:            err,
		UpstreamStatus: upstreamStatus,
	}
}

// NewPositionUnavailableError creates a new geolocation error (503)
func NewPositionUnavailableError(message string, errorCode string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypePositionUnavailable,
		Message:       message,
		StatusCode:    http.StatusServiceUnavailable,
		ErrorCode:     errorCode,
		IsOperational: true,
		Recovery:      "Provide lat and lon explicitly or try again later.",
		Err:           err,
	}
}

// NewInternalError creates a new internal error (500)
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:          ErrorTypeInternal,
		Message:       message,
		StatusCode:    http.StatusInternalServerError,
		ErrorCode:     "INTERNAL_ERROR",
		IsOperational: false,
		Err:           err,
	}
}
