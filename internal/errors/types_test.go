package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := &AppError{
		Message: "something went wrong",
	}
	if err.Error() != "something went wrong" {
		t.Errorf("expected 'something went wrong', got %v", err.Error())
	}

	wrappedErr := errors.New("underlying error")
	errWithWrap := &AppError{
		Message: "failed operation",
		Err:     wrappedErr,
	}
	expected := "failed operation: underlying error"
	if errWithWrap.Error() != expected {
		t.Errorf("expected %q, got %q", expected, errWithWrap.Error())
	}
	if !errors.Is(errWithWrap, wrappedErr) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestAppError_Code(t *testing.T) {
	err := &AppError{
		ErrorCode: "ERR_CODE_123",
	}
	if err.Code() != "ERR_CODE_123" {
		t.Errorf("expected ERR_CODE_123, got %v", err.Code())
	}
}

func TestAppError_IsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want bool
	}{
		{
			name: "fetch error is retryable",
			err:  NewFetchError("catalog unreachable", "CATALOG_UNREACHABLE", 0, nil),
			want: true,
		},
		{
			name: "parse error is never retryable",
			err:  NewParseError("bad catalog", "CATALOG_INVALID_JSON", nil),
			want: false,
		},
		{
			name: "classification 503 is retryable",
			err:  NewClassificationError("vision down", "VISION_UPSTREAM", http.StatusServiceUnavailable, nil),
			want: true,
		},
		{
			name: "classification 429 is retryable",
			err:  NewClassificationError("slow down", "VISION_UPSTREAM", http.StatusTooManyRequests, nil),
			want: true,
		},
		{
			name: "classification 401 is not retryable",
			err:  NewClassificationError("bad key", "VISION_UPSTREAM", http.StatusUnauthorized, nil),
			want: false,
		},
		{
			name: "busy is retryable",
			err:  NewBusyError("catalog refresh"),
			want: true,
		},
		{
			name: "validation error is not retryable",
			err:  NewValidationError("bad input", "INVALID", ""),
			want: false,
		},
		{
			name: "not found is not retryable",
			err:  NewNotFoundError("empty", "EMPTY", ""),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.IsRetryable(); got != tt.want {
				t.Errorf("AppError.IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsType(t *testing.T) {
	base := NewParseError("bad catalog", "CATALOG_INVALID_JSON", nil)
	wrapped := fmt.Errorf("load recipes: %w", base)

	if !IsType(wrapped, ErrorTypeParse) {
		t.Error("expected wrapped error to be a parse error")
	}
	if IsType(wrapped, ErrorTypeFetch) {
		t.Error("parse error reported as fetch error")
	}
	if IsType(errors.New("plain"), ErrorTypeParse) {
		t.Error("plain error reported as parse error")
	}

	appErr, ok := As(wrapped)
	if !ok || appErr != base {
		t.Errorf("As() = %v, %v; want the original AppError", appErr, ok)
	}
}

func TestNewBusyError(t *testing.T) {
	err := NewBusyError("catalog refresh")
	if err.Type != ErrorTypeBusy {
		t.Errorf("expected TypeBusy, got %v", err.Type)
	}
	if err.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %v", err.StatusCode)
	}
	if err.Message != "catalog refresh is already in progress" {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestNewPositionUnavailableError(t *testing.T) {
	underlying := errors.New("timeout")
	err := NewPositionUnavailableError("no position", "POSITION_TIMEOUT", underlying)
	if err.Type != ErrorTypePositionUnavailable {
		t.Errorf("expected TypePositionUnavailable, got %v", err.Type)
	}
	if err.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %v", err.StatusCode)
	}
	if err.Err != underlying {
		t.Error("underlying error not correctly wrapped")
	}
}
