// Package errors provides standardized error handling for the bot.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Transient transport failures, retried by the API client.
	ErrCodeTelegramTimeout          ErrorCode = "TELEGRAM_TIMEOUT"
	ErrCodeTelegramConnectionFailed ErrorCode = "TELEGRAM_CONNECTION_FAILED"

	// Remote rejections surfaced by the polling loop.
	ErrCodeTelegramUnauthorized ErrorCode = "TELEGRAM_UNAUTHORIZED"
	ErrCodeTelegramConflict     ErrorCode = "TELEGRAM_CONFLICT"
	ErrCodeTelegramRejected     ErrorCode = "TELEGRAM_REJECTED"

	// Persistence failures, degraded gracefully.
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeStoreWriteFailed ErrorCode = "STORE_WRITE_FAILED"
	ErrCodeStoreQueryFailed ErrorCode = "STORE_QUERY_FAILED"

	// Malformed user input, recovered inside the conversation engine.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewTelegramTimeoutError creates a retryable transport error.
func NewTelegramTimeoutError(method string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTelegramTimeout,
		Message:   fmt.Sprintf("Telegram API timeout (%s)", method),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTelegramConnectionError creates a retryable transport error.
func NewTelegramConnectionError(method string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTelegramConnectionFailed,
		Message:   fmt.Sprintf("Telegram API connection failed (%s)", method),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTelegramUnauthorizedError creates a fatal credential error.
func NewTelegramUnauthorizedError(description string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTelegramUnauthorized,
		Message:   "Telegram rejected the bot token",
		Details:   description,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTelegramConflictError creates a self-healing duplicate-consumer error.
func NewTelegramConflictError(description string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTelegramConflict,
		Message:   "Another consumer is bound to the update feed",
		Details:   description,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreUnavailableError signals the submission store was never initialized.
func NewStoreUnavailableError() *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   "Submission store is not available",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreWriteError creates a retryable persistence error.
func NewStoreWriteError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreWriteFailed,
		Message:   "Failed to persist submission",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreQueryError creates a retryable persistence error.
func NewStoreQueryError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreQueryFailed,
		Message:   "Submission store query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError creates a non-retryable input validation error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Submission payload failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification Helpers
// ==========================

// IsRetryable reports whether an error carries a retryable StandardError.
func IsRetryable(err error) bool {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Retryable
	}
	return false
}

// CodeOf extracts the ErrorCode from an error, or "" for foreign errors.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Code
	}
	return ""
}
