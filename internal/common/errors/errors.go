// Package errors provides standardized error handling for the auto-apply engine.
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
	ErrCodeCredentialInvalid    ErrorCode = "CREDENTIAL_INVALID"
	ErrCodeCredentialUnresolved ErrorCode = "CREDENTIAL_UNRESOLVED"
	ErrCodeResetTokenExpired    ErrorCode = "RESET_TOKEN_EXPIRED"

	ErrCodeOptimizationFailed ErrorCode = "OPTIMIZATION_FAILED"
	ErrCodeSubmissionFailed   ErrorCode = "SUBMISSION_FAILED"
	ErrCodeRateLimitExceeded  ErrorCode = "RATE_LIMIT_EXCEEDED"

	ErrCodeDuplicateApplication ErrorCode = "DUPLICATE_APPLICATION"
	ErrCodeLedgerWriteFailed    ErrorCode = "LEDGER_WRITE_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodePostingUnavailable     ErrorCode = "POSTING_UNAVAILABLE"

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

// NewCredentialInvalidError creates a non-retryable credential error.
// Credential material is never included in details.
func NewCredentialInvalidError(platform string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCredentialInvalid,
		Message:   "Platform credentials could not be validated",
		Details:   fmt.Sprintf("platform: %s", platform),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResetTokenExpiredError creates a non-retryable reset token error.
func NewResetTokenExpiredError() *StandardError {
	return &StandardError{
		Code:      ErrCodeResetTokenExpired,
		Message:   "Reset token is expired, consumed or unknown",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewOptimizationFailedError creates a non-retryable optimizer error.
func NewOptimizationFailedError(jobID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOptimizationFailed,
		Message:   "Resume optimization failed",
		Details:   fmt.Sprintf("jobId: %s, error: %s", jobID, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionFailedError creates a non-retryable submission error.
func NewSubmissionFailedError(jobID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionFailed,
		Message:   "Application submission failed",
		Details:   fmt.Sprintf("jobId: %s, error: %s", jobID, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRateLimitExceededError creates a retryable rate limit error.
func NewRateLimitExceededError(key string, retryAfter time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeRateLimitExceeded,
		Message:   "Submission rate limit exceeded",
		Details:   fmt.Sprintf("key: %s, retryAfter: %s", key, retryAfter),
		Retryable: true,
		Metadata:  map[string]interface{}{"retryAfterMs": retryAfter.Milliseconds()},
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateApplicationError creates a non-retryable duplicate application error.
func NewDuplicateApplicationError(jobID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateApplication,
		Message:   "Application already recorded for this job and resume",
		Details:   fmt.Sprintf("jobId: %s", jobID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLedgerWriteFailedError creates a retryable ledger write error.
func NewLedgerWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLedgerWriteFailed,
		Message:   "Application ledger write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPostingUnavailableError creates a retryable posting lookup error.
func NewPostingUnavailableError(jobID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePostingUnavailable,
		Message:   "Job posting could not be fetched",
		Details:   fmt.Sprintf("jobId: %s, error: %s", jobID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError creates a non-retryable request validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
