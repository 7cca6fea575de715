// Package errors provides standardized error handling for the analysis pipeline.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Input validation (rejected before any external call)
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// External text service errors (per-call)
	ErrCodeGenerationTimeout ErrorCode = "GENERATION_TIMEOUT"
	ErrCodeAuthError         ErrorCode = "AUTH_ERROR"
	ErrCodeRateLimited       ErrorCode = "RATE_LIMITED"
	ErrCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"

	// Stage-level errors
	ErrCodeNoSourcesFound ErrorCode = "NO_SOURCES_FOUND"
	ErrCodeStageFailed    ErrorCode = "STAGE_FAILED"

	// Run-level
	ErrCodeRunCancelled ErrorCode = "RUN_CANCELLED"

	// Collaborators
	ErrCodePersistenceFailed ErrorCode = "PERSISTENCE_FAILED"
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

// NewInvalidInputError creates a non-retryable input validation error.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid role input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationTimeoutError creates a retryable text service timeout error.
func NewGenerationTimeoutError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationTimeout,
		Message:   "Text service call timed out",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthError creates a non-retryable provider authentication error.
func NewAuthError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthError,
		Message:   "Text service authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRateLimitedError creates a retryable provider rate limit error.
func NewRateLimitedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRateLimited,
		Message:   "Text service rate limit exceeded",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedResponseError creates a retryable structured-output validation error.
func NewMalformedResponseError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedResponse,
		Message:   "Text service returned an invalid response shape",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoSourcesFoundError creates a non-retryable retrieval error for a role pair
// that produced zero usable narratives.
func NewNoSourcesFoundError(currentRole, targetRole string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoSourcesFound,
		Message:   "No transition narratives found",
		Details:   fmt.Sprintf("currentRole: %s, targetRole: %s", currentRole, targetRole),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStageFailedError tags a run-level failure with its originating stage.
// The cause is reduced to its error code category, never raw provider text.
func NewStageFailedError(stage string, cause error) *StandardError {
	details := "unknown cause"
	var stdErr *StandardError
	if errors.As(cause, &stdErr) {
		details = string(stdErr.Code)
	}
	return &StandardError{
		Code:      ErrCodeStageFailed,
		Message:   fmt.Sprintf("Pipeline stage '%s' failed", stage),
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"stage": stage},
		Timestamp: time.Now().UTC(),
	}
}

// NewCancelledError marks a user-initiated cancellation. Not an error
// condition for reporting purposes, but surfaces through Result.
func NewCancelledError(stage string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRunCancelled,
		Message:   "Analysis run cancelled",
		Details:   fmt.Sprintf("stage: %s", stage),
		Retryable: false,
		Metadata:  map[string]interface{}{"stage": stage},
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceFailedError creates a retryable artifact persistence error.
func NewPersistenceFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailed,
		Message:   "Artifact bundle persistence failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the recommended per-call retry count.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeRateLimited, ErrCodePersistenceFailed:
		return 3

	case ErrCodeGenerationTimeout:
		return 2

	case ErrCodeMalformedResponse:
		return 1 // One stricter re-prompt, then drop the item

	default:
		return 0 // Validation and stage-level errors: no retry
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// FailedStage extracts the originating stage from a stage failure, if any.
func FailedStage(err error) string {
	var stdErr *StandardError
	if !errors.As(err, &stdErr) || stdErr.Metadata == nil {
		return ""
	}
	if stage, ok := stdErr.Metadata["stage"].(string); ok {
		return stage
	}
	return ""
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INPUT"):
		return "VALIDATION"
	case strings.Contains(codeStr, "GENERATION") || strings.Contains(codeStr, "AUTH") ||
		strings.Contains(codeStr, "RATE") || strings.Contains(codeStr, "MALFORMED"):
		return "TEXT_SERVICE"
	case strings.Contains(codeStr, "SOURCES") || strings.Contains(codeStr, "STAGE"):
		return "STAGE"
	case strings.Contains(codeStr, "CANCELLED"):
		return "CANCELLATION"
	case strings.Contains(codeStr, "PERSISTENCE"):
		return "STORAGE"
	default:
		return "OTHER"
	}
}
