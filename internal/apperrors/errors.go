package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies the class of failure an AppError belongs to.
type ErrorCode string

const (
	// Request rejections. These never reach the review orchestrator.
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Review failures
	ErrCodeUpstreamFailed   ErrorCode = "UPSTREAM_FAILED"
	ErrCodeFileReviewFailed ErrorCode = "FILE_REVIEW_FAILED"
	ErrCodeSubmissionFailed ErrorCode = "SUBMISSION_FAILED"

	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application error with additional context
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"-"`
	Err        error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new application error
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCodeFor(code),
	}
}

// Wrap wraps an existing error with application context
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCodeFor(code),
		Err:        err,
	}
}

// Wrapf wraps an existing error with formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

func statusCodeFor(code ErrorCode) int {
	switch code {
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeUpstreamFailed, ErrCodeSubmissionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// Authentication rejects a webhook whose signature is missing or wrong.
func Authentication(message string) *AppError {
	return New(ErrCodeUnauthorized, message)
}

// Validation rejects a malformed triggering payload.
func Validation(message string) *AppError {
	return New(ErrCodeValidationFailed, message)
}

// Upstream marks a fatal failure fetching pull request data from the host.
func Upstream(err error, message string) *AppError {
	return Wrap(err, ErrCodeUpstreamFailed, message)
}

// FileReview marks a failure confined to a single file.
func FileReview(err error, filename string) *AppError {
	return Wrapf(err, ErrCodeFileReviewFailed, "review of %s failed", filename)
}

// Submission marks a failure posting the aggregate comment.
func Submission(err error) *AppError {
	return Wrap(err, ErrCodeSubmissionFailed, "failed to post review comment")
}

// Internal wraps an unexpected error.
func Internal(err error) *AppError {
	return Wrap(err, ErrCodeInternalError, "internal server error")
}
