package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Caller-misuse errors. These are protocol violations, never data-quality issues.
var (
	ErrJobNotFound           = fmt.Errorf("job not found: %w", ErrNotFound)
	ErrJobNotCompleted       = errors.New("job results not ready")
	ErrRecordIndexOutOfRange = fmt.Errorf("record index out of range: %w", ErrInvalidInput)
)

// Error codes carried by AppError.
const (
	CodeJobNotFound     = "JOB_NOT_FOUND"
	CodeJobNotCompleted = "JOB_NOT_COMPLETED"
	CodeIndexOutOfRange = "INDEX_OUT_OF_RANGE"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeConfig          = "CONFIG_ERROR"
	CodeInternal        = "INTERNAL"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func JobNotFoundError(jobID string) error {
	return NewAppError(CodeJobNotFound, fmt.Sprintf("no job with id %q", jobID), ErrJobNotFound)
}

func JobNotCompletedError(jobID, status string) error {
	return NewAppError(CodeJobNotCompleted, fmt.Sprintf("job %q is %s", jobID, status), ErrJobNotCompleted)
}

func IndexOutOfRangeError(index, count int) error {
	return NewAppError(CodeIndexOutOfRange, fmt.Sprintf("index %d outside [0,%d)", index, count), ErrRecordIndexOutOfRange)
}

func InvalidInputErrorf(format string, args ...any) error {
	return NewAppError(CodeInvalidInput, fmt.Sprintf(format, args...), ErrInvalidInput)
}

// ErrorCode returns the AppError code in err's chain, or CodeInternal.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// ErrorMessage returns the AppError message in err's chain, or err.Error().
func ErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
