// Package errors provides typed errors for covsubmit
package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// ErrConfig indicates a configuration error
	ErrConfig ErrorType = iota
	// ErrInput indicates a coverage report could not be read (InputUnavailable)
	ErrInput
	// ErrUpload indicates the uploader rejected a report (UploadRejected)
	ErrUpload
	// ErrHelper indicates the uploader helper binary could not be started
	ErrHelper
	// ErrValidation indicates an input validation error
	ErrValidation
	// ErrTimeout indicates a timeout occurred
	ErrTimeout
)

// Process exit codes
const (
	ExitSuccess     = 0   // Every report was submitted
	ExitSubmitError = 1   // At least one report failed
	ExitUsageError  = 2   // Configuration or usage error
	ExitTimeout     = 101 // Execution timed out
)

// SubmitError is the base error type for all covsubmit errors
type SubmitError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error returns the error message
func (e *SubmitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", errorTypeString(e.Type), e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", errorTypeString(e.Type), e.Message)
}

// Unwrap returns the underlying cause
func (e *SubmitError) Unwrap() error {
	return e.Cause
}

// New creates a new SubmitError
func New(errType ErrorType, message string, cause error) *SubmitError {
	return &SubmitError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *SubmitError) WithContext(key string, value interface{}) *SubmitError {
	e.Context[key] = value
	return e
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	var submitErr *SubmitError
	if err == nil {
		return false
	}
	if errors.As(err, &submitErr) {
		return submitErr.Type == errType
	}
	return false
}

// TypeOf returns the type of the outermost SubmitError in the chain.
func TypeOf(err error) (ErrorType, bool) {
	var submitErr *SubmitError
	if !errors.As(err, &submitErr) {
		return 0, false
	}
	return submitErr.Type, true
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	errType, ok := TypeOf(err)
	if !ok {
		return ExitSubmitError
	}
	switch errType {
	case ErrConfig, ErrValidation:
		return ExitUsageError
	case ErrTimeout:
		return ExitTimeout
	default:
		return ExitSubmitError
	}
}

// Kind returns the short label used in logs and metrics for an error type.
func Kind(err error) string {
	errType, ok := TypeOf(err)
	if !ok {
		return "unknown"
	}
	switch errType {
	case ErrInput:
		return "input_unavailable"
	case ErrUpload, ErrHelper, ErrTimeout:
		return "upload_rejected"
	default:
		return "unknown"
	}
}

func errorTypeString(et ErrorType) string {
	switch et {
	case ErrConfig:
		return "CONFIG"
	case ErrInput:
		return "INPUT"
	case ErrUpload:
		return "UPLOAD"
	case ErrHelper:
		return "HELPER"
	case ErrValidation:
		return "VALIDATION"
	case ErrTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// Convenience functions for common errors

// ConfigError creates a configuration error
func ConfigError(message string, cause error) *SubmitError {
	return New(ErrConfig, message, cause)
}

// InputError creates an InputUnavailable error
func InputError(message string, cause error) *SubmitError {
	return New(ErrInput, message, cause)
}

// UploadError creates an UploadRejected error
func UploadError(message string, cause error) *SubmitError {
	return New(ErrUpload, message, cause)
}

// HelperError creates a helper process error
func HelperError(message string, cause error) *SubmitError {
	return New(ErrHelper, message, cause)
}

// ValidationError creates a validation error
func ValidationError(message string, cause error) *SubmitError {
	return New(ErrValidation, message, cause)
}

// TimeoutError creates a timeout error
func TimeoutError(message string, cause error) *SubmitError {
	return New(ErrTimeout, message, cause)
}
