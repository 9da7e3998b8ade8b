// Package errors provides the structured error type shared by the pipeline
// engine. Every error carries a machine-readable code that tells callers
// whether it is an item-level failure (carried inside an outcome) or a fatal
// error that aborted the run.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// AppError is the unified engine error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Fatal indicates the error aborted the whole pipeline run.
	Fatal bool `json:"fatal"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an *AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable and fatal detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
		Fatal:     IsFatalCode(code),
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first AppError in err's chain, or "" when
// there is none.
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}

// IsFatal reports whether err should abort a pipeline run.
func IsFatal(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Fatal
}

// --- Constructors ---

// InvalidStage creates a fatal error for a stage that cannot be constructed.
func InvalidStage(stage, reason string) *AppError {
	return New(ErrCodeInvalidStage, fmt.Sprintf("stage %q: %s", stage, reason)).
		WithDetail("stage", stage)
}

// InvalidConfig creates a fatal error for configuration that failed validation.
func InvalidConfig(reason string) *AppError {
	return New(ErrCodeInvalidConfig, reason)
}

// ItemFailed wraps a transform error with the stage that produced it.
func ItemFailed(stage string, cause error) *AppError {
	return New(ErrCodeItemFailed, fmt.Sprintf("stage %q item failed", stage)).
		WithDetail("stage", stage).
		WithCause(cause)
}

// ItemPanic creates an item-level error for a recovered transform panic.
func ItemPanic(stage string, recovered any) *AppError {
	return New(ErrCodeItemPanic, fmt.Sprintf("stage %q transform panicked: %v", stage, recovered)).
		WithDetail("stage", stage)
}

// Timeout creates an item-level error for a transform that exceeded its deadline.
func Timeout(operation string, after time.Duration) *AppError {
	return New(ErrCodeTimeout, fmt.Sprintf("%s timed out after %s", operation, after)).
		WithDetail("operation", operation)
}

// Canceled creates an item-level error for an item abandoned by cancellation.
func Canceled(cause error) *AppError {
	return New(ErrCodeCanceled, "processing canceled").WithCause(cause)
}

// ComputeFailed creates a batch-level error returned by a compute backend.
func ComputeFailed(backend string, cause error) *AppError {
	return New(ErrCodeComputeFailed, fmt.Sprintf("compute execution failed: %s", backend)).
		WithDetail("backend", backend).
		WithCause(cause)
}

// ComputeUnavailable creates a batch-level error for a backend that is not ready.
func ComputeUnavailable(backend string) *AppError {
	return New(ErrCodeComputeUnavailable, fmt.Sprintf("compute execution failed: backend %s is unavailable", backend)).
		WithDetail("backend", backend)
}

// Internal creates a fatal error for an unexpected engine condition.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "unexpected engine error").WithCause(cause)
}
