package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Item-level failures. These travel inside an outcome and never abort a run.
const (
	// ErrCodeItemFailed is the generic code for a transform that returned an error.
	ErrCodeItemFailed ErrorCode = "ITEM_FAILED"
	// ErrCodeItemPanic indicates a transform panicked while processing one item.
	ErrCodeItemPanic ErrorCode = "ITEM_PANIC"
	// ErrCodeTimeout indicates a transform did not finish within its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeCanceled indicates the run context was canceled before the item settled.
	ErrCodeCanceled ErrorCode = "CANCELED"
)

// Compute backend failures (whole batch).
const (
	// ErrCodeComputeFailed indicates the compute backend returned an error for the batch.
	ErrCodeComputeFailed ErrorCode = "COMPUTE_FAILED"
	// ErrCodeComputeUnavailable indicates the compute backend reported itself unavailable.
	ErrCodeComputeUnavailable ErrorCode = "COMPUTE_UNAVAILABLE"
)

// Fatal errors. These abort a run and are returned to the caller.
const (
	// ErrCodeInvalidStage indicates a stage descriptor could not be turned into a runnable stage.
	ErrCodeInvalidStage ErrorCode = "INVALID_STAGE"
	// ErrCodeInvalidConfig indicates the engine configuration failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeInternal indicates an unexpected engine error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:            true,
	ErrCodeComputeFailed:      true,
	ErrCodeComputeUnavailable: true,
	ErrCodeItemFailed:         false,
	ErrCodeItemPanic:          false,
}

var fatalCodes = map[ErrorCode]bool{
	ErrCodeInvalidStage:  true,
	ErrCodeInvalidConfig: true,
	ErrCodeInternal:      true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// IsFatalCode returns true if the error code aborts a pipeline run.
func IsFatalCode(code ErrorCode) bool {
	return fatalCodes[code]
}
