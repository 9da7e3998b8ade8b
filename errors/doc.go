// Package errors defines the engine's structured error type.
//
// Every error the engine itself raises is an *AppError carrying an
// ErrorCode. Codes split into item-level failures (ITEM_FAILED,
// ITEM_PANIC, TIMEOUT, CANCELED, COMPUTE_*), which travel through a run as
// failed outcomes, and fatal codes (INVALID_STAGE, INVALID_CONFIG), which
// abort it. Use CodeOf and IsFatal to inspect an error chain.
package errors
