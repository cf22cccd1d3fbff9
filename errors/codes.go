package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Item-level errors. These are values in the outcome stream.
const (
	// ErrCodeItemFailed indicates the transformation returned an error for one item.
	ErrCodeItemFailed ErrorCode = "ITEM_FAILED"
	// ErrCodeItemPanicked indicates the transformation panicked for one item.
	ErrCodeItemPanicked ErrorCode = "ITEM_PANICKED"
	// ErrCodeSourceFailed indicates the upstream sequence failed to produce an item.
	ErrCodeSourceFailed ErrorCode = "SOURCE_FAILED"
)

// Fatal errors. A pipeline that reports one of these makes no further progress.
const (
	// ErrCodeProtocolViolation indicates a broken sequencing invariant.
	ErrCodeProtocolViolation ErrorCode = "PROTOCOL_VIOLATION"
	// ErrCodeWorkerLost indicates a worker goroutine exited outside its loop.
	ErrCodeWorkerLost ErrorCode = "WORKER_LOST"
	// ErrCodeStateInitFailed indicates a worker could not create its state.
	ErrCodeStateInitFailed ErrorCode = "STATE_INIT_FAILED"
)

// Usage errors
const (
	// ErrCodeInvalidConfig indicates a configuration value is out of range.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeInvalidInput indicates an argument or element is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Caller-layered errors
const (
	// ErrCodeTimeout indicates an operation exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var fatalCodes = map[ErrorCode]bool{
	ErrCodeProtocolViolation: true,
	ErrCodeWorkerLost:        true,
	ErrCodeStateInitFailed:   true,
}

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:      true,
	ErrCodeSourceFailed: false,
	ErrCodeItemFailed:   false,
}

// IsFatalCode returns true if the code poisons the pipeline that reports it.
func IsFatalCode(code ErrorCode) bool {
	return fatalCodes[code]
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
