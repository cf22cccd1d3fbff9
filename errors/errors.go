package errors

import (
	stderrors "errors"
	"fmt"
)

// Detail keys set by the constructors in this package.
const (
	DetailSeq    = "seq"
	DetailWorker = "worker"
	DetailPanic  = "panic"
	DetailStack  = "stack"
	DetailField  = "field"
)

// AppError is the unified error type of the library.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Fatal marks errors that poison the pipeline reporting them.
	Fatal bool `json:"fatal"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
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

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
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

// New creates a new AppError, deriving Fatal and Retryable from the code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Fatal:     IsFatalCode(code),
		Retryable: IsRetryableCode(code),
	}
}

// --- Item-level constructors ---

// ItemFailed wraps an error returned by a transformation for item seq.
func ItemFailed(seq uint64, worker int, cause error) *AppError {
	return New(ErrCodeItemFailed, fmt.Sprintf("item %d failed", seq)).
		WithCause(cause).
		WithDetails(map[string]any{DetailSeq: seq, DetailWorker: worker})
}

// ItemPanicked records a recovered panic raised while transforming item seq.
func ItemPanicked(seq uint64, worker int, value any, stack []byte) *AppError {
	err := New(ErrCodeItemPanicked, fmt.Sprintf("item %d panicked: %v", seq, value)).
		WithDetails(map[string]any{DetailSeq: seq, DetailWorker: worker, DetailPanic: value})
	if len(stack) > 0 {
		err.Details[DetailStack] = string(stack)
	}
	if cause, ok := value.(error); ok {
		err.Cause = cause
	}
	return err
}

// SourceFailed wraps an error returned by the upstream sequence at position seq.
func SourceFailed(seq uint64, cause error) *AppError {
	return New(ErrCodeSourceFailed, fmt.Sprintf("source failed at item %d", seq)).
		WithCause(cause).
		WithDetail(DetailSeq, seq)
}

// --- Fatal constructors ---

// ProtocolViolation reports a broken sequencing invariant.
func ProtocolViolation(format string, args ...any) *AppError {
	return New(ErrCodeProtocolViolation, fmt.Sprintf(format, args...))
}

// WorkerLost reports a worker goroutine that stopped outside its loop.
func WorkerLost(worker int, cause error) *AppError {
	return New(ErrCodeWorkerLost, fmt.Sprintf("worker %d exited unexpectedly", worker)).
		WithCause(cause).
		WithDetail(DetailWorker, worker)
}

// StateInitFailed reports a worker whose state factory returned an error.
func StateInitFailed(worker int, cause error) *AppError {
	return New(ErrCodeStateInitFailed, fmt.Sprintf("worker %d could not create its state", worker)).
		WithCause(cause).
		WithDetail(DetailWorker, worker)
}

// --- Usage constructors ---

// InvalidConfig creates an error for a configuration field that is out of range.
func InvalidConfig(field, reason string) *AppError {
	err := New(ErrCodeInvalidConfig, fmt.Sprintf("invalid config: %s", reason))
	if field != "" {
		err.WithDetail(DetailField, field)
	}
	return err
}

// Validation creates an INVALID_CONFIG error with a preformatted message.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidConfig, message)
}

// InvalidInput creates an error for an invalid argument or element.
func InvalidInput(field, reason string) *AppError {
	err := New(ErrCodeInvalidInput, fmt.Sprintf("invalid input: %s", reason))
	if field != "" {
		err.WithDetail(DetailField, field)
	}
	return err
}

// Timeout creates an error for an operation that exceeded its deadline.
func Timeout(operation string) *AppError {
	return New(ErrCodeTimeout, fmt.Sprintf("%s timed out", operation)).
		WithDetail("operation", operation)
}

// Internal creates an error for an unexpected condition.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "an unexpected error occurred").WithCause(cause)
}

// --- Inspection ---

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

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}

// IsFatal reports whether err poisons the pipeline that returned it.
func IsFatal(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Fatal
}

// SequenceOf returns the sequence number recorded on an item-level error.
func SequenceOf(err error) (uint64, bool) {
	appErr, ok := AsAppError(err)
	if !ok || appErr.Details == nil {
		return 0, false
	}
	seq, ok := appErr.Details[DetailSeq].(uint64)
	return seq, ok
}
