// Package errors provides structured error handling for colbridge.
//
// Errors carry a category (ErrorType), a message, optional key/value details,
// an optional cause and the call stack at the point of creation. Construction
// contract violations are returned as errors; indexing faults and typed-getter
// mismatches on hot read paths are raised as panics whose value is an *Error,
// and Recover turns those back into returned errors at a consumer boundary.
package errors

import (
	"errors"
	"runtime"

	stringpool "github.com/ajitpratap0/colbridge/pkg/strings"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeValidation represents construction contract violations
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeOutOfRange represents an ordinal or row offset outside its bounds
	ErrorTypeOutOfRange ErrorType = "out_of_range"
	// ErrorTypeTypeMismatch represents a typed accessor called on a column of another type
	ErrorTypeTypeMismatch ErrorType = "type_mismatch"
	// ErrorTypeCapability represents an unsupported type or format
	ErrorTypeCapability ErrorType = "capability"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeFile represents file operation errors
	ErrorTypeFile ErrorType = "file"
	// ErrorTypeData represents malformed input data
	ErrorTypeData ErrorType = "data"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return stringpool.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return stringpool.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: stringpool.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// OutOfRange builds the error raised for an index outside [0, length).
func OutOfRange(what string, index, length int) *Error {
	return &Error{
		Type:    ErrorTypeOutOfRange,
		Message: stringpool.Sprintf("%s %d out of range [0, %d)", what, index, length),
		Details: map[string]interface{}{what: index, "length": length},
		Stack:   captureStack(2),
	}
}

// TypeMismatch builds the error raised when a typed getter does not match the
// declared type of a column.
func TypeMismatch(getter, declared string) *Error {
	return &Error{
		Type:    ErrorTypeTypeMismatch,
		Message: stringpool.Sprintf("%s called on %s column", getter, declared),
		Details: map[string]interface{}{"getter": getter, "declared": declared},
		Stack:   captureStack(2),
	}
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// Recover converts a panic carrying an out-of-range or type-mismatch *Error
// into a returned error. It must be called directly by a deferred statement:
//
//	func consume(b *vectorized.Batch) (err error) {
//		defer errors.Recover(&err)
//		...
//	}
//
// Any other panic value is re-raised.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(*Error); ok && (e.Type == ErrorTypeOutOfRange || e.Type == ErrorTypeTypeMismatch) {
		*errp = e
		return
	}
	panic(r)
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
