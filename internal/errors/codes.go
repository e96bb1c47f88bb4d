package errors

import (
	"fmt"
)

// Code represents a specific error type for ontology operations.
type Code string

const (
	// CodeInputTooShort indicates an extraction input below the minimum length.
	// Recoverable: the caller should skip the document or request more text.
	CodeInputTooShort Code = "INPUT_TOO_SHORT"
	// CodeUnknownScope indicates a store operation referenced required-elements
	// configuration for a scope that was never registered.
	CodeUnknownScope Code = "UNKNOWN_SCOPE"
	// CodeConcurrentMutation indicates a mutation was attempted while another
	// mutation was in flight on the same store.
	CodeConcurrentMutation Code = "CONCURRENT_MUTATION"
	// CodeCompressionInvariant indicates compression would have removed the last
	// concept in a required category.
	CodeCompressionInvariant Code = "COMPRESSION_INVARIANT"
	// CodeInvalidArgument indicates invalid input parameters.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	// CodeRendererUnavailable indicates the external renderer is not configured.
	CodeRendererUnavailable Code = "RENDERER_UNAVAILABLE"
)

// Error represents a structured error for ontology operations.
type Error struct {
	Code    Code
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Convenience constructors for the error taxonomy.

// InputTooShort creates an input-too-short error.
func InputTooShort(length, minimum int) *Error {
	return &Error{
		Code:    CodeInputTooShort,
		Message: fmt.Sprintf("document length %d below minimum %d", length, minimum),
	}
}

// UnknownScope creates an unknown-scope error.
func UnknownScope(scope string) *Error {
	return &Error{
		Code:    CodeUnknownScope,
		Message: fmt.Sprintf("no required elements registered for scope: %s", scope),
	}
}

// ConcurrentMutation creates a concurrent-mutation error.
func ConcurrentMutation(op string) *Error {
	return &Error{
		Code:    CodeConcurrentMutation,
		Message: fmt.Sprintf("another mutation is in flight, %s rejected", op),
	}
}

// CompressionInvariant creates a compression-invariant error naming the
// category that was at risk.
func CompressionInvariant(category, subcategory string) *Error {
	e := &Error{
		Code:    CodeCompressionInvariant,
		Message: fmt.Sprintf("compression would remove the last concept in required category %s/%s", category, subcategory),
	}
	return e.WithContext("category", category).WithContext("subcategory", subcategory)
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *Error {
	return &Error{Code: CodeInvalidArgument, Message: msg}
}

// RendererUnavailable creates a renderer unavailable error.
func RendererUnavailable(msg string) *Error {
	return &Error{Code: CodeRendererUnavailable, Message: msg}
}

// Wrap wraps an existing error with a code and message.
func Wrap(cause error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code Code) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from any error, or empty when the error is
// not an *Error.
func GetCode(err error) Code {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
