package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork      ErrorType = "network"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeHTTPStatus   ErrorType = "http_status"
	ErrorTypeAccessDenied ErrorType = "access_denied"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeDecode       ErrorType = "decode"
	ErrorTypeParsing      ErrorType = "parsing"
	ErrorTypeResolution   ErrorType = "resolution"
	ErrorTypeFilesystem   ErrorType = "filesystem"
	ErrorTypeConfig       ErrorType = "config"
	ErrorTypeUnknown      ErrorType = "unknown"
)

// Class tells a caller what to do with an error: try again, give up on the
// current item, or abort the enclosing operation.
type Class int

const (
	ClassRetryable Class = iota
	ClassTerminal
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassRetryable:
		return "retryable"
	case ClassTerminal:
		return "terminal"
	default:
		return "fatal"
	}
}

// Error represents a pipeline error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Class returns the handling class for the error's type.
func (e *Error) Class() Class {
	return ClassForType(e.Type)
}

// New creates a typed error.
func New(t ErrorType, code int, format string, args ...interface{}) *Error {
	return &Error{Type: t, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a typed error around cause.
func Wrap(t ErrorType, cause error, format string, args ...interface{}) *Error {
	msg := fmt.Sprintf(format, args...)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &Error{Type: t, Message: msg, Err: cause}
}

// FromStatusCode maps a non-2xx HTTP status to a typed error.
func FromStatusCode(statusCode int, url string) *Error {
	switch statusCode {
	case 403:
		return New(ErrorTypeAccessDenied, statusCode, "access denied when retrieving %s", url)
	case 404:
		return New(ErrorTypeNotFound, statusCode, "resource not found: %s", url)
	default:
		return New(ErrorTypeHTTPStatus, statusCode, "unexpected status code %d from %s", statusCode, url)
	}
}

// ClassForType checks how an error type should be handled
func ClassForType(errorType ErrorType) Class {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeHTTPStatus, ErrorTypeDecode:
		return ClassRetryable
	case ErrorTypeAccessDenied, ErrorTypeNotFound, ErrorTypeResolution:
		return ClassTerminal
	default:
		return ClassFatal
	}
}

// ClassOf classifies any error. Untyped errors are fatal so that unmodelled
// failures surface instead of being retried.
func ClassOf(err error) Class {
	var typed *Error
	if stderrors.As(err, &typed) {
		return typed.Class()
	}
	return ClassFatal
}

// TypeOf returns the error type, or ErrorTypeUnknown for untyped errors.
func TypeOf(err error) ErrorType {
	var typed *Error
	if stderrors.As(err, &typed) {
		return typed.Type
	}
	return ErrorTypeUnknown
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	return err != nil && ClassOf(err) == ClassRetryable
}

// IsTerminal checks if an error ends processing of the current item only.
func IsTerminal(err error) bool {
	return err != nil && ClassOf(err) == ClassTerminal
}

// Is reports whether err carries the given type.
func Is(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}
