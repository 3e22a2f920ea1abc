// Package errors provides error handling utilities.
package errors

import (
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeInput indicates an input validation error
	TypeInput Type = "INPUT_ERROR"

	// TypeParsing indicates a parsing error
	TypeParsing Type = "PARSING_ERROR"

	// TypeEmptyCatalog indicates no package matched the catalog type filter
	TypeEmptyCatalog Type = "EMPTY_CATALOG"

	// TypeNoMatchingPrice indicates a price selection step yielded zero candidates
	TypeNoMatchingPrice Type = "NO_MATCHING_PRICE"

	// TypeInvalidPerformanceType indicates a performance type that is neither iops nor tier
	TypeInvalidPerformanceType Type = "INVALID_PERFORMANCE_TYPE"

	// TypeTransport indicates a remote API call failure
	TypeTransport Type = "TRANSPORT_ERROR"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"

	// TypeNotFound indicates a resource not found error
	TypeNotFound Type = "NOT_FOUND"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e *Error) Is(t Type) bool {
	return e.Type == t
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(errType Type, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, t Type) bool {
	if e, ok := err.(*Error); ok {
		return e.Type == t
	}
	return false
}

// Input creates an input error
func Input(message string) *Error {
	return New(TypeInput, message)
}

// Parsing creates a parsing error
func Parsing(message string, cause error) *Error {
	return Wrap(TypeParsing, message, cause)
}

// EmptyCatalog creates an empty-catalog error for a package type key
func EmptyCatalog(typeKey string) *Error {
	return Newf(TypeEmptyCatalog, "no package matches type %s", typeKey).
		WithContext("package_type", typeKey)
}

// NoMatchingPrice creates a no-matching-price error for a category
func NoMatchingPrice(categoryCode string) *Error {
	return Newf(TypeNoMatchingPrice, "no standard price matches category %s", categoryCode).
		WithContext("category", categoryCode)
}

// InvalidPerformanceType creates an invalid-performance-type error
func InvalidPerformanceType(performanceType string) *Error {
	return Newf(TypeInvalidPerformanceType, "invalid performance type %q, must be either: iops or tier", performanceType).
		WithContext("performance_type", performanceType)
}

// Transport creates a transport error for a remote call
func Transport(operation string, cause error) *Error {
	return Wrapf(TypeTransport, cause, "remote call %s failed", operation).
		WithContext("operation", operation)
}

// Config creates a configuration error
func Config(message string, cause error) *Error {
	return Wrap(TypeConfig, message, cause)
}

// NotFound creates a not found error
func NotFound(resourceType, identifier string) *Error {
	return Newf(TypeNotFound, "%s not found: %s", resourceType, identifier)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
