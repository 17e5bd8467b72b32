// Package errors provides a lightweight structured error type (StreamError)
// for category-based classification of topology lifecycle failures.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a StreamError for classification
type ErrorCategory string

const (
	// Node lifecycle errors
	CategoryInitialization ErrorCategory = "initialization"
	CategoryShutdown       ErrorCategory = "shutdown"
	CategoryLifecycle      ErrorCategory = "lifecycle"

	// Topology wiring errors
	CategoryTopology ErrorCategory = "topology"

	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// External system integration errors
	CategorySource  ErrorCategory = "source"
	CategoryMetrics ErrorCategory = "metrics"

	// Runtime and infrastructure errors
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// StreamError is a structured error with category, node attribution, and cause
type StreamError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Node     string        `json:"node,omitempty"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for StreamError
type ContextFields map[string]any

// Error implements the error interface
func (e *StreamError) Error() string {
	switch {
	case e.Node != "" && e.Cause != nil:
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Node, e.Message, e.Cause)
	case e.Node != "":
		return fmt.Sprintf("%s (%s): %s", e.Category, e.Node, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Cause)
	default:
		return fmt.Sprintf("%s: %s", e.Category, e.Message)
	}
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *StreamError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *StreamError) WithContext(key string, value any) *StreamError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new StreamError
func New(category ErrorCategory, severity ErrorSeverity, message string) *StreamError {
	return &StreamError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new StreamError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *StreamError {
	return &StreamError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if se, ok := err.(*StreamError); ok {
		return se.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a StreamError
func GetCategory(err error) ErrorCategory {
	if se, ok := err.(*StreamError); ok {
		return se.Category
	}
	return CategoryInternal
}

// GetNode extracts the attributed node name from an error, if any
func GetNode(err error) string {
	if se, ok := err.(*StreamError); ok {
		return se.Node
	}
	return ""
}
