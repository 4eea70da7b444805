package pipeline

import (
	"errors"
	"fmt"
)

// Common errors returned by pipeline operations
var (
	// ErrNotReady indicates the WebUI never answered within the probe budget
	ErrNotReady = errors.New("pipeline: webui not ready")

	// ErrNotLaunched indicates an operation that requires a running WebUI
	// was attempted before Start succeeded
	ErrNotLaunched = errors.New("pipeline: webui not launched")

	// ErrAlreadyLaunched indicates Start was called on a live launcher
	ErrAlreadyLaunched = errors.New("pipeline: webui already launched")

	// ErrToolMissing indicates a required binary could not be resolved or
	// installed
	ErrToolMissing = errors.New("pipeline: required tool missing")

	// ErrAPIKeyMissing indicates a pod API call requires an API key
	ErrAPIKeyMissing = errors.New("pipeline: pod api key missing")
)

// OpError represents an error from a pipeline operation
type OpError struct {
	// Op is the operation that failed
	Op Operation
	// Path is the file path, URL, or task name involved in the operation
	Path string
	// Err is the underlying error
	Err error
}

// Error returns a formatted error message
func (e *OpError) Error() string {
	return fmt.Sprintf("pipeline %s %q: %v", e.Op.String(), e.Path, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *OpError) Unwrap() error {
	return e.Err
}

// ExitCodeError reports a command that ran to completion with a non-zero
// exit status. It preserves the code so callers can propagate it.
type ExitCodeError struct {
	// Code is the process exit code
	Code int
}

// Error returns a formatted error message
func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// MultiError aggregates multiple errors from bulk operations
type MultiError struct {
	// Errors contains all accumulated errors
	Errors []error
}

// Error returns a summary of the accumulated errors
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors occurred", len(m.Errors))
}

// Add appends an error to the collection if it's not nil
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// Err returns nil if no errors occurred, otherwise returns the MultiError itself
func (m *MultiError) Err() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}
