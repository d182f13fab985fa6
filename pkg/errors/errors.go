// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling with rich context for the
// agentic pipeline. Error codes map one-to-one onto the skill error taxonomy:
// validation, execution, timeout, routing, and notifier-delivery failures.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode classifies pipeline errors for monitoring and recovery.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates skill input validation failed.
	// The caller can recover by correcting the input.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeExecution indicates a skill's internal step failed.
	// Retry is at the caller's discretion, never automatic.
	CodeExecution ErrorCode = "EXECUTION_ERROR"

	// CodeTimeout indicates a skill invocation exceeded its deadline.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeRouting indicates a message recipient could not be resolved.
	// Fatal for that message; never retried automatically.
	CodeRouting ErrorCode = "ROUTING_ERROR"

	// CodeNotifierDelivery indicates the human-alert channel failed.
	// This is the one error allowed to propagate past the skill boundary:
	// a swallowed notification failure is a swallowed gate.
	CodeNotifierDelivery ErrorCode = "NOTIFIER_DELIVERY"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound ErrorCode = "NOT_FOUND"
)

// AgenticError is a typed error with rich context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type AgenticError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]any
	Recoverable bool
}

// Error implements the error interface.
func (e *AgenticError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *AgenticError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *AgenticError) MarshalJSON() ([]byte, error) {
	type Alias AgenticError
	return json.Marshal(&struct {
		Message     string `json:"message"`
		Code        string `json:"code"`
		Err         string `json:"error,omitempty"`
		Recoverable bool   `json:"recoverable"`
		*Alias
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Err:         fmt.Sprintf("%v", e.Err),
		Recoverable: e.Recoverable,
		Alias:       (*Alias)(e),
	})
}

// New creates a new AgenticError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *AgenticError {
	return &AgenticError{
		Code:    code,
		Message: msg,
		Err:     cause,
		Context: make(map[string]any),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *AgenticError) WithContext(key string, value any) *AgenticError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *AgenticError) WithRecoverable(recoverable bool) *AgenticError {
	e.Recoverable = recoverable
	return e
}

// AsAgenticError attempts to convert an error to an AgenticError.
// Returns the error unchanged if it already is one, or wraps it as internal.
func AsAgenticError(err error) *AgenticError {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*AgenticError); ok {
		return ae
	}
	return New(CodeInternal, "wrapped error", err)
}

// Kind maps an error code to the wire-level error_kind reported in skill
// output metadata.
func (e *AgenticError) Kind() string {
	switch e.Code {
	case CodeInvalidInput:
		return "validation"
	case CodeTimeout:
		return "timeout"
	case CodeRouting:
		return "routing"
	case CodeNotifierDelivery:
		return "notifier"
	default:
		return "execution"
	}
}
