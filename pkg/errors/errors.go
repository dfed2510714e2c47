// Package errors provides structured error types for the layout tester.
//
// Every failure a harness run can hit maps onto one [Code]. The codes mirror
// the failure taxonomy of a run:
//   - SCHEMA / FORMAT: the fixture document is malformed
//   - ENVIRONMENT: the pipeline sources or their runtime data are missing
//   - STAGE_FAILURE: a pipeline stage reported a failure value (non-fatal)
//   - OUT_OF_BOUNDS: a planned entity lies outside the area bounds (non-fatal)
//   - CONFLICT: two entities were planned onto the same cell
//   - SCRIPT_FAULT: the scripting runtime raised an error
//
// # Usage
//
//	err := errors.New(errors.ErrCodeSchema, "area_bounds is required")
//	if errors.Is(err, errors.ErrCodeSchema) {
//	    // Handle malformed fixture
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeEnvironment, origErr, "read %s", dir)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Fixture errors
	ErrCodeSchema Code = "SCHEMA"
	ErrCodeFormat Code = "FORMAT"

	// Setup errors
	ErrCodeEnvironment   Code = "ENVIRONMENT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeNotFound      Code = "NOT_FOUND"

	// Run errors
	ErrCodeStageFailure Code = "STAGE_FAILURE"
	ErrCodeOutOfBounds  Code = "OUT_OF_BOUNDS"
	ErrCodeConflict     Code = "CONFLICT"
	ErrCodeMissingCell  Code = "MISSING_CELL"
	ErrCodeScriptFault  Code = "SCRIPT_FAULT"
	ErrCodeTimeout      Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Coder is implemented by typed errors that carry a code without being an *Error.
type Coder interface {
	ErrorCode() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or a [Coder] with a matching code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c Coder
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Fatal reports whether a run that hit err must stop.
// Stage failures and out-of-bounds placements are reported but do not end a run.
func Fatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeStageFailure, ErrCodeOutOfBounds:
		return false
	}
	return err != nil
}

// As is errors.As from the standard library, re-exported so callers that
// import this package as "errors" can still match concrete error types.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCodeOr returns the code of err, or fallback when err carries none.
func GetCodeOr(err error, fallback Code) Code {
	if c := GetCode(err); c != "" {
		return c
	}
	return fallback
}
