// Package errors defines coded domain errors returned by services.
//
// Stores speak in sentinel errors (pkg/platform/sentinel); services translate
// those into a Code that callers can branch on without string matching:
//
//	if dErrors.HasCode(err, dErrors.CodeNotFound) { ... }
package errors

import (
	"errors"
)

// Code classifies a domain error.
type Code string

const (
	CodeNotFound            Code = "not_found"
	CodeValidation          Code = "validation_error"
	CodeBadRequest          Code = "bad_request"
	CodeInvalidInput        Code = "invalid_input"
	CodeConflict            Code = "conflict"
	CodeInvariantViolation  Code = "invariant_violation"
	CodeGenerationExhausted Code = "generation_exhausted"
	CodeTimeout             Code = "timeout"
	CodeInternal            Code = "internal_error"
)

// Error is a domain error carrying a Code, a safe message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error without an underlying cause.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
// Wrapping a nil error returns nil.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the code of the outermost domain error in the chain,
// or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether any domain error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}
