// Package errors defines the agent's closed error taxonomy. Every failure the
// link loop reacts to carries one of the codes in codes.go.
package errors

import (
	"errors"
	"fmt"
)

// Standard library helpers, re-exported so callers need a single import.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

type appError struct {
	code    ErrorCode
	message string
	err     error
}

func (e *appError) Error() string {
	msg := e.message
	if msg == "" {
		msg = GetErrorMessage(e.code)
	}
	if e.err != nil {
		return fmt.Sprintf("%s: %v", msg, e.err)
	}
	return msg
}

func (e *appError) Code() ErrorCode { return e.code }

func (e *appError) WithMessage(msg string) Error {
	return &appError{code: e.code, message: msg, err: e.err}
}

func (e *appError) Unwrap() error { return e.err }

// Is matches another Error with the same code, so sentinel comparisons like
// errors.Is(err, errors.New(ErrNotConnected)) work through wrapping.
func (e *appError) Is(target error) bool {
	var t Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code() == e.code
}

// New creates an Error with the given code.
func New(code ErrorCode) Error {
	return &appError{code: code}
}

// Wrap creates an Error with the given code around a cause.
func Wrap(code ErrorCode, err error) Error {
	return &appError{code: code, err: err}
}

// Wrapf is Wrap with a formatted message replacing the default one.
func Wrapf(code ErrorCode, err error, format string, args ...any) Error {
	return &appError{code: code, message: fmt.Sprintf(format, args...), err: err}
}

// CodeOf returns the code of the outermost Error in err's chain, or "" when
// err carries none.
func CodeOf(err error) ErrorCode {
	var e Error
	if errors.As(err, &e) {
		return e.Code()
	}
	return ""
}

// HasCode reports whether any Error in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if e, ok := err.(Error); ok && e.Code() == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}
