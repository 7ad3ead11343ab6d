package domainerrors

import "errors"

// Code is the kind of a business or infrastructure failure, independent of
// the transport that reports it.
type Code string

const (
	CodeValidation Code = "validation"
	CodeConflict   Code = "conflict"
	CodeState      Code = "state"
	CodeNotFound   Code = "not_found"
	CodeStorage    Code = "storage"
)

// Error carries a stable Code alongside a message and an optional cause.
// Sentinels built with New match by identity under errors.Is; use HasCode to
// match by kind.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches code and msg to err. When err already carries a code the
// original code wins.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		code = existing.Code
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// Storage wraps a persistence failure.
func Storage(err error, msg string) error {
	return Wrap(err, CodeStorage, msg)
}

// HasCode reports whether any error in err's chain carries code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf returns the outermost code in err's chain, or "" for uncoded errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// ErrStaleWrite is returned by versioned updates that lost a race.
var ErrStaleWrite = New(CodeConflict, "record was modified concurrently")
