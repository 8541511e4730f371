package backend

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error codes
const (
	CodeValidation = "validation"
	CodeNotFound   = "not_found"
	CodeUnknown    = "unknown"
)

// Error is the structured failure returned by a Client.
type Error struct {
	Code    string
	Message string
	Hint    string
	Err     error
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

var ErrNotFound = &Error{Code: CodeNotFound, Message: "record not found"}

func NewValidationError(msg, hint string) *Error {
	return &Error{Code: CodeValidation, Message: msg, Hint: hint}
}

func NewUnknownError(err error, msg string) *Error {
	return &Error{Code: CodeUnknown, Message: msg, Err: err}
}

// Code returns the code of the *Error wrapped in err (CodeUnknown for foreign errors).
func Code(err error) string {
	var bErr *Error
	if errors.As(err, &bErr) {
		return bErr.Code
	}
	return CodeUnknown
}

func IsNotFound(err error) bool   { return err != nil && Code(err) == CodeNotFound }
func IsValidation(err error) bool { return err != nil && Code(err) == CodeValidation }
