package errors

import (
	stderrors "errors"
	"fmt"
)

// GenericMessage is shown to users in place of a fatal error's details.
const GenericMessage = "Something went wrong while processing your request; please try again later."

// UserError is an expected condition the user can act on, such as input that
// matches no syntax or a handle that does not exist. Message is displayed
// verbatim. Err optionally keeps the underlying cause, e.g. a *parser.ParseError
// whose position can be rendered against the input.
type UserError struct {
	Message string
	Err     error
}

// User creates a UserError from a format string.
func User(format string, args ...any) *UserError {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}

// UserWithCause creates a UserError that wraps cause.
func UserWithCause(cause error, format string, args ...any) *UserError {
	return &UserError{Message: fmt.Sprintf(format, args...), Err: cause}
}

func (e *UserError) Error() string {
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// FatalError is an unexpected failure such as file I/O or a broken internal
// invariant. Op names the operation that failed; Err is the cause.
type FatalError struct {
	Op  string
	Err error
}

// Fatal wraps err as a FatalError for operation op. A nil err yields nil.
func Fatal(op string, err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Op: op, Err: err}
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// AsUser returns the UserError in err's chain, if any.
func AsUser(err error) (*UserError, bool) {
	var uerr *UserError
	if stderrors.As(err, &uerr) {
		return uerr, true
	}
	return nil, false
}

// IsFatal reports whether err is not a user-facing error. Fatal errors and
// unclassified errors are both treated as unexpected.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	_, ok := AsUser(err)
	return !ok
}

// Is, As and New forward to the standard library so callers need only one
// errors import.
var (
	Is  = stderrors.Is
	As  = stderrors.As
	New = stderrors.New
)
