package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// Domain errors for statement execution.
var (
	// ErrDatabase marks failures reported by the database engine, such as
	// syntax errors, constraint violations and lock timeouts.
	ErrDatabase = errors.New("engine: database error")

	// ErrUnexpected marks every other execution failure.
	ErrUnexpected = errors.New("engine: unexpected error")

	// ErrNoStartupScript is returned by RunStartupScript when the script
	// file does not exist.
	ErrNoStartupScript = errors.New("engine: startup script not found")

	// ErrMultipleStatements is wrapped in an ErrDatabase failure when a
	// single-statement request carries more than one statement.
	ErrMultipleStatements = errors.New("engine: more than one statement")
)

// msgMultipleStatements is the wording sqlite3 bindings commonly use.
const msgMultipleStatements = "You can only execute one statement at a time."

// ExecError describes a failed execution.
type ExecError struct {
	// Kind is ErrDatabase or ErrUnexpected.
	Kind error

	// Message is safe to return to the client verbatim.
	Message string

	Err error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *ExecError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Message returns the client-facing message of err.
func Message(err error) string {
	var ee *ExecError
	if errors.As(err, &ee) {
		return ee.Message
	}
	return err.Error()
}

// classify converts a raw error from any execution step into *ExecError.
func classify(err error) error {
	var ee *ExecError
	if errors.As(err, &ee) {
		return err
	}

	var se sqlite3.Error
	switch {
	case errors.As(err, &se):
		return &ExecError{Kind: ErrDatabase, Message: se.Error(), Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &ExecError{Kind: ErrDatabase, Message: "interrupted: query time limit exceeded", Err: err}
	default:
		return &ExecError{Kind: ErrUnexpected, Message: err.Error(), Err: err}
	}
}

// acquireError reports a failure to obtain a connection. These are
// always database failures (missing directory, unreadable file).
func acquireError(err error) error {
	var se sqlite3.Error
	msg := err.Error()
	if errors.As(err, &se) {
		msg = se.Error()
	}
	return &ExecError{Kind: ErrDatabase, Message: msg, Err: err}
}
