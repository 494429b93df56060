package cli

import stderrors "errors"

// CommandError signals a command failure with a specific exit code.
// Commands return this after handling all output (printing errors to stderr).
// Main centralizes exit handling instead of commands calling os.Exit directly.
type CommandError struct {
	exitCode int
	err      error
}

// NewCommandError creates a new CommandError with the given exit code. The
// cause is optional and has already been shown to the user.
func NewCommandError(exitCode int, cause error) *CommandError {
	return &CommandError{exitCode: exitCode, err: cause}
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return "command failed"
}

func (e *CommandError) Unwrap() error { return e.err }

// ExitCode returns the exit code associated with this error.
func (e *CommandError) ExitCode() int {
	return e.exitCode
}

// ExitCode returns the process exit code for the result of a command: 0 for
// nil, the code of a CommandError, and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var cmdErr *CommandError
	if stderrors.As(err, &cmdErr) {
		return cmdErr.ExitCode()
	}
	return 1
}
