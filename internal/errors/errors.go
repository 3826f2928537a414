package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig  = "CONFIG"
	ErrConnect = "CONNECT"
	ErrCommand = "COMMAND"
	ErrParse   = "PARSE"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// The multi-line Error() output is meant for the operator:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
//
// Summary() gives the same information on a single line for table cells and log records.
type Error struct {
	Code       string
	Host       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// NewConnectionError reports a transport or authentication failure while opening a session.
func NewConnectionError(host string, cause error) *Error {
	return &Error{
		Code:       ErrConnect,
		Host:       host,
		Message:    fmt.Sprintf("Can't connect to '%s'", host),
		Suggestion: "Make sure the host is reachable and the credentials are right: ssh <host>",
		Cause:      cause,
	}
}

// NewCommandError reports a transport failure while a command was running on an open session.
func NewCommandError(host, command string, cause error) *Error {
	return &Error{
		Code:       ErrCommand,
		Host:       host,
		Message:    fmt.Sprintf("Command failed on '%s': %s", host, command),
		Suggestion: "The connection was dropped and will be reopened on the next cycle.",
		Cause:      cause,
	}
}

// NewParseError reports command output that arrived intact but had an unexpected shape.
func NewParseError(probe, reason string) *Error {
	return &Error{
		Code:    ErrParse,
		Message: fmt.Sprintf("Unexpected %s output: %s", probe, reason),
	}
}

// Error implements the error interface with the operator-facing layout.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Summary returns the message and cause on one line, without the suggestion.
func (e *Error) Summary() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + Summarize(e.Cause)
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var fwErr *Error
	if errors.As(err, &fwErr) {
		return fwErr.Code == code
	}
	return false
}

// Summarize flattens any error to a single line. Structured errors use Summary,
// everything else has its newlines collapsed.
func Summarize(err error) string {
	if err == nil {
		return ""
	}
	if fwErr, ok := err.(*Error); ok {
		return fwErr.Summary()
	}
	return strings.Join(strings.Fields(err.Error()), " ")
}

// ExitError carries a process exit code out of a command without printing anything extra.
type ExitError struct {
	Code int
}

// NewExitError creates an ExitError with the given code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// GetExitCode extracts the code from an ExitError anywhere in the chain.
func GetExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
