package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Exit codes.
const (
	ExitSuccess   = 0
	ExitGeneral   = 1
	ExitConfig    = 2
	ExitDocument  = 3
	ExitDBConnect = 4
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ConfigError creates an ExitError with ExitConfig code.
func ConfigError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitConfig, Message: msg, Err: err}
}

// DocumentError creates an ExitError with ExitDocument code.
func DocumentError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitDocument, Message: msg, Err: err}
}

// DBConnectError creates an ExitError with ExitDBConnect code.
func DBConnectError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitDBConnect, Message: msg, Err: err}
}

// reportError prints err and returns the process exit code for it.
func reportError(w io.Writer, err error) int {
	prefix := color.New(color.FgRed, color.Bold).Sprint("Error:")
	_, _ = fmt.Fprintln(w, prefix, err)
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitGeneral
}
