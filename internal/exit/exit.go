// Package exit turns command outcomes into process exit codes and messages.
package exit

import (
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	CodeSuccess = 0
	CodeFailure = 1
)

// Result holds the output destination and exit code for program termination.
type Result struct {
	Output   io.Writer
	ExitCode int
	Message  string
}

// Print writes the message followed by a newline, unless it already ends in one.
func (r *Result) Print() {
	if r.Message == "" {
		return
	}
	msg := r.Message
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	fmt.Fprint(r.Output, msg)
}

// Success creates a result that prints to stdout and exits with CodeSuccess.
func Success(message string) *Result {
	return &Result{
		Output:   os.Stdout,
		ExitCode: CodeSuccess,
		Message:  message,
	}
}

// Error creates a result that prints to stderr and exits with CodeFailure.
func Error(message string) *Result {
	return &Result{
		Output:   os.Stderr,
		ExitCode: CodeFailure,
		Message:  message,
	}
}

func Errorf(format string, a ...any) *Result {
	return Error(fmt.Sprintf(format, a...))
}

// FromError is nil for a nil err and an Error result otherwise.
func FromError(err error) *Result {
	if err == nil {
		return nil
	}
	return Errorf("Error: %v", err)
}
