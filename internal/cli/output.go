package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/roach88/relalg/internal/compiler"
)

// Exit codes. A plan that fails to build is the user's answer, not a
// malfunction, so it exits 1; anything that stops the command from
// looking at the plan at all exits 2.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // plan did not build or a scenario failed
	ExitCommandError = 2 // bad flags, unreadable plan or catalog
)

// ExitError carries the process exit code out of a command's RunE.
type ExitError struct {
	Code    int
	Message string
	Err     error // optional cause
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError caused by err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the code of the first ExitError in err's chain, or
// ExitFailure when there is none.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		return ExitFailure
	}
	return exitErr.Code
}

// CLIResponse is the envelope of every --format json document.
type CLIResponse struct {
	Status  string    `json:"status"` // "ok" or "error"
	Data    any       `json:"data,omitempty"`
	Error   *CLIError `json:"error,omitempty"`
	BuildID string    `json:"build_id,omitempty"`
}

// CLIError is the error member of a CLIResponse.
type CLIError struct {
	Code    string `json:"code"` // E001, E201, ...
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// writeJSON writes v as one indented JSON document.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// OutputFormatter writes command results as text or JSON.
type OutputFormatter struct {
	Format string
	Writer io.Writer
	// ErrWriter receives diagnostics so they never interleave with a
	// JSON document on Writer. Nil means Writer.
	ErrWriter io.Writer
	Verbose   bool
}

func (f *OutputFormatter) json() bool { return f.Format == "json" }

// Success reports a result: a CLIResponse in JSON mode, data's default
// formatting otherwise.
func (f *OutputFormatter) Success(data any) error {
	if f.json() {
		return writeJSON(f.Writer, CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error reports a failure. Details are printed in text mode only when
// verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.json() {
		return writeJSON(f.Writer, CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// BuildError reports a failed build and returns the ExitError the
// command should return. Plan errors print their code, node and field,
// preceded in text mode by the plan position; anything else is a
// command error.
func (f *OutputFormatter) BuildError(err error) error {
	d, ok := compiler.DetailOf(err)
	if !ok {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "build failed", err)
	}

	if f.json() {
		_ = f.Error(d.Code, d.Message, d)
	} else {
		fmt.Fprint(f.Writer, "✗ Build failed\n\n")
		if d.Pos.IsValid() {
			fmt.Fprintf(f.Writer, "%s:%d:%d\n", d.Pos.Filename(), d.Pos.Line(), d.Pos.Column())
		}
		fmt.Fprintf(f.Writer, "  %s: node %d, %s: %s\n", d.Code, d.Node, d.Field, d.Message)
	}
	return NewExitError(ExitFailure, d.Code+": "+d.Message)
}

// VerboseLog prints a diagnostic line when verbose.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
	}
}

// GetErrWriter returns where diagnostics go.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter == nil {
		return f.Writer
	}
	return f.ErrWriter
}
