package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/upb/ami-parentage/services"
	"gopkg.in/yaml.v3"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Every notification processed
	ExitFailure      = 1 // Pipeline error (fetch, decode, extraction, write)
	ExitCommandError = 2 // Command error (bad flags, configuration, database setup)
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ExitError represents an error with a specific exit code.
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

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Configuration errors map to ExitCommandError; anything else that is not an
// ExitError is ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, services.ErrInvalidConfig) {
		return ExitCommandError
	}
	return ExitFailure
}

// OutputFormatter writes structured command results.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the envelope for json and yaml output.
type CLIResponse struct {
	Status string      `json:"status" yaml:"status"`
	Data   interface{} `json:"data,omitempty" yaml:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty" yaml:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Type    string                 `json:"type" yaml:"type"`
	Message string                 `json:"message" yaml:"message"`
	Details map[string]interface{} `json:"details,omitempty" yaml:"details,omitempty"`
}

// Structured reports whether the format is machine readable
func (f *OutputFormatter) Structured() bool {
	return f.Format == FormatJSON || f.Format == FormatYAML
}

// Success outputs a successful result. Text output is left to the caller.
func (f *OutputFormatter) Success(data interface{}) error {
	return f.encode(CLIResponse{Status: "ok", Data: data})
}

// Failure outputs an error result alongside any partial data.
func (f *OutputFormatter) Failure(data interface{}, cliErr *CLIError) error {
	return f.encode(CLIResponse{Status: "error", Data: data, Error: cliErr})
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	switch f.Format {
	case FormatJSON:
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case FormatYAML:
		enc := yaml.NewEncoder(f.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q has no structured encoding", f.Format)
	}
}
