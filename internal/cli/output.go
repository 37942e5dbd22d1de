package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/twinsync/internal/backend"
	"github.com/roach88/twinsync/internal/config"
	"github.com/roach88/twinsync/internal/model"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The model rejected the operation (constraint, lookup, conflict)
	ExitCommandError = 2 // Command error (bad config, unreachable backend, unreadable file)
)

// Error codes reported in JSON output and in text error lines.
const (
	ErrCodeGeneric       = "E001"
	ErrCodeConfig        = "E002"
	ErrCodeNotFound      = "E003"
	ErrCodeConstraint    = "E004"
	ErrCodeTypeMismatch  = "E005"
	ErrCodeUnavailable   = "E006"
	ErrCodeSerialization = "E007"
	ErrCodeUnknownScheme = "E008"
	ErrCodeBusy          = "E009"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
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

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Classify maps an error to its error code and exit code.
func Classify(err error) (code string, exit int) {
	switch {
	case config.IsValidationError(err):
		return ErrCodeConfig, ExitCommandError
	case backend.IsUnknownBackend(err):
		return ErrCodeUnknownScheme, ExitCommandError
	case backend.IsBackendUnavailable(err):
		return ErrCodeUnavailable, ExitCommandError
	case backend.IsSerialization(err):
		return ErrCodeSerialization, ExitCommandError
	case errors.Is(err, model.ErrConcurrentAccess):
		return ErrCodeBusy, ExitFailure
	case model.IsKeyNotFound(err):
		return ErrCodeNotFound, ExitFailure
	case model.IsTypeMismatch(err):
		return ErrCodeTypeMismatch, ExitFailure
	case model.IsConstraintViolation(err):
		return ErrCodeConstraint, ExitFailure
	}
	return ErrCodeGeneric, ExitCommandError
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	switch v := data.(type) {
	case []byte:
		_, err := f.Writer.Write(v)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(f.Writer, v.String())
		return err
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	w := f.GetErrWriter()
	fmt.Fprintf(w, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(w, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err and returns the ExitError the command should return.
func (f *OutputFormatter) Fail(message string, err error) error {
	code, exit := Classify(err)
	var details any
	var ve *config.ValidationError
	if errors.As(err, &ve) {
		fields := make([]string, len(ve.Fields))
		for i, fe := range ve.Fields {
			fields[i] = fe.String()
		}
		details = fields
	}
	if outErr := f.Error(code, fmt.Sprintf("%s: %v", message, err), details); outErr != nil {
		return outErr
	}
	return WrapExitError(exit, message, err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
