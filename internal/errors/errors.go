// Package errors provides structured error handling for netdiag operations.
// It defines error codes and typed errors for tool-output parsing, target
// expansion, port scanning and command execution, each carrying enough
// context to be reported back to the caller verbatim.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents different types of errors that can occur.
type ErrorCode string

const (
	// General errors.
	CodeUnknown       ErrorCode = "UNKNOWN"
	CodeValidation    ErrorCode = "VALIDATION"
	CodeConfiguration ErrorCode = "CONFIGURATION"
	CodeTimeout       ErrorCode = "TIMEOUT"
	CodeCanceled      ErrorCode = "CANCELED"
	CodePermission    ErrorCode = "PERMISSION"

	// Tool output parsing errors.
	CodeParseFailed     ErrorCode = "PARSE_FAILED"
	CodeUnableToParse   ErrorCode = "UNABLE_TO_PARSE"
	CodeUnexpectedInput ErrorCode = "UNEXPECTED_INPUT"

	// Target and range errors.
	CodeInvalidRange        ErrorCode = "INVALID_RANGE"
	CodeDestinationTooLarge ErrorCode = "DESTINATION_TOO_LARGE"
	CodeTargetInvalid       ErrorCode = "TARGET_INVALID"

	// Scanning errors.
	CodeScanFailed        ErrorCode = "SCAN_FAILED"
	CodeResourceExhausted ErrorCode = "RESOURCE_EXHAUSTED"

	// External command and service errors.
	CodeCommandNotFound    ErrorCode = "COMMAND_NOT_FOUND"
	CodeCommandFailed      ErrorCode = "COMMAND_FAILED"
	CodeLookupFailed       ErrorCode = "LOOKUP_FAILED"
	CodeSpeedTestFailed    ErrorCode = "SPEEDTEST_FAILED"
	CodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// ParseError is returned when raw tool output does not match any known format.
// Output holds the offending text so the caller can report it.
type ParseError struct {
	Code    ErrorCode
	Message string
	Tool    string
	Line    string
	Output  string
	Cause   error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line != "" {
		return fmt.Sprintf("[%s] %s (line: %q)", e.Code, e.Message, e.Line)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// NewParseError creates a parse error for the given tool and raw output.
// The raw output is embedded in the message.
func NewParseError(tool, output string) *ParseError {
	return &ParseError{
		Code:    CodeParseFailed,
		Message: fmt.Sprintf("Invalid %s output:\n%s", strings.ToUpper(tool), output),
		Tool:    tool,
		Output:  output,
	}
}

// ErrUnableToParse creates the error for output in which no line was recognized.
func ErrUnableToParse(tool, output string) *ParseError {
	return &ParseError{
		Code:    CodeUnableToParse,
		Message: fmt.Sprintf("Unable to parse %s output:\n%s", tool, output),
		Tool:    tool,
		Output:  output,
	}
}

// ErrUnexpectedInput creates the error for a line that matched no known pattern.
func ErrUnexpectedInput(tool, line string) *ParseError {
	return &ParseError{
		Code:    CodeUnexpectedInput,
		Message: fmt.Sprintf("Unexpected %s input", tool),
		Tool:    tool,
		Line:    line,
	}
}

// RangeError reports malformed tokens in a range specification.
type RangeError struct {
	Code    ErrorCode
	Message string
	Spec    string
	Invalid []string
}

// Error implements the error interface.
func (e *RangeError) Error() string {
	if len(e.Invalid) > 0 {
		return fmt.Sprintf("[%s] %s (invalid: %s)", e.Code, e.Message, strings.Join(e.Invalid, ", "))
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// NewRangeError creates a range error listing every invalid token.
func NewRangeError(spec string, invalid []string) *RangeError {
	return &RangeError{
		Code:    CodeInvalidRange,
		Message: "Range specification contains invalid entries",
		Spec:    spec,
		Invalid: invalid,
	}
}

// DestinationError represents a rejected target specification.
type DestinationError struct {
	Code        ErrorCode
	Message     string
	Destination string
	Count       uint64
	Limit       int
	Cause       error
}

// Error implements the error interface.
func (e *DestinationError) Error() string {
	if e.Destination != "" {
		return fmt.Sprintf("[%s] %s (destination: %s)", e.Code, e.Message, e.Destination)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *DestinationError) Unwrap() error {
	return e.Cause
}

// ErrDestinationTooLarge creates the error for a network whose usable address
// count exceeds limit.
func ErrDestinationTooLarge(destination string, count uint64, limit int) *DestinationError {
	return &DestinationError{
		Code: CodeDestinationTooLarge,
		Message: fmt.Sprintf("Network has %d usable addresses, more than the limit of %d",
			count, limit),
		Destination: destination,
		Count:       count,
		Limit:       limit,
	}
}

// ErrInvalidTarget creates an error for an unusable target specification.
func ErrInvalidTarget(destination string, err error) *DestinationError {
	return &DestinationError{
		Code:        CodeTargetInvalid,
		Message:     "Invalid target specification",
		Destination: destination,
		Cause:       err,
	}
}

// ScanError represents a local failure while scanning. A refused or timed
// out connection is a closed port, not a ScanError.
type ScanError struct {
	Code    ErrorCode
	Message string
	Target  string
	Port    int
	Cause   error
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	switch {
	case e.Target != "" && e.Port > 0:
		return fmt.Sprintf("[%s] %s (target: %s, port: %d)", e.Code, e.Message, e.Target, e.Port)
	case e.Target != "":
		return fmt.Sprintf("[%s] %s (target: %s)", e.Code, e.Message, e.Target)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// NewScanError creates a new scan error with the specified code and message.
func NewScanError(code ErrorCode, message string) *ScanError {
	return &ScanError{
		Code:    code,
		Message: message,
	}
}

// WrapScanErrorWithTarget wraps an error with target information.
func WrapScanErrorWithTarget(code ErrorCode, message, target string, port int, err error) *ScanError {
	return &ScanError{
		Code:    code,
		Message: message,
		Target:  target,
		Port:    port,
		Cause:   err,
	}
}

// CommandError represents a failure to run an external utility at all.
// A command that ran and exited nonzero is not a CommandError.
type CommandError struct {
	Code    ErrorCode
	Message string
	Command string
	Cause   error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("[%s] %s (command: %s)", e.Code, e.Message, e.Command)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() error {
	return e.Cause
}

// ErrCommandNotFound creates the error for a utility missing from the environment.
func ErrCommandNotFound(command string, err error) *CommandError {
	return &CommandError{
		Code:    CodeCommandNotFound,
		Message: "The command could not be found; make sure it is installed",
		Command: command,
		Cause:   err,
	}
}

// WrapCommandError wraps a failure to start or wait on a command.
func WrapCommandError(command string, err error) *CommandError {
	return &CommandError{
		Code:    CodeCommandFailed,
		Message: "Failed to execute command",
		Command: command,
		Cause:   err,
	}
}

// LookupError represents a failed DNS or registration-data lookup.
type LookupError struct {
	Code    ErrorCode
	Message string
	Query   string
	Cause   error
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	if e.Query != "" {
		return fmt.Sprintf("[%s] %s (query: %s)", e.Code, e.Message, e.Query)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *LookupError) Unwrap() error {
	return e.Cause
}

// NewLookupError creates a lookup error.
func NewLookupError(code ErrorCode, message, query string) *LookupError {
	return &LookupError{
		Code:    code,
		Message: message,
		Query:   query,
	}
}

// WrapLookupError wraps an existing error as a lookup error.
func WrapLookupError(message, query string, err error) *LookupError {
	return &LookupError{
		Code:    CodeLookupFailed,
		Message: message,
		Query:   query,
		Cause:   err,
	}
}

// SpeedTestError represents a failed bandwidth or latency measurement.
type SpeedTestError struct {
	Code    ErrorCode
	Message string
	Server  string
	Cause   error
}

// Error implements the error interface.
func (e *SpeedTestError) Error() string {
	if e.Server != "" {
		return fmt.Sprintf("[%s] %s (server: %s)", e.Code, e.Message, e.Server)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *SpeedTestError) Unwrap() error {
	return e.Cause
}

// NewSpeedTestError creates a speed test error.
func NewSpeedTestError(message, server string) *SpeedTestError {
	return &SpeedTestError{
		Code:    CodeSpeedTestFailed,
		Message: message,
		Server:  server,
	}
}

// WrapSpeedTestError wraps an existing error as a speed test error.
func WrapSpeedTestError(message, server string, err error) *SpeedTestError {
	return &SpeedTestError{
		Code:    CodeSpeedTestFailed,
		Message: message,
		Server:  server,
		Cause:   err,
	}
}

// ValidationError reports invalid input for a request field.
type ValidationError struct {
	Code    ErrorCode
	Message string
	Field   string
	Value   interface{}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// NewValidationError creates a validation error for field.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Code:    CodeValidation,
		Message: message,
		Field:   field,
		Value:   value,
	}
}

// ConfigError represents configuration-related errors.
type ConfigError struct {
	Code    ErrorCode
	Message string
	Field   string
	Value   interface{}
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigFieldError creates a configuration error for a specific field.
func NewConfigFieldError(code ErrorCode, message, field string, value interface{}) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Field:   field,
		Value:   value,
	}
}

// WrapConfigError wraps an existing error as a configuration error.
func WrapConfigError(code ErrorCode, message string, err error) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// ErrConfigInvalid creates an error for invalid configuration.
func ErrConfigInvalid(field string, value interface{}) *ConfigError {
	return NewConfigFieldError(CodeValidation, "Invalid configuration value", field, value)
}

// Utility functions for common error operations

// GetCode extracts the error code from the first coded error in the chain.
func GetCode(err error) ErrorCode {
	var (
		parseErr  *ParseError
		rangeErr  *RangeError
		destErr   *DestinationError
		scanErr   *ScanError
		cmdErr    *CommandError
		lookupErr *LookupError
		speedErr  *SpeedTestError
		configErr *ConfigError
		validErr  *ValidationError
	)
	switch {
	case err == nil:
		return CodeUnknown
	case stderrors.As(err, &parseErr):
		return parseErr.Code
	case stderrors.As(err, &rangeErr):
		return rangeErr.Code
	case stderrors.As(err, &destErr):
		return destErr.Code
	case stderrors.As(err, &scanErr):
		return scanErr.Code
	case stderrors.As(err, &cmdErr):
		return cmdErr.Code
	case stderrors.As(err, &lookupErr):
		return lookupErr.Code
	case stderrors.As(err, &speedErr):
		return speedErr.Code
	case stderrors.As(err, &configErr):
		return configErr.Code
	case stderrors.As(err, &validErr):
		return validErr.Code
	}
	return CodeUnknown
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && GetCode(err) == code
}

// IsFatal determines if an error indicates a fatal condition that should stop execution.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case CodePermission, CodeConfiguration, CodeCommandNotFound, CodeResourceExhausted:
		return true
	default:
		return false
	}
}

// IsUserError reports whether err was caused by bad caller input rather than
// by the environment.
func IsUserError(err error) bool {
	switch GetCode(err) {
	case CodeValidation, CodeInvalidRange, CodeDestinationTooLarge, CodeTargetInvalid:
		return true
	default:
		return false
	}
}
