package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		CodeUnknown,
		CodeValidation,
		CodeConfiguration,
		CodeTimeout,
		CodeCanceled,
		CodePermission,
		CodeParseFailed,
		CodeUnableToParse,
		CodeUnexpectedInput,
		CodeInvalidRange,
		CodeDestinationTooLarge,
		CodeTargetInvalid,
		CodeScanFailed,
		CodeResourceExhausted,
		CodeCommandNotFound,
		CodeCommandFailed,
		CodeLookupFailed,
		CodeSpeedTestFailed,
		CodeServiceUnavailable,
	}

	seen := make(map[ErrorCode]bool)
	for _, code := range codes {
		if string(code) == "" {
			t.Errorf("Error code %v should not be empty", code)
		}
		if seen[code] {
			t.Errorf("Error code %s is declared twice", code)
		}
		seen[code] = true
	}
}

func TestParseError(t *testing.T) {
	t.Run("message embeds raw output", func(t *testing.T) {
		err := NewParseError("ping", "garbage text")
		if err.Code != CodeParseFailed {
			t.Errorf("Expected code %s, got %s", CodeParseFailed, err.Code)
		}
		if !strings.Contains(err.Error(), "Invalid PING output:\ngarbage text") {
			t.Errorf("Expected raw output in message, got '%s'", err.Error())
		}
		if err.Output != "garbage text" {
			t.Errorf("Expected output to be kept, got '%s'", err.Output)
		}
	})

	t.Run("unexpected input carries the line", func(t *testing.T) {
		err := ErrUnexpectedInput("traceroute", "what is this")
		expected := `[UNEXPECTED_INPUT] Unexpected traceroute input (line: "what is this")`
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("unable to parse", func(t *testing.T) {
		err := ErrUnableToParse("traceroute", "nothing")
		if !IsCode(err, CodeUnableToParse) {
			t.Errorf("Expected code %s, got %s", CodeUnableToParse, GetCode(err))
		}
	})
}

func TestRangeError(t *testing.T) {
	err := NewRangeError("80-90,tree,x", []string{"tree", "x"})
	expected := "[INVALID_RANGE] Range specification contains invalid entries (invalid: tree, x)"
	if err.Error() != expected {
		t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
	}
	if !IsUserError(err) {
		t.Error("Range errors should be user errors")
	}
}

func TestDestinationError(t *testing.T) {
	err := ErrDestinationTooLarge("10.0.0.0/16", 65534, 1024)
	if err.Count != 65534 || err.Limit != 1024 {
		t.Errorf("Unexpected count/limit %d/%d", err.Count, err.Limit)
	}
	if !strings.Contains(err.Error(), "(destination: 10.0.0.0/16)") {
		t.Errorf("Expected destination in message, got '%s'", err.Error())
	}

	cause := fmt.Errorf("bad prefix")
	invalid := ErrInvalidTarget("10.0.0.0/99", cause)
	if !errors.Is(invalid, cause) {
		t.Error("Expected invalid target error to unwrap to its cause")
	}
}

func TestScanError(t *testing.T) {
	t.Run("with target and port", func(t *testing.T) {
		err := WrapScanErrorWithTarget(CodeResourceExhausted, "too many open files", "10.0.0.1", 80, nil)
		expected := "[RESOURCE_EXHAUSTED] too many open files (target: 10.0.0.1, port: 80)"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("without target", func(t *testing.T) {
		err := NewScanError(CodeCanceled, "scan canceled")
		expected := "[CANCELED] scan canceled"
		if err.Error() != expected {
			t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
		}
	})

	t.Run("wrapped error", func(t *testing.T) {
		cause := fmt.Errorf("socket: too many open files")
		err := WrapScanErrorWithTarget(CodeResourceExhausted, "socket", "h", 0, cause)
		if err.Unwrap() != cause {
			t.Error("Unwrap should return the original cause")
		}
		if !errors.Is(err, cause) {
			t.Error("errors.Is should find the cause")
		}
	})
}

func TestCommandError(t *testing.T) {
	err := ErrCommandNotFound("traceroute", fmt.Errorf("executable file not found in $PATH"))
	if !strings.Contains(err.Error(), "could not be found") {
		t.Errorf("Expected not-found message, got '%s'", err.Error())
	}
	if !IsFatal(err) {
		t.Error("Missing commands should be fatal")
	}
	if IsCode(WrapCommandError("ping", nil), CodeCommandNotFound) {
		t.Error("Generic command failures must not look like missing commands")
	}
}

func TestGetCodeThroughWrapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, CodeUnknown},
		{"plain", fmt.Errorf("plain"), CodeUnknown},
		{"parse", NewParseError("ping", "x"), CodeParseFailed},
		{"wrapped range", fmt.Errorf("ctx: %w", NewRangeError("x", []string{"x"})), CodeInvalidRange},
		{"lookup", WrapLookupError("failed", "example.com", nil), CodeLookupFailed},
		{"speed test", fmt.Errorf("run: %w", NewSpeedTestError("no server", "")), CodeSpeedTestFailed},
		{"config", ErrConfigInvalid("scanning.timeout", 0), CodeValidation},
		{"command", ErrCommandNotFound("ping", nil), CodeCommandNotFound},
		{"validation", fmt.Errorf("wol: %w", NewValidationError("mac_address", "missing", nil)), CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSpeedTestError(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := WrapSpeedTestError("download failed", "speed.example:8080", cause)
	expected := "[SPEEDTEST_FAILED] download failed (server: speed.example:8080)"
	if err.Error() != expected {
		t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if IsUserError(err) {
		t.Error("A failed measurement is not a user error")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("ports", "Invalid port list", "80-")
	expected := "[VALIDATION] Invalid port list (field: ports)"
	if err.Error() != expected {
		t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
	}
	if !IsUserError(err) {
		t.Error("Expected validation error to be a user error")
	}
}

func TestConfigError(t *testing.T) {
	err := ErrConfigInvalid("api.port", 70000)
	expected := "[VALIDATION] Invalid configuration value (field: api.port)"
	if err.Error() != expected {
		t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
	}

	cause := fmt.Errorf("yaml: line 3")
	wrapped := WrapConfigError(CodeConfiguration, "failed to parse", cause)
	if !errors.Is(wrapped, cause) {
		t.Error("Expected wrapped config error to unwrap")
	}
	if !IsFatal(wrapped) {
		t.Error("Configuration errors should be fatal")
	}
}
