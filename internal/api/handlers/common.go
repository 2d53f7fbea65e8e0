// Package handlers provides HTTP request handlers for the netdiag API.
// This file contains the response, request parsing and error mapping
// helpers shared by every handler.
package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/anstrom/netdiag/internal/api/middleware"
	"github.com/anstrom/netdiag/internal/errors"
)

// DefaultMaxRequestSize bounds request bodies when no limit is configured.
const DefaultMaxRequestSize = 1 << 20

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// getRequestIDFromContext extracts the request ID set by middleware.RequestID.
func getRequestIDFromContext(r *http.Request) string {
	return middleware.GetRequestID(r)
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	writeJSON(w, r, statusCode, data)
}

func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// The header is gone; log and give up.
		slog.Error("Failed to encode JSON response",
			"request_id", getRequestIDFromContext(r),
			"error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, r *http.Request, statusCode int, err error) {
	response := ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
		RequestID: getRequestIDFromContext(r),
	}
	if code := errors.GetCode(err); code != errors.CodeUnknown {
		response.Code = string(code)
	}

	writeJSON(w, r, statusCode, response)
}

// statusForError maps an error returned by a diagnostic to an HTTP status.
func statusForError(err error) int {
	switch {
	case errors.IsUserError(err):
		return http.StatusBadRequest
	case stderrors.Is(err, context.DeadlineExceeded), errors.IsCode(err, errors.CodeTimeout):
		return http.StatusGatewayTimeout
	case stderrors.Is(err, context.Canceled), errors.IsCode(err, errors.CodeCanceled):
		return http.StatusServiceUnavailable
	}

	switch errors.GetCode(err) {
	case errors.CodeCommandNotFound, errors.CodeServiceUnavailable, errors.CodeResourceExhausted:
		return http.StatusServiceUnavailable
	case errors.CodeLookupFailed, errors.CodeSpeedTestFailed, errors.CodeParseFailed, errors.CodeUnableToParse,
		errors.CodeUnexpectedInput, errors.CodeCommandFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError logs err and writes it with the status statusForError
// picks. Caller mistakes are logged at debug level only.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, operation string, err error) {
	status := statusForError(err)
	if logger != nil {
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
			level = slog.LevelError
		} else if status < http.StatusInternalServerError {
			level = slog.LevelDebug
		}
		logger.Log(r.Context(), level, fmt.Sprintf("%s failed", operation),
			"request_id", getRequestIDFromContext(r),
			"status", status,
			"error", err)
	}
	writeError(w, r, status, err)
}

// parseJSON decodes a JSON request body of at most maxSize bytes into dest
// and validates it.
func parseJSON(w http.ResponseWriter, r *http.Request, maxSize int64, dest interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errors.NewValidationError("body", "request body is empty", nil)
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxRequestSize
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.NewValidationError("body",
				fmt.Sprintf("request body too large (max %d bytes)", maxSize), nil)
		}
		return errors.NewValidationError("body", "invalid JSON: "+err.Error(), nil)
	}

	return validateRequest(dest)
}

// validateRequest runs struct tag validation and reports the first failure
// as a ValidationError naming the JSON field.
func validateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return errors.NewValidationError("body", err.Error(), nil)
	}

	fe := verrs[0]
	field := fe.Field()
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", field)
	case "min":
		msg = fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		msg = fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		msg = fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		msg = fmt.Sprintf("%s failed %q validation", field, fe.Tag())
	}
	return errors.NewValidationError(field, msg, fe.Value())
}
