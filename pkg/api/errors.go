package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/status"
)

// ValidationError marks a request body that failed field-level validation
// before ever reaching the orchestrator.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ErrSessionNotFound is returned by handlers when a session ID in the
// path does not resolve to a known session.
var ErrSessionNotFound = errors.New("session not found")

// mapError translates an error from a handler into an HTTP status and a
// safe message to send to the client. Errors carrying a gRPC status (as
// RemoteJudge's Audit/IsAvailable/GetVersion calls do) are mapped through
// grpc-gateway's code table so a judge-side Unavailable/DeadlineExceeded
// surfaces as the matching HTTP status instead of a blanket 500.
func mapError(err error) (int, string) {
	var validErr *ValidationError
	if errors.As(err, &validErr) {
		return http.StatusBadRequest, validErr.Error()
	}
	if errors.Is(err, ErrSessionNotFound) {
		return http.StatusNotFound, ErrSessionNotFound.Error()
	}
	if st, ok := status.FromError(err); ok {
		return gwruntime.HTTPStatusFromCode(st.Code()), st.Message()
	}

	slog.Error("unexpected handler error", "error", err)
	return http.StatusInternalServerError, "internal server error"
}
