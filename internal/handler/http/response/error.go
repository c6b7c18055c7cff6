package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-controlroom-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/domain/controlroom"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrWrongTokenType):
		Unauthorized(w, err.Error())

	// User domain errors
	case errors.Is(err, user.ErrCompanyIDRequired):
		Forbidden(w, "Company membership required")
	case errors.Is(err, user.ErrInsufficientPermissions),
		errors.Is(err, user.ErrUnknownRole):
		Forbidden(w, err.Error())

	// Control room domain errors
	case errors.Is(err, controlroom.ErrSessionNotFound):
		NotFound(w, "Control room session not found")
	case errors.Is(err, controlroom.ErrSessionLimitReached):
		Conflict(w, "Too many open control room sessions")
	case errors.Is(err, controlroom.ErrCompanyIDRequired):
		Forbidden(w, "Company membership required")
	case errors.Is(err, controlroom.ErrSnapshotUnavailable):
		slog.Warn("Snapshot source unavailable", "error", err)
		ServiceUnavailable(w, "Live positions are temporarily unavailable")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
