package dto

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"taskboard/internal/domain"
	"taskboard/internal/store"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResponse creates a new error response.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// MapDomainError maps domain and store errors to HTTP status codes and
// error codes.
func MapDomainError(err error) (status int, code string, message string) {
	message = err.Error()

	switch {
	// Validation errors
	case errors.Is(err, domain.ErrEmptyBody):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message
	case errors.Is(err, domain.ErrInvalidVisibility):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message

	// Session errors
	case errors.Is(err, domain.ErrMissingIdentity):
		return http.StatusUnauthorized, "AUTH_REQUIRED", message
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "INVALID_TOKEN", message

	// Permission errors
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden, "INSUFFICIENT_ACCESS", message

	// Not-found errors
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, "TASK_NOT_FOUND", message
	case errors.Is(err, domain.ErrCommentNotFound):
		return http.StatusNotFound, "COMMENT_NOT_FOUND", message

	// Store boundary
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "store unavailable"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", message

	// Default: internal server error
	default:
		slog.Error("unmapped domain error returned to client",
			"error", err,
			"error_type", fmt.Sprintf("%T", err),
		)
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}
