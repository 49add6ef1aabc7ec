package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}

// decodeJSON decodes the request body into v and rejects unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// requireUser returns the authenticated user ID or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := contextutil.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "Missing user identity")
		return "", false
	}
	return userID, true
}

// statusForError maps service errors to HTTP status codes.
func statusForError(err error) int {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr), errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrExternalService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError maps service errors to appropriate HTTP status codes and responses.
func handleServiceError(w http.ResponseWriter, ctx context.Context, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "service error", "error", err)
	} else {
		logger.WarnContext(ctx, "request rejected", "status", status, "error", err)
	}

	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, status, fmt.Sprintf("Validation error: %s", validationErr.Error()))
	case status == http.StatusBadRequest:
		writeError(w, status, "Invalid input")
	case status == http.StatusNotFound:
		writeError(w, status, "Resource not found")
	case status == http.StatusTooManyRequests:
		writeError(w, status, "Rate limited, try again later")
	case status == http.StatusBadGateway:
		writeError(w, status, "External service error")
	default:
		writeError(w, status, defaultMsg)
	}
}
