package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/pokerstats/internal/model"
	"github.com/mcoot/pokerstats/internal/services/annotations"
	"github.com/mcoot/pokerstats/internal/services/auth"
	"github.com/mcoot/pokerstats/internal/services/catalog"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeParseFailure    = "PARSE_FAILURE"
	CodeUnknownPlatform = "UNKNOWN_PLATFORM"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeTokenExpired    = "TOKEN_EXPIRED"
	CodeForbidden       = "FORBIDDEN"
	CodePlayerNotFound  = "PLAYER_NOT_FOUND"
	CodeNoteNotFound    = "NOTE_NOT_FOUND"
	CodeImportNotFound  = "IMPORT_NOT_FOUND"
	CodeAliasConflict   = "ALIAS_CONFLICT"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	CodeRateLimited     = "RATE_LIMITED"
	CodeTimeout         = "TIMEOUT"
	CodeInternalError   = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status WriteError would use for err
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return &httpError{http.StatusRequestEntityTooLarge, APIError{CodePayloadTooLarge, "Upload exceeds size limit"}}
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrParseFailure):
		return &httpError{http.StatusBadRequest, APIError{CodeParseFailure, err.Error()}}
	case errors.Is(err, model.ErrUnknownPlatform):
		return &httpError{http.StatusBadRequest, APIError{CodeUnknownPlatform, "Unknown platform"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrNoteNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeNoteNotFound, "Note not found"}}
	case errors.Is(err, model.ErrImportNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeImportNotFound, "Import not found"}}
	case errors.Is(err, model.ErrAliasConflict):
		return &httpError{http.StatusConflict, APIError{CodeAliasConflict, "Alias is bound to a different player"}}
	case errors.Is(err, model.ErrUploadTooLarge):
		return &httpError{http.StatusRequestEntityTooLarge, APIError{CodePayloadTooLarge, "Upload exceeds size limit"}}
	case errors.Is(err, model.ErrStoreTimeout), errors.Is(err, context.DeadlineExceeded):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeTimeout, "Storage did not respond in time"}}

	// Map service errors
	case errors.Is(err, catalog.ErrEmptyQuery):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Search query is required"}}
	case errors.Is(err, annotations.ErrNoteTooLong):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Note is too long"}}

	// Map auth errors
	case errors.Is(err, auth.ErrExpiredToken):
		return &httpError{http.StatusUnauthorized, APIError{CodeTokenExpired, "Token has expired"}}
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrNotConfigured):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid token"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError() error {
	return &httpError{http.StatusForbidden, APIError{CodeForbidden, "Admin role required"}}
}

// NewRateLimitedError creates a rate limited error
func NewRateLimitedError() error {
	return &httpError{http.StatusTooManyRequests, APIError{CodeRateLimited, "Too many uploads, try again later"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
