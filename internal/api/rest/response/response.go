// Package response writes JSON bodies and errors for the REST API.
package response

import (
	"encoding/json"
	"net/http"
)

// Condition codes returned in error bodies.
var (
	ErrBadRequest          = &HTTPError{Code: "bad_request", Message: "bad request", Status: http.StatusBadRequest}
	ErrValidation          = &HTTPError{Code: "validation", Message: "validation failed", Status: http.StatusBadRequest}
	ErrUnauthorized        = &HTTPError{Code: "unauthorized", Message: "missing or invalid authorization token", Status: http.StatusUnauthorized}
	ErrInvalidCredentials  = &HTTPError{Code: "invalid_credentials", Message: "invalid email or password", Status: http.StatusUnauthorized}
	ErrNotOwner            = &HTTPError{Code: "not_owner", Message: "secret belongs to another user", Status: http.StatusForbidden}
	ErrEmailNotVerified    = &HTTPError{Code: "email_not_verified", Message: "email is not verified", Status: http.StatusForbidden}
	ErrNotFound            = &HTTPError{Code: "not_found", Message: "not found", Status: http.StatusNotFound}
	ErrAlreadyExists       = &HTTPError{Code: "already_exists", Message: "email already claimed", Status: http.StatusConflict}
	ErrVersionConflict     = &HTTPError{Code: "version_conflict", Message: "concurrent update, try again", Status: http.StatusConflict}
	ErrInvalidToken        = &HTTPError{Code: "invalid_token", Message: "invalid token", Status: http.StatusBadRequest}
	ErrTokenExpired        = &HTTPError{Code: "token_expired", Message: "token expired", Status: http.StatusGone}
	ErrMethodNotAllowed    = &HTTPError{Code: "method_not_allowed", Message: "method not allowed", Status: http.StatusMethodNotAllowed}
	ErrTooManyRequests     = &HTTPError{Code: "too_many_requests", Message: "rate limit exceeded", Status: http.StatusTooManyRequests}
	ErrServiceUnavailable  = &HTTPError{Code: "service_unavailable", Message: "service unavailable", Status: http.StatusServiceUnavailable}
	ErrInternalServerError = &HTTPError{Code: "internal", Message: "internal server error", Status: http.StatusInternalServerError}
)

// HTTPError is the body of every error response.
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// WithMessage returns a copy of e with message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	return &HTTPError{Code: e.Code, Message: message, Status: e.Status}
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes err, or an internal error when err is not an *HTTPError.
func WriteError(w http.ResponseWriter, err error) {
	httpErr, ok := err.(*HTTPError)
	if !ok {
		httpErr = ErrInternalServerError
	}

	WriteJSON(w, httpErr.Status, httpErr)
}
