// Package errors provides the API error envelope rendered by the HTTP
// transport. Every handler failure goes through one of these constructors so
// clients always see the same shape.
package errors

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	Err            error  `json:"-"`
	HTTPStatusCode int    `json:"-"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	Status         int    `json:"status"`
	Detail         string `json:"detail,omitempty"`
	Instance       string `json:"instance,omitempty"`
	TraceID        string `json:"trace_id,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// Render implements the render.Renderer interface
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	e.Instance = r.URL.Path
	e.Timestamp = time.Now().UTC().Format(time.RFC3339)
	if traceID := r.Header.Get("X-Trace-ID"); traceID != "" {
		e.TraceID = traceID
	}
	return nil
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Title, e.Err)
	}
	return e.Title
}

// Unwrap returns the wrapped error
func (e *APIError) Unwrap() error {
	return e.Err
}

// New creates a new APIError
func New(status int, errType, title string) *APIError {
	return &APIError{
		HTTPStatusCode: status,
		Type:           errType,
		Title:          title,
		Status:         status,
	}
}

// NewWithDetails creates a new APIError with detail text
func NewWithDetails(status int, errType, title, detail string) *APIError {
	apiErr := New(status, errType, title)
	apiErr.Detail = detail
	return apiErr
}

// WithError attaches an underlying error
func (e *APIError) WithError(err error) *APIError {
	e.Err = err
	return e
}

// Common error constructors

// ErrValidation creates a validation error response
func ErrValidation(err error, detail string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "validation_error", "Validation failed", detail).WithError(err)
}

// ErrNotFound creates a not found error response
func ErrNotFound(resource string) *APIError {
	return NewWithDetails(http.StatusNotFound, "not_found", "Resource not found",
		fmt.Sprintf("%s not found", resource))
}

// ErrBadRequest creates a bad request error response
func ErrBadRequest(err error, detail string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "bad_request", "Bad request", detail).WithError(err)
}

// ErrUnprocessable creates an unprocessable entity error response
func ErrUnprocessable(err error, detail string) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, "unprocessable", "Unprocessable input", detail).WithError(err)
}

// ErrInternal creates an internal server error response
func ErrInternal(err error) *APIError {
	return NewWithDetails(http.StatusInternalServerError, "internal_error", "Internal server error",
		"An unexpected error occurred").WithError(err)
}
