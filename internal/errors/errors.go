// Package errors maps forecasting failures onto structured API errors rendered through chi render.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError names the offending field of a request
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

var (
	ErrMissingFile       = New(http.StatusBadRequest, "MISSING_FILE", "Waiting for a CSV upload.")
	ErrPayloadTooLarge   = New(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "The uploaded file is too large.")
	ErrNotFound          = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests, try again shortly.")
	ErrInternalServer    = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

// InvalidUpload reports a file the data preparer could not turn into a daily series
func InvalidUpload(err error) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, "INVALID_UPLOAD",
		fmt.Sprintf("Error processing the file: %v. Check that the CSV has valid dates and numbers.", err),
		err.Error())
}

// ForecastFailed reports a model that could not be fitted or projected
func ForecastFailed(err error) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, "FORECAST_FAILED",
		fmt.Sprintf("Unable to generate the forecast: %v.", err),
		err.Error())
}

// Validation reports a request field outside its allowed range
func Validation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed: "+message,
		ValidationError{Field: field, Message: message})
}

// As extracts an APIError from err, wrapping unknown errors as internal server errors.
func As(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return NewWithDetails(ErrPayloadTooLarge.StatusCode, ErrPayloadTooLarge.ErrorCode, ErrPayloadTooLarge.Message,
			map[string]int64{"max_bytes": maxErr.Limit})
	}
	return NewWithDetails(ErrInternalServer.StatusCode, ErrInternalServer.ErrorCode, ErrInternalServer.Message, err.Error())
}
