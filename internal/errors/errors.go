package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrPropertyNotFound is returned when a property is not found.
	ErrPropertyNotFound = errors.New("property not found")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidQuery is returned for unsupported sort or pagination parameters.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidInput is returned when a request payload is malformed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPhotoUpload is returned when the photo store rejects an upload.
	ErrPhotoUpload = errors.New("photo upload failed")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Message: e.Message,
		Code:    e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Not-found conditions are
// always 404, input problems 400, and anything else 500 with the raw message.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrPropertyNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "PROPERTY_NOT_FOUND")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrInvalidQuery):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_QUERY")
	case errors.Is(err, ErrInvalidInput):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_INPUT")
	case errors.Is(err, ErrPhotoUpload):
		return NewHTTPError(http.StatusInternalServerError, err.Error(), "PHOTO_UPLOAD_FAILED")
	default:
		return NewHTTPError(http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}
