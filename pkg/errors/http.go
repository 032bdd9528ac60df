package errors

import "net/http"

type HTTPError struct {
	Code       int
	Message    string
	StatusCode int
}

func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// WithStatus returns a copy answering with statusCode instead of 400.
func (e HTTPError) WithStatus(statusCode int) *HTTPError {
	e.StatusCode = statusCode
	return &e
}

func (e HTTPError) Error() string {
	return e.Message
}

var (
	ErrInvalidBody   = NewHTTPError(10001, "Invalid request body")
	ErrValidation    = NewHTTPError(10002, "Validation failed")
	ErrUnauthorized  = NewHTTPError(10003, "Unauthorized").WithStatus(http.StatusUnauthorized)
	ErrNotFound      = NewHTTPError(10004, "Not found").WithStatus(http.StatusNotFound)
	ErrInternalError = NewHTTPError(10500, "Internal server error").WithStatus(http.StatusInternalServerError)
)
