// Package errors defines the service-wide error taxonomy and its mapping
// to HTTP status codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMalformedQuery covers unparseable query strings and phrase
	// tokens of unrecognized shape. Client-input fault.
	ErrMalformedQuery = errors.New("malformed query")
	// ErrUnsupportedField means a term referenced a field with no
	// registered query builder. Configuration fault: a correctly
	// provisioned mapping covers the whole field enumeration.
	ErrUnsupportedField = errors.New("unsupported search field")
	// ErrPaperNotFound means no paper exists for the given identifier.
	ErrPaperNotFound = errors.New("paper not found")
	// ErrInvalidIdentifier means a paper identifier is empty or malformed.
	ErrInvalidIdentifier = errors.New("invalid paper identifier")
	// ErrFulltextUnavailable means the fulltext endpoint could not be
	// reached or returned an unusable response.
	ErrFulltextUnavailable = errors.New("fulltext unavailable")
	ErrInvalidInput        = errors.New("invalid input")
	ErrTimeout             = errors.New("operation timed out")
	ErrInternal            = errors.New("internal error")
)

// AppError attaches a human-readable message and an HTTP status to a
// sentinel.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error to the status code it should surface as.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrMalformedQuery), errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidIdentifier):
		return http.StatusBadRequest
	case errors.Is(err, ErrPaperNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrFulltextUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		// ErrUnsupportedField lands here on purpose: a missing builder is
		// a server misconfiguration, not a client mistake.
		return http.StatusInternalServerError
	}
}
