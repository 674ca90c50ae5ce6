// Package errors defines the sentinel errors shared by the catalog, the index
// engine and the search service, plus the mapping from those errors to HTTP
// status codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMalformedDocument = errors.New("malformed document")
	ErrIndexNotBuilt     = errors.New("search index not built")
	ErrEmptyStore        = errors.New("document store is empty")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnavailable       = errors.New("search unavailable")
)

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

// HTTPStatusCode picks the response status for err. An AppError carries its
// own code; bare sentinels are mapped by kind.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrIndexNotBuilt), errors.Is(err, ErrUnavailable),
		errors.Is(err, ErrMalformedDocument), errors.Is(err, ErrEmptyStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
