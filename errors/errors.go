package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types for categorization and handling

var (
	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid user input
	ErrInvalidInput = errors.New("invalid input")

	// ErrServiceUnavailable indicates the backend is unavailable
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrTransport indicates the request never completed
	ErrTransport = errors.New("transport failure")

	// ErrHTTPStatus indicates the backend answered with a non-success status
	ErrHTTPStatus = errors.New("http status failure")

	// ErrDecode indicates a success body could not be decoded
	ErrDecode = errors.New("decode failure")
)

// APIError is the single failure shape returned by the API client. Error()
// yields only the human readable message so it can go straight to the UI.
type APIError struct {
	StatusCode int
	Message    string
	Kind       error
	Err        error
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap exposes the kind, the status class and the underlying cause.
func (e *APIError) Unwrap() []error {
	errs := make([]error, 0, 3)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if class := statusClass(e.StatusCode); class != nil {
		errs = append(errs, class)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func statusClass(code int) error {
	switch code {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrInvalidInput
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrServiceUnavailable
	}
	return nil
}

// NewStatusError builds the failure for a non-success HTTP response.
func NewStatusError(statusCode int, message string) *APIError {
	return &APIError{StatusCode: statusCode, Message: message, Kind: ErrHTTPStatus}
}

// NewTransportError builds the failure for a request that never completed.
func NewTransportError(err error) *APIError {
	return &APIError{Message: fmt.Sprintf("request failed: %v", err), Kind: ErrTransport, Err: err}
}

// NewDecodeError builds the failure for a malformed success body.
func NewDecodeError(err error) *APIError {
	return &APIError{Message: fmt.Sprintf("invalid response: %v", err), Kind: ErrDecode, Err: err}
}

// NewInvalidInput builds a failure raised before any network I/O.
func NewInvalidInput(format string, args ...interface{}) *APIError {
	return &APIError{Message: fmt.Sprintf(format, args...), Kind: ErrInvalidInput}
}

// WrapError prefixes err with the operation that failed. Message still
// reports the inner APIError text, so callers that show errors to the user
// are unaffected by the prefix.
func WrapError(err error, op string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// WrapErrorf is WrapError with a formatted prefix.
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return WrapError(err, fmt.Sprintf(format, args...))
}

// Message returns the user facing text of err. APIErrors anywhere in the chain
// win over the wrapped text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput checks if error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsServiceUnavailable checks if error is a service unavailable error
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

// IsTransport checks if the request never reached the backend
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsDecode checks if the backend sent a malformed success body
func IsDecode(err error) bool {
	return errors.Is(err, ErrDecode)
}
