package exporter

import (
	"errors"
	"fmt"
)

var (
	// ErrNilTransport is returned when a pipeline is built without a transport.
	ErrNilTransport = errors.New("exporter: transport must not be nil")

	// ErrMissingEndpoint is returned when the HTTP transport has no endpoint,
	// neither explicit nor derivable from the connection string.
	ErrMissingEndpoint = errors.New("exporter: no endpoint configured")

	// ErrInvalidConnectionString is returned for a connection string that
	// does not parse as semicolon-separated key=value pairs.
	ErrInvalidConnectionString = errors.New("exporter: invalid connection string")

	// ErrInvalidInstrumentationKey is returned when the instrumentation key
	// is not a valid UUID.
	ErrInvalidInstrumentationKey = errors.New("exporter: invalid instrumentation key")
)

// TransportError classifies a delivery failure. The pipeline retries
// retryable errors with backoff and short-circuits on terminal ones.
type TransportError struct {
	// Err is the underlying failure.
	Err error

	// Terminal marks failures that retrying cannot fix (authentication,
	// malformed payload). Terminal errors drop the batch immediately.
	Terminal bool

	// StatusCode is the HTTP status that produced the classification,
	// or 0 for network-level failures.
	StatusCode int
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	class := "retryable"
	if e.Terminal {
		class = "terminal"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("exporter: %s transport error (status %d): %v", class, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("exporter: %s transport error: %v", class, e.Err)
}

// Unwrap returns the underlying failure.
func (e *TransportError) Unwrap() error { return e.Err }

// Retryable wraps err as a retryable transport failure.
func Retryable(err error) error {
	return &TransportError{Err: err}
}

// Terminal wraps err as a terminal transport failure.
func Terminal(err error) error {
	return &TransportError{Err: err, Terminal: true}
}

// IsTerminal reports whether err is classified terminal. Unclassified
// errors are treated as retryable; an unknown failure may well be a
// transient one, and the attempt budget bounds the cost of guessing wrong.
func IsTerminal(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Terminal
}
