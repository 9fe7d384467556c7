package domain

import (
	"errors"
	"fmt"
)

var (
	// Batch contains points of both systems.
	ErrMixedBatch = errors.New("batch mixes grid and geodetic points")
	// Explicit direction contradicts the magnitude of the input.
	ErrDirectionMismatch = errors.New("points do not match direction")
	// Correction grid is neither on the search path nor downloadable.
	ErrGridNotFound = errors.New("correction grid not found")
	// Binary was built without the PROJ library.
	ErrEngineUnavailable = errors.New("projection engine unavailable")
	// A conversion yielded NaN or an infinite coordinate.
	ErrNonFinite = errors.New("non-finite coordinate")
)

// TransportError reports a non-success HTTP response.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: %s: unexpected status %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s: unexpected status %d: %s", e.Op, e.URL, e.StatusCode, e.Body)
}

// MalformedResponseError reports a remote response lacking an expected field.
type MalformedResponseError struct {
	URL   string
	Field string
	Err   error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response from %s: field %q: %v", e.URL, e.Field, e.Err)
	}
	return fmt.Sprintf("malformed response from %s: missing field %q", e.URL, e.Field)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// IsTransport reports whether err stems from a non-success HTTP response.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsMalformed reports whether err stems from an unusable remote response.
func IsMalformed(err error) bool {
	var me *MalformedResponseError
	return errors.As(err, &me)
}
