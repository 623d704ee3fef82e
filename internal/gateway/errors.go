package gateway

import (
	"errors"
	"fmt"
)

// ErrMissingCredentials aborts the whole run: no client can be ingested
// without a session.
var ErrMissingCredentials = errors.New("gateway credentials are required")

// APIError is a non-2xx gateway response. The fetcher treats it as an empty
// per-item result, never as a batch failure.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("gateway api error: %s", e.Status)
	}
	return fmt.Sprintf("gateway api error: %s: %s", e.Status, e.Body)
}

// ShapeError is a malformed remote payload (bad envelope, bad JSON).
// Callers substitute an empty result for the item.
type ShapeError struct {
	Op  string
	Err error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("gateway %s: malformed response: %v", e.Op, e.Err)
}

func (e *ShapeError) Unwrap() error { return e.Err }
