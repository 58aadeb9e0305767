package upstream

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrNoSession is returned when an authenticated endpoint is called without
// a bearer token in the request context.
var ErrNoSession = errors.New("no authenticated session")

// StatusError is a non-2xx response from the commerce backend, carrying the
// backend's message when one was parseable.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Code)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Message)
}

// DecodeError is a malformed backend payload. It is raised at the parse
// boundary so a bad response never surfaces as a nil-field access deeper in
// the service.
type DecodeError struct {
	Entity string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s payload: %v", e.Entity, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
