// Package cursor talks to the Cursor billing and usage API.
package cursor

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError indicates a request never completed or came back with a
// non-success status. Status is 0 when no response arrived at all.
type TransportError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PayloadError indicates a response arrived but its body did not match the
// expected shape.
type PayloadError struct {
	Endpoint string
	Err      error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Endpoint, e.Err)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a transport error carrying a 401,
// which means the stored session token is stale.
func IsUnauthorized(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Status == http.StatusUnauthorized
}
