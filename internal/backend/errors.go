package backend

import (
	"fmt"
	"strings"
)

// UnreachableError means no usable response was received: the connection could
// not be established, the deadline passed, the caller cancelled, or the
// connection dropped while the body was read.
type UnreachableError struct {
	Endpoint string
	Err      error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("backend %s unreachable: %v", e.Endpoint, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// StatusError means the backend answered with a non-2xx status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if body == "" {
		return fmt.Sprintf("backend %s failed with status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("backend %s failed with status %d: %s", e.Endpoint, e.StatusCode, body)
}
