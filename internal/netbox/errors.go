package netbox

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

var (
	// ErrNotFound indicates the downstream resource does not exist.
	ErrNotFound = errors.New("netbox: not found")
	// ErrUnauthorized indicates the downstream rejected our credentials.
	ErrUnauthorized = errors.New("netbox: unauthorized")
)

// APIError is a non-2xx response from the downstream API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("netbox: HTTP %d: %s", e.Status, e.Message)
}

// Is maps well-known statuses onto the package sentinels so callers can use
// errors.Is without inspecting status codes.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == 404
	case ErrUnauthorized:
		return e.Status == 401 || e.Status == 403
	}
	return false
}

// Retryable classifies an error as transient (network/timeout/5xx) or
// terminal (4xx, decode failures, everything else).
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
