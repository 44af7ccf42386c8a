package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/containerd/errdefs"
)

// TransportError reports that the daemon socket could not be reached at all:
// dial refused, connection reset, response never read. It matches
// errdefs.IsUnavailable so callers can treat it like any other outage.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("daemon transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool {
	return target == errdefs.ErrUnavailable
}

// DaemonError is a non-success response from the daemon API. It unwraps to
// the canonical errdefs class for its status code, so callers match with
// errdefs.IsNotFound and friends instead of comparing raw codes.
type DaemonError struct {
	StatusCode int
	Body       string
}

func (e *DaemonError) Error() string {
	if msg := daemonMessage(e.Body); msg != "" {
		return fmt.Sprintf("daemon: %s (status %d)", msg, e.StatusCode)
	}
	return fmt.Sprintf("daemon: status %d", e.StatusCode)
}

func (e *DaemonError) Unwrap() error {
	return statusClass(e.StatusCode)
}

// daemonMessage pulls the error text out of an error envelope. Bodies of
// unexpected shape are surfaced as-is.
func daemonMessage(body string) string {
	var env struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &env); err == nil && env.Error != "" {
		return env.Error
	}
	return strings.TrimSpace(body)
}

func statusClass(code int) error {
	switch code {
	case http.StatusBadRequest:
		return errdefs.ErrInvalidArgument
	case http.StatusUnauthorized:
		return errdefs.ErrUnauthenticated
	case http.StatusForbidden:
		return errdefs.ErrPermissionDenied
	case http.StatusNotFound:
		return errdefs.ErrNotFound
	case http.StatusConflict:
		return errdefs.ErrConflict
	case http.StatusPreconditionFailed:
		return errdefs.ErrFailedPrecondition
	case http.StatusTooManyRequests:
		return errdefs.ErrResourceExhausted
	case http.StatusInternalServerError:
		return errdefs.ErrInternal
	case http.StatusNotImplemented:
		return errdefs.ErrNotImplemented
	case http.StatusServiceUnavailable:
		return errdefs.ErrUnavailable
	default:
		return errdefs.ErrUnknown
	}
}
