package serper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// RequestError is a per-keyword fetch failure. StatusCode is zero when the
// request never produced an HTTP response.
type RequestError struct {
	Keyword    string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %q: status %d: %v", e.Keyword, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %q: %v", e.Keyword, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ErrorTypeLabel buckets a fetch error into a stable label used for logging
// and metrics.
func ErrorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "connection"
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		switch {
		case reqErr.StatusCode == http.StatusUnauthorized || reqErr.StatusCode == http.StatusForbidden:
			return "auth"
		case reqErr.StatusCode == http.StatusTooManyRequests:
			return "rate_limited"
		case reqErr.StatusCode >= http.StatusInternalServerError:
			return "server"
		case reqErr.StatusCode >= http.StatusBadRequest:
			return "client"
		case reqErr.StatusCode == 0:
			return "transport"
		}
	}
	return "other"
}
