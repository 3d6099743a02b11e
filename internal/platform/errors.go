package platform

import (
	"errors"
	"fmt"
)

// Platform application error codes that signal throttling, in addition to
// HTTP 429: 4 (app-level), 17 (user-level), 32 (page-level).
var throttleCodes = map[int]bool{4: true, 17: true, 32: true}

// APIError is the structured error returned by the ads platform. Retryable is
// set when the error is a throttle signal, so callers can requeue instead of
// failing permanently.
type APIError struct {
	Status    int    `json:"status"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform error %d (code %d): %s", e.Status, e.Code, e.Message)
}

// IsThrottle reports whether the platform is asking us to back off.
func (e *APIError) IsThrottle() bool {
	return e.Status == 429 || throttleCodes[e.Code]
}

// IsRetryable reports whether err is, or wraps, a throttle error that
// exhausted retries and may be requeued by an outer scheduler.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	return false
}
