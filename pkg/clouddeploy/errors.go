package clouddeploy

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is an error reported by the Cloud Deploy service. Status carries
// the HTTP status class; Code and Message are the service's machine-readable
// code and human-readable detail.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}

	return fmt.Sprintf("%s: %s (status %d)", e.Code, e.Message, e.Status)
}

// ParseAPIError decodes a service error body. A body that is not the
// documented error shape is preserved verbatim in Message.
func ParseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Code = ""
		apiErr.Message = http.StatusText(status)

		if len(body) > 0 {
			apiErr.Message = string(body)
		}
	}

	return apiErr
}

// Static errors for err113 compliance.
var (
	// ErrTransport marks failures before any response was received
	// (connection refused, timeout, DNS).
	ErrTransport = errors.New("transport failure")
	// ErrAuth marks credential failures that survived the single forced
	// refresh-and-replay.
	ErrAuth = errors.New("authentication failed")
	// ErrValidation marks local pre-flight validation failures; no request
	// was sent.
	ErrValidation = errors.New("validation failed")
	// ErrJobFailed marks a job that reached the failed state; the wrapped
	// message carries the service-reported detail verbatim.
	ErrJobFailed = errors.New("job failed")
	// ErrWaitTimeout marks a poll wait that exceeded its budget. The job
	// itself is left running server-side.
	ErrWaitTimeout = errors.New("timed out waiting for job")
	// ErrWaitCancelled marks a poll wait abandoned by the caller. The
	// server-side job is not cancelled.
	ErrWaitCancelled = errors.New("job wait cancelled")
	// ErrNoMoreItems is returned by PageIterator.Next when the sequence is
	// exhausted.
	ErrNoMoreItems = errors.New("no more items")

	ErrConfigRequired      = errors.New("config is required")
	ErrEndpointRequired    = errors.New("API endpoint is required")
	ErrCredentialsRequired = errors.New("an access token or username/password is required")
)

// IsNotFound reports whether err is a service 404.
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

// IsAuthError reports whether err is a credential failure, either local
// (refresh failed) or service-reported (401/403).
func IsAuthError(err error) bool {
	if errors.Is(err, ErrAuth) {
		return true
	}

	status := statusOf(err)

	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// IsClientError reports whether err is a non-retryable 4xx response.
func IsClientError(err error) bool {
	status := statusOf(err)

	return status >= 400 && status < 500 && status != http.StatusTooManyRequests
}

// IsServerError reports whether err is a 5xx response that survived the
// retry budget.
func IsServerError(err error) bool {
	return statusOf(err) >= 500
}

// IsRateLimited reports whether err is a 429 response that survived the
// retry budget.
func IsRateLimited(err error) bool {
	return statusOf(err) == http.StatusTooManyRequests
}

// IsTransportError reports whether err occurred before any response was
// received.
func IsTransportError(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsValidationError reports whether err is a local pre-flight validation
// failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func statusOf(err error) int {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}

	return 0
}
