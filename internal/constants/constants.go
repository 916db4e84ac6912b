package constants

import "time"

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout bounds a single HTTP attempt.
	DefaultHTTPTimeout = 30 * time.Second

	// AuthHTTPTimeout bounds a token exchange attempt.
	AuthHTTPTimeout = 15 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default number of retries after the initial
	// attempt.
	DefaultRetryMax = 4

	// AuthRetryMax bounds token exchange retries.
	AuthRetryMax = 2

	// DefaultRetryWaitMin is the minimum backoff between retries.
	DefaultRetryWaitMin = 500 * time.Millisecond

	// DefaultRetryWaitMax is the maximum backoff between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Token handling.
const (
	// TokenExpiryBuffer is the safety margin before expiry at which a
	// token is refreshed.
	TokenExpiryBuffer = 30 * time.Second
)

// Job polling.
const (
	// DefaultPollInterval is the initial delay between job status fetches.
	DefaultPollInterval = 2 * time.Second

	// DefaultPollMaxInterval caps the backed-off poll interval.
	DefaultPollMaxInterval = 15 * time.Second

	// DefaultPollTimeout bounds the total job wait.
	DefaultPollTimeout = 15 * time.Minute

	// PollBackoffMultiplier grows the poll interval between fetches.
	PollBackoffMultiplier = 1.5
)

// Pagination.
const (
	// DefaultPerPage is the page size requested when the caller does not
	// choose one.
	DefaultPerPage = 20
)
