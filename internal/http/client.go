// Package http implements the request executor shared by all resource
// clients: URL building, auth header attachment, retry with backoff, and
// response classification.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/stackforge-io/clouddeploy-client/internal/auth"
	"github.com/stackforge-io/clouddeploy-client/internal/constants"
	"github.com/stackforge-io/clouddeploy-client/pkg/clouddeploy"
)

const (
	defaultUserAgent     = "clouddeploy-client-go"
	headerIdempotencyKey = "Idempotency-Key"
)

// Logger mirrors clouddeploy.Logger so this package stays free of the
// public package's other surface.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Request describes one API call. It is immutable once built; a retried
// call reuses it verbatim apart from a fresh auth header.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    interface{}

	// IdempotencyKey marks a non-idempotent request (POST/PATCH) safe to
	// retry; it is sent as an Idempotency-Key header.
	IdempotencyKey string
}

// Response is the outcome of a request.
type Response struct {
	StatusCode int
	Headers    nethttp.Header
	Body       []byte
}

// Client executes requests against the Cloud Deploy API.
type Client struct {
	baseURL      string
	tokenManager auth.TokenManager
	retryClient  *retryablehttp.Client
	logger       Logger
	debug        bool
	userAgent    string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger receiving attempt events.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug additionally logs request/response bodies.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig tunes the retry budget for transient failures.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.retryClient.RetryMax = retryMax
		c.retryClient.RetryWaitMin = waitMin
		c.retryClient.RetryWaitMax = waitMax
	}
}

// WithHTTPTimeout bounds each HTTP attempt.
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.retryClient.HTTPClient.Timeout = timeout
	}
}

// NewClient creates a client for the API at baseURL. tokenManager may be
// nil for unauthenticated access.
func NewClient(baseURL string, tokenManager auth.TokenManager, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.CheckRetry = checkRetry
	// Keep the final response when the retry budget runs out so a
	// persistent 5xx classifies as an API error, not a transport failure.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		tokenManager: tokenManager,
		retryClient:  retryClient,
		userAgent:    defaultUserAgent,
	}

	retryClient.RequestLogHook = func(_ retryablehttp.Logger, req *nethttp.Request, attempt int) {
		client.logAttempt(req.Method, req.URL.Path, attempt+1)
	}

	retryClient.ResponseLogHook = func(_ retryablehttp.Logger, resp *nethttp.Response) {
		client.logOutcome(resp.Request.Method, resp.Request.URL.Path, map[string]interface{}{
			"status": resp.StatusCode,
		})
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// checkRetry retries 429 and 5xx responses plus connection-level failures.
// Everything else, including all other 4xx, surfaces after one attempt.
func checkRetry(ctx context.Context, resp *nethttp.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	if resp.StatusCode == nethttp.StatusTooManyRequests || resp.StatusCode >= 500 {
		return true, nil
	}

	return false, nil
}

// Do executes a request. 2xx returns the response; other statuses return
// the response together with a *clouddeploy.APIError. A 401 triggers one
// forced credential refresh and a single replay before surfacing.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == nethttp.StatusUnauthorized && c.tokenManager != nil {
		c.tokenManager.Invalidate()

		resp, err = c.send(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	return resp, clouddeploy.ParseAPIError(resp.StatusCode, resp.Body)
}

// send performs one classified request cycle: build, authenticate, execute
// (with retries when permitted), and read the body.
func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	fullURL := c.baseURL + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var bodyBytes []byte

	if req.Body != nil {
		var err error

		bodyBytes, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, req.Method, fullURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if req.IdempotencyKey != "" {
		httpReq.Header.Set(headerIdempotencyKey, req.IdempotencyKey)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if c.tokenManager != nil {
		token, err := c.tokenManager.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting token: %w", err)
		}

		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	if c.logger != nil && c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
			"body":   string(bodyBytes),
		})
	}

	httpResp, err := c.execute(httpReq, bodyBytes, c.isRetryable(req))
	if err != nil {
		c.logOutcome(req.Method, req.Path, map[string]interface{}{"error": err.Error()})

		return nil, fmt.Errorf("%w: %s %s: %v", clouddeploy.ErrTransport, req.Method, req.Path, err)
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", clouddeploy.ErrTransport, err)
	}

	if c.logger != nil && c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
			"status": httpResp.StatusCode,
			"body":   string(respBody),
		})
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}, nil
}

// isRetryable reports whether the request may be re-sent without risking
// duplicate side effects. Creates and patches qualify only when the caller
// supplied an idempotency key.
func (c *Client) isRetryable(req *Request) bool {
	switch req.Method {
	case nethttp.MethodGet, nethttp.MethodHead, nethttp.MethodPut, nethttp.MethodDelete:
		return true
	}

	return req.IdempotencyKey != ""
}

// logAttempt and logOutcome make every attempt observable: a numbered
// attempt event followed by its status or error.
func (c *Client) logAttempt(method, path string, attempt int) {
	if c.logger != nil {
		c.logger.Debug("HTTP Attempt", map[string]interface{}{
			"method":  method,
			"path":    path,
			"attempt": attempt,
		})
	}
}

func (c *Client) logOutcome(method, path string, fields map[string]interface{}) {
	if c.logger != nil {
		fields["method"] = method
		fields["path"] = path
		c.logger.Debug("HTTP Attempt Outcome", fields)
	}
}

// execute runs the request through the retry client when retries are
// permitted, or as a single attempt otherwise.
func (c *Client) execute(httpReq *nethttp.Request, body []byte, retryable bool) (*nethttp.Response, error) {
	if !retryable {
		c.logAttempt(httpReq.Method, httpReq.URL.Path, 1)

		resp, err := c.retryClient.HTTPClient.Do(httpReq)
		if err == nil {
			c.logOutcome(httpReq.Method, httpReq.URL.Path, map[string]interface{}{
				"status": resp.StatusCode,
			})
		}

		return resp, err
	}

	retryReq, err := retryablehttp.FromRequest(httpReq)
	if err != nil {
		return nil, err
	}

	if body != nil {
		err = retryReq.SetBody(body)
		if err != nil {
			return nil, err
		}
	}

	return c.retryClient.Do(retryReq)
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodGet, Path: path, Query: query})
}

// Post issues a POST request. Use Do with an IdempotencyKey to make a
// create retryable.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodPost, Path: path, Body: body})
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodPut, Path: path, Body: body})
}

// Patch issues a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodPatch, Path: path, Body: body})
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodDelete, Path: path})
}
