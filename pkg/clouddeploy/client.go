package clouddeploy

import (
	"context"
	"time"
)

// Client is the entry point for talking to a Cloud Deploy installation.
// Construct one with the cdclient package.
type Client interface {
	Apps() AppsClient
	Deployments() DeploymentsClient
	Jobs() JobsClient

	// GetVersion returns the running Cloud Deploy service version.
	GetVersion(ctx context.Context) (*Version, error)
}

// AppsClient manages application definitions.
type AppsClient interface {
	// Create registers a new application. The request is validated locally
	// before any network call; set IdempotencyKey to make the create safe
	// to retry.
	Create(ctx context.Context, request *AppCreateRequest) (*App, error)
	Get(ctx context.Context, id string) (*App, error)
	// List fetches a single page of applications.
	List(ctx context.Context, params *QueryParams) (*Page[App], error)
	// Iterate returns a lazy iterator over all matching applications,
	// fetching follow-up pages on demand.
	Iterate(ctx context.Context, params *QueryParams) *PageIterator[App]
	// Update patches an application. The request's Etag, when set, is sent
	// as an If-Match precondition so concurrent edits are rejected.
	Update(ctx context.Context, id string, request *AppUpdateRequest) (*App, error)
	Delete(ctx context.Context, id string) error
}

// DeploymentsClient reads deployment history and starts rollbacks.
type DeploymentsClient interface {
	Get(ctx context.Context, id string) (*Deployment, error)
	List(ctx context.Context, params *QueryParams) (*Page[Deployment], error)
	Iterate(ctx context.Context, params *QueryParams) *PageIterator[Deployment]
	// Rollback starts a job that replays the module state prior to the
	// given deployment. The returned job is not awaited.
	Rollback(ctx context.Context, appID, deploymentID string) (*Job, error)
}

// JobsClient manages long-running jobs: creation through the typed command
// helpers, status reads, cancellation, and completion polling.
type JobsClient interface {
	Get(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context, params *QueryParams) (*Page[Job], error)
	Iterate(ctx context.Context, params *QueryParams) *PageIterator[Job]

	// Create submits a raw job request. Most callers should prefer the
	// typed command helpers below.
	Create(ctx context.Context, request *JobCreateRequest) (*Job, error)

	// Cancel asks the service to cancel a job server-side. It does not
	// wait for the cancellation to take effect.
	Cancel(ctx context.Context, id string) (*Job, error)

	// Command helpers. Each submits a job and returns immediately with the
	// accepted job handle; compose with PollUntilComplete to wait.
	Deploy(ctx context.Context, appID string, modules []ModuleRevision, opts *DeployOptions) (*Job, error)
	Redeploy(ctx context.Context, appID, deploymentID string, opts *DeployOptions) (*Job, error)
	BuildImage(ctx context.Context, appID string, opts *BuildImageOptions) (*Job, error)
	ExecuteScript(ctx context.Context, appID, script string, opts *ExecuteScriptOptions) (*Job, error)
	CreateInstance(ctx context.Context, appID string, opts *CreateInstanceOptions) (*Job, error)
	DestroyAllInstances(ctx context.Context, appID string) (*Job, error)
	RecreateInstances(ctx context.Context, appID string, strategy SafeDeploymentStrategy) (*Job, error)
	UpdateAutoscaling(ctx context.Context, appID string) (*Job, error)
	UpdateLifecycleHooks(ctx context.Context, appID string) (*Job, error)
	PrepareBlueGreen(ctx context.Context, appID string, copyImage, attachLoadBalancer bool) (*Job, error)
	PurgeBlueGreen(ctx context.Context, appID string) (*Job, error)
	SwapBlueGreen(ctx context.Context, appID string, strategy SwapStrategy) (*Job, error)

	// PollUntilComplete re-fetches the job status until it reaches a
	// terminal state, the wait budget is exhausted (ErrWaitTimeout), or ctx
	// is cancelled (ErrWaitCancelled). A nil opts uses the client defaults.
	PollUntilComplete(ctx context.Context, id string, opts *WaitOptions) (*Job, error)
}

// Logger is the logging hook accepted by the SDK. The cdclient package
// provides a zerolog-backed implementation.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config holds everything needed to build a Client.
//
// # Authentication precedence
//
//  1. AccessToken: used directly as a static Bearer token.
//  2. Username/Password: exchanged at TokenURL for a short-lived token,
//     refreshed transparently before expiry.
//
// If TokenURL is empty it defaults to "<endpoint>/auth/tokens".
type Config struct {
	// Endpoint is the base URL of the Cloud Deploy API
	// (e.g. "https://deploy.example.com"). cdclient.New trims a trailing
	// slash and adds "https://" when no scheme is present.
	Endpoint string

	// AccessToken, when set, is sent as-is on every request.
	AccessToken string
	// Username and Password are exchanged for a token when AccessToken is
	// empty.
	Username string
	Password string
	// TokenURL overrides the token exchange endpoint.
	TokenURL string

	// HTTPTimeout bounds each HTTP attempt. Zero means the default.
	HTTPTimeout time.Duration
	// RetryMax is the number of retries after the initial attempt for
	// transient failures (5xx, 429, connection errors). Zero means the
	// default; retries never apply to non-idempotent requests unless an
	// idempotency key is set.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// PollInterval is the initial delay between job status fetches;
	// PollMaxInterval caps the growing interval; PollTimeout bounds the
	// total wait. Zeroes mean the defaults.
	PollInterval    time.Duration
	PollMaxInterval time.Duration
	PollTimeout     time.Duration

	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// Logger receives request attempt and poll events. Nil disables logging.
	Logger Logger
	// Debug additionally logs request/response bodies through Logger.
	Debug bool
}

// WaitOptions tunes a single PollUntilComplete call.
type WaitOptions struct {
	// PollInterval is the initial delay between status fetches.
	PollInterval time.Duration
	// MaxInterval caps the backed-off interval so progress observation
	// stays responsive on long jobs.
	MaxInterval time.Duration
	// MaxWait bounds the total time spent waiting. When exceeded the wait
	// fails with ErrWaitTimeout; the job itself keeps running server-side.
	MaxWait time.Duration
	// OnProgress, when set, is invoked with every fetched snapshot,
	// including the terminal one.
	OnProgress func(*Job)
}
