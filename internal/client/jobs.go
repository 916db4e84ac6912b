package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/stackforge-io/clouddeploy-client/internal/constants"
	internalhttp "github.com/stackforge-io/clouddeploy-client/internal/http"
	"github.com/stackforge-io/clouddeploy-client/pkg/clouddeploy"
)

// JobsClient implements clouddeploy.JobsClient.
type JobsClient struct {
	httpClient *internalhttp.Client
	path       string

	pollInterval    time.Duration
	pollMaxInterval time.Duration
	pollTimeout     time.Duration
	logger          clouddeploy.Logger
}

// NewJobsClient creates a new jobs client. Poll defaults come from config;
// zeroes fall back to the package defaults.
func NewJobsClient(httpClient *internalhttp.Client, config *clouddeploy.Config) *JobsClient {
	schema, _ := clouddeploy.SchemaFor(clouddeploy.KindJob)

	c := &JobsClient{
		httpClient:      httpClient,
		path:            schema.Path,
		pollInterval:    constants.DefaultPollInterval,
		pollMaxInterval: constants.DefaultPollMaxInterval,
		pollTimeout:     constants.DefaultPollTimeout,
	}

	if config != nil {
		if config.PollInterval > 0 {
			c.pollInterval = config.PollInterval
		}

		if config.PollMaxInterval > 0 {
			c.pollMaxInterval = config.PollMaxInterval
		}

		if config.PollTimeout > 0 {
			c.pollTimeout = config.PollTimeout
		}

		c.logger = config.Logger
	}

	return c
}

// Get implements clouddeploy.JobsClient.
func (c *JobsClient) Get(ctx context.Context, id string) (*clouddeploy.Job, error) {
	resp, err := c.httpClient.Get(ctx, resourcePath(c.path, id), nil)
	if err != nil {
		return nil, err
	}

	var job clouddeploy.Job

	err = decodeInto(resp, &job, "job")
	if err != nil {
		return nil, err
	}

	return &job, nil
}

// List implements clouddeploy.JobsClient.
func (c *JobsClient) List(ctx context.Context, params *clouddeploy.QueryParams) (*clouddeploy.Page[clouddeploy.Job], error) {
	resp, err := c.httpClient.Get(ctx, c.path, params.ToValues())
	if err != nil {
		return nil, err
	}

	var page clouddeploy.Page[clouddeploy.Job]

	err = json.Unmarshal(resp.Body, &page)
	if err != nil {
		return nil, fmt.Errorf("parsing jobs page: %w", err)
	}

	return &page, nil
}

// Iterate implements clouddeploy.JobsClient.
func (c *JobsClient) Iterate(ctx context.Context, params *clouddeploy.QueryParams) *clouddeploy.PageIterator[clouddeploy.Job] {
	base := params.Clone()

	return clouddeploy.NewPageIterator(ctx, func(ctx context.Context, cursor string) (*clouddeploy.Page[clouddeploy.Job], error) {
		pageParams := base.Clone()
		pageParams.Cursor = cursor

		return c.List(ctx, pageParams)
	})
}

// Create implements clouddeploy.JobsClient.
func (c *JobsClient) Create(ctx context.Context, request *clouddeploy.JobCreateRequest) (*clouddeploy.Job, error) {
	err := clouddeploy.ValidateResource(request)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method:         http.MethodPost,
		Path:           c.path,
		Body:           request,
		IdempotencyKey: request.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	var job clouddeploy.Job

	err = decodeInto(resp, &job, "job")
	if err != nil {
		return nil, err
	}

	return &job, nil
}

// Cancel implements clouddeploy.JobsClient.
func (c *JobsClient) Cancel(ctx context.Context, id string) (*clouddeploy.Job, error) {
	resp, err := c.httpClient.Post(ctx, resourcePath(c.path, id)+"/actions/cancel", nil)
	if err != nil {
		return nil, err
	}

	var job clouddeploy.Job

	err = decodeInto(resp, &job, "job")
	if err != nil {
		return nil, err
	}

	return &job, nil
}

// Deploy implements clouddeploy.JobsClient. The job's options carry the
// deployment strategy, followed by the safe-deployment batch size when set.
func (c *JobsClient) Deploy(ctx context.Context, appID string, modules []clouddeploy.ModuleRevision, opts *clouddeploy.DeployOptions) (*clouddeploy.Job, error) {
	if opts == nil {
		opts = &clouddeploy.DeployOptions{}
	}

	err := clouddeploy.ValidateResource(opts)
	if err != nil {
		return nil, err
	}

	strategy := opts.Strategy
	if strategy == "" {
		strategy = clouddeploy.DeploymentStrategySerial
	}

	options := []string{string(strategy)}
	if opts.SafeStrategy != "" {
		options = append(options, string(opts.SafeStrategy))
	}

	return c.Create(ctx, &clouddeploy.JobCreateRequest{
		Kind:           clouddeploy.JobKindDeploy,
		AppID:          appID,
		Modules:        modules,
		Options:        options,
		IdempotencyKey: opts.IdempotencyKey,
	})
}

// Redeploy implements clouddeploy.JobsClient. It replays a past deployment;
// the deployment id goes first in the job options.
func (c *JobsClient) Redeploy(ctx context.Context, appID, deploymentID string, opts *clouddeploy.DeployOptions) (*clouddeploy.Job, error) {
	if deploymentID == "" {
		return nil, fmt.Errorf("%w: deployment id is required", clouddeploy.ErrValidation)
	}

	if opts == nil {
		opts = &clouddeploy.DeployOptions{}
	}

	err := clouddeploy.ValidateResource(opts)
	if err != nil {
		return nil, err
	}

	strategy := opts.Strategy
	if strategy == "" {
		strategy = clouddeploy.DeploymentStrategySerial
	}

	options := []string{deploymentID, string(strategy)}
	if opts.SafeStrategy != "" {
		options = append(options, string(opts.SafeStrategy))
	}

	return c.Create(ctx, &clouddeploy.JobCreateRequest{
		Kind:           clouddeploy.JobKindRedeploy,
		AppID:          appID,
		Options:        options,
		IdempotencyKey: opts.IdempotencyKey,
	})
}

// BuildImage implements clouddeploy.JobsClient.
func (c *JobsClient) BuildImage(ctx context.Context, appID string, opts *clouddeploy.BuildImageOptions) (*clouddeploy.Job, error) {
	if opts == nil {
		opts = &clouddeploy.BuildImageOptions{}
	}

	request := &clouddeploy.JobCreateRequest{
		Kind:           clouddeploy.JobKindBuildImage,
		AppID:          appID,
		Options:        []string{},
		InstanceType:   opts.InstanceType,
		IdempotencyKey: opts.IdempotencyKey,
	}

	if opts.SkipBootstrap != nil {
		request.Options = []string{strconv.FormatBool(*opts.SkipBootstrap)}
	}

	return c.Create(ctx, request)
}

// ExecuteScript implements clouddeploy.JobsClient. The script is normalized
// to LF line endings and sent base64-encoded. Job options carry, in order,
// the encoded script, the module context, the execution strategy, and the
// strategy argument (target instance IP for single, batch size otherwise).
func (c *JobsClient) ExecuteScript(ctx context.Context, appID, script string, opts *clouddeploy.ExecuteScriptOptions) (*clouddeploy.Job, error) {
	if strings.TrimSpace(script) == "" {
		return nil, fmt.Errorf("%w: script is empty", clouddeploy.ErrValidation)
	}

	if opts == nil {
		opts = &clouddeploy.ExecuteScriptOptions{}
	}

	err := clouddeploy.ValidateResource(opts)
	if err != nil {
		return nil, err
	}

	strategy := opts.Strategy
	if strategy == "" {
		strategy = clouddeploy.ScriptExecutionSerial
	}

	var strategyArg string

	switch strategy {
	case clouddeploy.ScriptExecutionSingle:
		if opts.InstanceIP == "" {
			return nil, fmt.Errorf("%w: single strategy requires an instance ip",
				clouddeploy.ErrValidation)
		}

		strategyArg = opts.InstanceIP
	case clouddeploy.ScriptExecutionSerial, clouddeploy.ScriptExecutionParallel:
		if opts.InstanceIP != "" {
			return nil, fmt.Errorf("%w: instance ip is only valid with the single strategy",
				clouddeploy.ErrValidation)
		}

		safeStrategy := opts.SafeStrategy
		if safeStrategy == "" {
			safeStrategy = clouddeploy.SafeDeploymentOneByOne
		}

		strategyArg = string(safeStrategy)
	}

	normalized := strings.ReplaceAll(script, "\r\n", "\n")
	encoded := base64.StdEncoding.EncodeToString([]byte(normalized))

	return c.Create(ctx, &clouddeploy.JobCreateRequest{
		Kind:           clouddeploy.JobKindExecuteScript,
		AppID:          appID,
		Options:        []string{encoded, opts.ModuleContext, string(strategy), strategyArg},
		IdempotencyKey: opts.IdempotencyKey,
	})
}

// CreateInstance implements clouddeploy.JobsClient.
func (c *JobsClient) CreateInstance(ctx context.Context, appID string, opts *clouddeploy.CreateInstanceOptions) (*clouddeploy.Job, error) {
	if opts == nil {
		opts = &clouddeploy.CreateInstanceOptions{}
	}

	err := clouddeploy.ValidateResource(opts)
	if err != nil {
		return nil, err
	}

	if opts.PrivateIPAddress != "" && opts.SubnetID == "" {
		return nil, fmt.Errorf("%w: a private ip address requires a subnet id",
			clouddeploy.ErrValidation)
	}

	options := []string{}
	if opts.SubnetID != "" {
		options = append(options, opts.SubnetID)

		if opts.PrivateIPAddress != "" {
			options = append(options, opts.PrivateIPAddress)
		}
	}

	return c.Create(ctx, &clouddeploy.JobCreateRequest{
		Kind:           clouddeploy.JobKindCreateInstance,
		AppID:          appID,
		Options:        options,
		IdempotencyKey: opts.IdempotencyKey,
	})
}

// DestroyAllInstances implements clouddeploy.JobsClient.
func (c *JobsClient) DestroyAllInstances(ctx context.Context, appID string) (*clouddeploy.Job, error) {
	return c.Create(ctx, &clouddeploy.JobCreateRequest{
		Kind:    clouddeploy.JobKindDestroyAllInstances,
		AppID:   appID,
		Options: []string{},
	})
}

// RecreateInstances implements clouddeploy.JobsClient. An empty strategy
// lets the service use its default batch size.
func (c *JobsClient) RecreateInstances(ctx context.Context, appID string, strategy clouddeploy.SafeDeploymentStrategy) (*clouddeploy.Job, error) {
	options := []string{}
	if strategy != "" {
		options = append(options, string(strategy))
	}

	return c.Create(ctx, &clouddeploy.JobCreateRequest{
		Kind:    clouddeploy.JobKindRecreateInstances,
		AppID:   appID,
		Options: options,
	})
}

// UpdateAutoscaling implements clouddeploy.JobsClient.
func (c *JobsClient) UpdateAutoscaling(ctx context.Context, appID string) (*clouddeploy.Job, error) {
	return c.Create(ctx, &clouddeploy.JobCreateRequest{
		Kind:    clouddeploy.JobKindUpdateAutoscaling,
		AppID:   appID,
		Options: []string{},
	})
}

// UpdateLifecycleHooks implements clouddeploy.JobsClient.
func (c *JobsClient) UpdateLifecycleHooks(ctx context.Context, appID string) (*clouddeploy.Job, error) {
	return c.Create(ctx, &clouddeploy.JobCreateRequest{
		Kind:    clouddeploy.JobKindUpdateLifecycleHooks,
		AppID:   appID,
		Options: []string{},
	})
}

// PrepareBlueGreen implements clouddeploy.JobsClient.
func (c *JobsClient) PrepareBlueGreen(ctx context.Context, appID string, copyImage, attachLoadBalancer bool) (*clouddeploy.Job, error) {
	return c.Create(ctx, &clouddeploy.JobCreateRequest{
		Kind:    clouddeploy.JobKindPrepareBlueGreen,
		AppID:   appID,
		Options: []string{strconv.FormatBool(copyImage), strconv.FormatBool(attachLoadBalancer)},
	})
}

// PurgeBlueGreen implements clouddeploy.JobsClient.
func (c *JobsClient) PurgeBlueGreen(ctx context.Context, appID string) (*clouddeploy.Job, error) {
	return c.Create(ctx, &clouddeploy.JobCreateRequest{
		Kind:    clouddeploy.JobKindPurgeBlueGreen,
		AppID:   appID,
		Options: []string{},
	})
}

// SwapBlueGreen implements clouddeploy.JobsClient. An empty strategy
// defaults to overlap.
func (c *JobsClient) SwapBlueGreen(ctx context.Context, appID string, strategy clouddeploy.SwapStrategy) (*clouddeploy.Job, error) {
	if strategy == "" {
		strategy = clouddeploy.SwapStrategyOverlap
	}

	return c.Create(ctx, &clouddeploy.JobCreateRequest{
		Kind:    clouddeploy.JobKindSwapBlueGreen,
		AppID:   appID,
		Options: []string{string(strategy)},
	})
}

// PollUntilComplete implements clouddeploy.JobsClient. The interval between
// fetches grows from PollInterval to MaxInterval; transient fetch failures
// (5xx, 429, connection errors) are tolerated and retried on the next tick,
// while client and auth errors surface immediately. The last successfully
// fetched snapshot is returned alongside timeout and cancellation errors.
func (c *JobsClient) PollUntilComplete(ctx context.Context, id string, opts *clouddeploy.WaitOptions) (*clouddeploy.Job, error) {
	interval := c.pollInterval
	maxInterval := c.pollMaxInterval
	maxWait := c.pollTimeout

	if opts != nil {
		if opts.PollInterval > 0 {
			interval = opts.PollInterval
		}

		if opts.MaxInterval > 0 {
			maxInterval = opts.MaxInterval
		}

		if opts.MaxWait > 0 {
			maxWait = opts.MaxWait
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = interval
	bo.MaxInterval = maxInterval
	bo.Multiplier = constants.PollBackoffMultiplier
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()

	deadline := time.Now().Add(maxWait)

	var job *clouddeploy.Job

	for {
		if ctx.Err() != nil {
			return job, fmt.Errorf("%w: %v", clouddeploy.ErrWaitCancelled, ctx.Err())
		}

		fetched, err := c.Get(ctx, id)

		switch {
		case err == nil:
			job = fetched

			if opts != nil && opts.OnProgress != nil {
				opts.OnProgress(job)
			}

			if job.Status.Terminal() {
				return c.finishPoll(job)
			}
		case transientPollError(err):
			if c.logger != nil {
				c.logger.Warn("Job poll fetch failed, will retry", map[string]interface{}{
					"job_id": id,
					"error":  err.Error(),
				})
			}
		default:
			return job, err
		}

		if time.Now().After(deadline) {
			return job, fmt.Errorf("%w: job %s still %s after %s",
				clouddeploy.ErrWaitTimeout, id, pollStatus(job), maxWait)
		}

		timer := time.NewTimer(bo.NextBackOff())
		select {
		case <-ctx.Done():
			timer.Stop()

			return job, fmt.Errorf("%w: %v", clouddeploy.ErrWaitCancelled, ctx.Err())
		case <-timer.C:
		}
	}
}

// finishPoll maps a terminal snapshot to the poll result. Succeeded is the
// only status that completes without error; the failure detail reported by
// the service is passed through verbatim.
func (c *JobsClient) finishPoll(job *clouddeploy.Job) (*clouddeploy.Job, error) {
	switch job.Status {
	case clouddeploy.JobStatusSucceeded:
		return job, nil
	case clouddeploy.JobStatusCancelled:
		return job, fmt.Errorf("%w: job %s was cancelled", clouddeploy.ErrJobFailed, job.ID)
	default:
		return job, fmt.Errorf("%w: %s", clouddeploy.ErrJobFailed, jobErrorDetail(job))
	}
}

// transientPollError reports whether a fetch failure is worth another poll
// tick rather than aborting the wait.
func transientPollError(err error) bool {
	return clouddeploy.IsServerError(err) ||
		clouddeploy.IsRateLimited(err) ||
		clouddeploy.IsTransportError(err)
}

// jobErrorDetail extracts the most specific failure message from a job.
func jobErrorDetail(job *clouddeploy.Job) string {
	if job.Error != "" {
		return job.Error
	}

	var messages []string

	for _, step := range job.Detail {
		if step.Status == "failed" && step.Message != "" {
			messages = append(messages, step.Name+": "+step.Message)
		}
	}

	if len(messages) > 0 {
		return strings.Join(messages, "; ")
	}

	return "no error details available"
}

func pollStatus(job *clouddeploy.Job) clouddeploy.JobStatus {
	if job == nil {
		return clouddeploy.JobStatusPending
	}

	return job.Status
}
