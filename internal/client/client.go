// Package client implements the clouddeploy.Client interface on top of the
// internal transport and auth layers.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stackforge-io/clouddeploy-client/internal/auth"
	internalhttp "github.com/stackforge-io/clouddeploy-client/internal/http"
	"github.com/stackforge-io/clouddeploy-client/pkg/clouddeploy"
)

// Client is the concrete clouddeploy.Client.
type Client struct {
	httpClient   *internalhttp.Client
	tokenManager auth.TokenManager
	config       *clouddeploy.Config

	apps        *AppsClient
	deployments *DeploymentsClient
	jobs        *JobsClient
}

// New creates a client from a normalized config. Endpoint and TokenURL must
// already be resolved; cdclient.New takes care of that.
func New(config *clouddeploy.Config) (*Client, error) {
	tokenManager, err := buildTokenManager(config)
	if err != nil {
		return nil, err
	}

	httpClient := internalhttp.NewClient(config.Endpoint, tokenManager, httpOptions(config)...)

	c := &Client{
		httpClient:   httpClient,
		tokenManager: tokenManager,
		config:       config,
	}

	c.initializeResourceClients()

	return c, nil
}

func buildTokenManager(config *clouddeploy.Config) (auth.TokenManager, error) {
	if config.AccessToken != "" {
		return auth.NewStaticTokenManager(config.AccessToken), nil
	}

	if config.Username != "" || config.Password != "" {
		if config.Username == "" || config.Password == "" {
			return nil, fmt.Errorf("%w: username and password must both be set",
				clouddeploy.ErrCredentialsRequired)
		}

		return auth.NewPasswordTokenManager(&auth.PasswordConfig{
			TokenURL:    config.TokenURL,
			Username:    config.Username,
			Password:    config.Password,
			RetryMax:    config.RetryMax,
			HTTPTimeout: config.HTTPTimeout,
		}), nil
	}

	// No credentials: requests go out unauthenticated. Useful against local
	// or test installations.
	return nil, nil
}

func httpOptions(config *clouddeploy.Config) []internalhttp.Option {
	var opts []internalhttp.Option

	if config.Logger != nil {
		opts = append(opts, internalhttp.WithLogger(config.Logger))
	}

	if config.Debug {
		opts = append(opts, internalhttp.WithDebug(true))
	}

	if config.UserAgent != "" {
		opts = append(opts, internalhttp.WithUserAgent(config.UserAgent))
	}

	if config.RetryMax > 0 || config.RetryWaitMin > 0 || config.RetryWaitMax > 0 {
		opts = append(opts, internalhttp.WithRetryConfig(
			config.RetryMax, config.RetryWaitMin, config.RetryWaitMax))
	}

	if config.HTTPTimeout > 0 {
		opts = append(opts, internalhttp.WithHTTPTimeout(config.HTTPTimeout))
	}

	return opts
}

func (c *Client) initializeResourceClients() {
	c.apps = NewAppsClient(c.httpClient)
	c.deployments = NewDeploymentsClient(c.httpClient)
	c.jobs = NewJobsClient(c.httpClient, c.config)
	c.deployments.jobs = c.jobs
}

// Apps implements clouddeploy.Client.
func (c *Client) Apps() clouddeploy.AppsClient {
	return c.apps
}

// Deployments implements clouddeploy.Client.
func (c *Client) Deployments() clouddeploy.DeploymentsClient {
	return c.deployments
}

// Jobs implements clouddeploy.Client.
func (c *Client) Jobs() clouddeploy.JobsClient {
	return c.jobs
}

// GetVersion implements clouddeploy.Client.
func (c *Client) GetVersion(ctx context.Context) (*clouddeploy.Version, error) {
	resp, err := c.httpClient.Get(ctx, "/version", nil)
	if err != nil {
		return nil, err
	}

	var version clouddeploy.Version

	err = json.Unmarshal(resp.Body, &version)
	if err != nil {
		return nil, fmt.Errorf("parsing version response: %w", err)
	}

	return &version, nil
}

// decodeInto unmarshals a response body into out with a contextual error.
func decodeInto(resp *internalhttp.Response, out interface{}, what string) error {
	err := json.Unmarshal(resp.Body, out)
	if err != nil {
		return fmt.Errorf("parsing %s response: %w", what, err)
	}

	return nil
}

// resourcePath joins a collection path and a resource id.
func resourcePath(collection, id string) string {
	return collection + "/" + strings.TrimPrefix(id, "/")
}
