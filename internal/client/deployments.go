package client

import (
	"context"
	"encoding/json"
	"fmt"

	internalhttp "github.com/stackforge-io/clouddeploy-client/internal/http"
	"github.com/stackforge-io/clouddeploy-client/pkg/clouddeploy"
)

// DeploymentsClient implements clouddeploy.DeploymentsClient.
type DeploymentsClient struct {
	httpClient *internalhttp.Client
	path       string

	// jobs submits the rollback job; deployments themselves are read-only.
	jobs *JobsClient
}

// NewDeploymentsClient creates a new deployments client.
func NewDeploymentsClient(httpClient *internalhttp.Client) *DeploymentsClient {
	schema, _ := clouddeploy.SchemaFor(clouddeploy.KindDeployment)

	return &DeploymentsClient{
		httpClient: httpClient,
		path:       schema.Path,
	}
}

// Get implements clouddeploy.DeploymentsClient.
func (c *DeploymentsClient) Get(ctx context.Context, id string) (*clouddeploy.Deployment, error) {
	resp, err := c.httpClient.Get(ctx, resourcePath(c.path, id), nil)
	if err != nil {
		return nil, err
	}

	var deployment clouddeploy.Deployment

	err = decodeInto(resp, &deployment, "deployment")
	if err != nil {
		return nil, err
	}

	return &deployment, nil
}

// List implements clouddeploy.DeploymentsClient.
func (c *DeploymentsClient) List(ctx context.Context, params *clouddeploy.QueryParams) (*clouddeploy.Page[clouddeploy.Deployment], error) {
	resp, err := c.httpClient.Get(ctx, c.path, params.ToValues())
	if err != nil {
		return nil, err
	}

	var page clouddeploy.Page[clouddeploy.Deployment]

	err = json.Unmarshal(resp.Body, &page)
	if err != nil {
		return nil, fmt.Errorf("parsing deployments page: %w", err)
	}

	return &page, nil
}

// Iterate implements clouddeploy.DeploymentsClient.
func (c *DeploymentsClient) Iterate(ctx context.Context, params *clouddeploy.QueryParams) *clouddeploy.PageIterator[clouddeploy.Deployment] {
	base := params.Clone()

	return clouddeploy.NewPageIterator(ctx, func(ctx context.Context, cursor string) (*clouddeploy.Page[clouddeploy.Deployment], error) {
		pageParams := base.Clone()
		pageParams.Cursor = cursor

		return c.List(ctx, pageParams)
	})
}

// Rollback implements clouddeploy.DeploymentsClient. It submits a rollback
// job whose options name the deployment to roll back before.
func (c *DeploymentsClient) Rollback(ctx context.Context, appID, deploymentID string) (*clouddeploy.Job, error) {
	if deploymentID == "" {
		return nil, fmt.Errorf("%w: deployment id is required", clouddeploy.ErrValidation)
	}

	return c.jobs.Create(ctx, &clouddeploy.JobCreateRequest{
		Kind:    clouddeploy.JobKindRollback,
		AppID:   appID,
		Options: []string{deploymentID},
	})
}
