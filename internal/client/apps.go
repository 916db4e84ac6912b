package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	internalhttp "github.com/stackforge-io/clouddeploy-client/internal/http"
	"github.com/stackforge-io/clouddeploy-client/pkg/clouddeploy"
)

// AppsClient implements clouddeploy.AppsClient.
type AppsClient struct {
	httpClient *internalhttp.Client
	path       string
}

// NewAppsClient creates a new apps client.
func NewAppsClient(httpClient *internalhttp.Client) *AppsClient {
	schema, _ := clouddeploy.SchemaFor(clouddeploy.KindApplication)

	return &AppsClient{
		httpClient: httpClient,
		path:       schema.Path,
	}
}

// Create implements clouddeploy.AppsClient.
func (c *AppsClient) Create(ctx context.Context, request *clouddeploy.AppCreateRequest) (*clouddeploy.App, error) {
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

	var app clouddeploy.App

	err = decodeInto(resp, &app, "app")
	if err != nil {
		return nil, err
	}

	return &app, nil
}

// Get implements clouddeploy.AppsClient.
func (c *AppsClient) Get(ctx context.Context, id string) (*clouddeploy.App, error) {
	resp, err := c.httpClient.Get(ctx, resourcePath(c.path, id), nil)
	if err != nil {
		return nil, err
	}

	var app clouddeploy.App

	err = decodeInto(resp, &app, "app")
	if err != nil {
		return nil, err
	}

	return &app, nil
}

// List implements clouddeploy.AppsClient.
func (c *AppsClient) List(ctx context.Context, params *clouddeploy.QueryParams) (*clouddeploy.Page[clouddeploy.App], error) {
	resp, err := c.httpClient.Get(ctx, c.path, params.ToValues())
	if err != nil {
		return nil, err
	}

	var page clouddeploy.Page[clouddeploy.App]

	err = json.Unmarshal(resp.Body, &page)
	if err != nil {
		return nil, fmt.Errorf("parsing apps page: %w", err)
	}

	return &page, nil
}

// Iterate implements clouddeploy.AppsClient.
func (c *AppsClient) Iterate(ctx context.Context, params *clouddeploy.QueryParams) *clouddeploy.PageIterator[clouddeploy.App] {
	base := params.Clone()

	return clouddeploy.NewPageIterator(ctx, func(ctx context.Context, cursor string) (*clouddeploy.Page[clouddeploy.App], error) {
		pageParams := base.Clone()
		pageParams.Cursor = cursor

		return c.List(ctx, pageParams)
	})
}

// Update implements clouddeploy.AppsClient. The request's Etag, when set,
// is sent as an If-Match precondition.
func (c *AppsClient) Update(ctx context.Context, id string, request *clouddeploy.AppUpdateRequest) (*clouddeploy.App, error) {
	err := clouddeploy.ValidateResource(request)
	if err != nil {
		return nil, err
	}

	req := &internalhttp.Request{
		Method: http.MethodPatch,
		Path:   resourcePath(c.path, id),
		Body:   request,
	}

	if request.Etag != "" {
		req.Headers = map[string]string{"If-Match": request.Etag}
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	var app clouddeploy.App

	err = decodeInto(resp, &app, "app")
	if err != nil {
		return nil, err
	}

	return &app, nil
}

// Delete implements clouddeploy.AppsClient.
func (c *AppsClient) Delete(ctx context.Context, id string) error {
	_, err := c.httpClient.Delete(ctx, resourcePath(c.path, id))

	return err
}
