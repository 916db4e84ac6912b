package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackforge-io/clouddeploy-client/pkg/clouddeploy"
)

func TestDeploymentsClient(t *testing.T) {
	t.Parallel()
	t.Run("Get fetches by id", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/deployments/dep-1", request.URL.Path)
			_ = json.NewEncoder(writer).Encode(map[string]string{
				"id":     "dep-1",
				"app_id": "app-1",
				"module": "frontend",
			})
		}))

		deployment, err := client.Deployments().Get(context.Background(), "dep-1")
		require.NoError(t, err)
		assert.Equal(t, "frontend", deployment.Module)
	})

	t.Run("List passes query params", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/deployments", request.URL.Path)
			assert.Equal(t, "app-1", request.URL.Query().Get("app_id"))
			assert.Equal(t, "-timestamp", request.URL.Query().Get("sort"))

			_ = json.NewEncoder(writer).Encode(map[string]interface{}{
				"items": []map[string]string{{"id": "dep-1"}},
				"next":  nil,
			})
		}))

		page, err := client.Deployments().List(context.Background(),
			clouddeploy.NewQueryParams().WithFilter("app_id", "app-1").WithSort("-timestamp"))
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "dep-1", page.Items[0].ID)
	})

	t.Run("Rollback submits a rollback job", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodPost, request.Method)
			assert.Equal(t, "/jobs", request.URL.Path)

			var payload map[string]interface{}

			require.NoError(t, json.NewDecoder(request.Body).Decode(&payload))
			assert.Equal(t, "rollback", payload["kind"])
			assert.Equal(t, "app-1", payload["app_id"])
			assert.Equal(t, []interface{}{"dep-1"}, payload["options"])

			writer.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(writer).Encode(map[string]string{
				"id":     "job-1",
				"kind":   "rollback",
				"status": "pending",
			})
		}))

		job, err := client.Deployments().Rollback(context.Background(), "app-1", "dep-1")
		require.NoError(t, err)
		assert.Equal(t, "job-1", job.ID)
		assert.Equal(t, clouddeploy.JobKindRollback, job.Kind)
	})

	t.Run("Rollback requires a deployment id", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("no request should be sent")
		}))

		_, err := client.Deployments().Rollback(context.Background(), "app-1", "")
		assert.ErrorIs(t, err, clouddeploy.ErrValidation)
	})
}

func TestClient_GetVersion(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/version", request.URL.Path)
		_ = json.NewEncoder(writer).Encode(map[string]string{
			"current_revision":      "abc123",
			"current_revision_name": "v2.4.1",
			"current_revision_date": "2026-08-01",
		})
	}))

	version, err := client.GetVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", version.Revision)
	assert.Equal(t, "v2.4.1", version.RevisionName)
}
