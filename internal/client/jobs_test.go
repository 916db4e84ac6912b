package client_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalclient "github.com/stackforge-io/clouddeploy-client/internal/client"
	"github.com/stackforge-io/clouddeploy-client/pkg/clouddeploy"
)

func newTestClient(t *testing.T, handler http.Handler) *internalclient.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := internalclient.New(&clouddeploy.Config{
		Endpoint:     server.URL,
		RetryMax:     1,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 2 * time.Millisecond,
	})
	require.NoError(t, err)

	return client
}

func writeJob(t *testing.T, writer http.ResponseWriter, job *clouddeploy.Job) {
	t.Helper()
	require.NoError(t, json.NewEncoder(writer).Encode(job))
}

func fastWait() *clouddeploy.WaitOptions {
	return &clouddeploy.WaitOptions{
		PollInterval: time.Millisecond,
		MaxInterval:  2 * time.Millisecond,
		MaxWait:      5 * time.Second,
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestJobsClient_PollUntilComplete(t *testing.T) {
	t.Parallel()
	t.Run("polls until the job succeeds", func(t *testing.T) {
		t.Parallel()

		statuses := []clouddeploy.JobStatus{
			clouddeploy.JobStatusPending,
			clouddeploy.JobStatusRunning,
			clouddeploy.JobStatusRunning,
			clouddeploy.JobStatusSucceeded,
		}

		var fetches int32

		client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/jobs/job-1", request.URL.Path)

			fetch := atomic.AddInt32(&fetches, 1)
			writeJob(t, writer, &clouddeploy.Job{ID: "job-1", Status: statuses[fetch-1]})
		}))

		var seen []clouddeploy.JobStatus

		opts := fastWait()
		opts.OnProgress = func(job *clouddeploy.Job) {
			seen = append(seen, job.Status)
		}

		job, err := client.Jobs().PollUntilComplete(context.Background(), "job-1", opts)
		require.NoError(t, err)
		assert.Equal(t, clouddeploy.JobStatusSucceeded, job.Status)
		assert.Equal(t, int32(4), atomic.LoadInt32(&fetches))
		assert.Equal(t, statuses, seen)
	})

	t.Run("failed job surfaces the service detail verbatim", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writeJob(t, writer, &clouddeploy.Job{
				ID:     "job-1",
				Status: clouddeploy.JobStatusFailed,
				Error:  "module frontend: unit tests failed on rev abc123",
			})
		}))

		job, err := client.Jobs().PollUntilComplete(context.Background(), "job-1", fastWait())
		require.Error(t, err)
		assert.ErrorIs(t, err, clouddeploy.ErrJobFailed)
		assert.Contains(t, err.Error(), "module frontend: unit tests failed on rev abc123")
		require.NotNil(t, job)
		assert.Equal(t, clouddeploy.JobStatusFailed, job.Status)
	})

	t.Run("failed job without error falls back to step messages", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writeJob(t, writer, &clouddeploy.Job{
				ID:     "job-1",
				Status: clouddeploy.JobStatusFailed,
				Detail: []clouddeploy.JobStep{
					{Name: "build", Status: "succeeded"},
					{Name: "deploy", Status: "failed", Message: "instance i-1 unreachable"},
				},
			})
		}))

		_, err := client.Jobs().PollUntilComplete(context.Background(), "job-1", fastWait())
		require.ErrorIs(t, err, clouddeploy.ErrJobFailed)
		assert.Contains(t, err.Error(), "deploy: instance i-1 unreachable")
	})

	t.Run("server-side cancellation is terminal", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writeJob(t, writer, &clouddeploy.Job{ID: "job-1", Status: clouddeploy.JobStatusCancelled})
		}))

		job, err := client.Jobs().PollUntilComplete(context.Background(), "job-1", fastWait())
		require.ErrorIs(t, err, clouddeploy.ErrJobFailed)
		assert.Contains(t, err.Error(), "cancelled")
		assert.Equal(t, clouddeploy.JobStatusCancelled, job.Status)
	})

	t.Run("context cancellation abandons the wait", func(t *testing.T) {
		t.Parallel()

		var fetches int32

		client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			atomic.AddInt32(&fetches, 1)
			writeJob(t, writer, &clouddeploy.Job{ID: "job-1", Status: clouddeploy.JobStatusRunning})
		}))

		ctx, cancel := context.WithCancel(context.Background())

		opts := fastWait()
		opts.OnProgress = func(*clouddeploy.Job) {
			if atomic.LoadInt32(&fetches) == 2 {
				cancel()
			}
		}

		job, err := client.Jobs().PollUntilComplete(ctx, "job-1", opts)
		require.ErrorIs(t, err, clouddeploy.ErrWaitCancelled)
		assert.Equal(t, int32(2), atomic.LoadInt32(&fetches))
		require.NotNil(t, job)
		assert.Equal(t, clouddeploy.JobStatusRunning, job.Status)
	})

	t.Run("wait budget exhaustion times out", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writeJob(t, writer, &clouddeploy.Job{ID: "job-1", Status: clouddeploy.JobStatusRunning})
		}))

		opts := fastWait()
		opts.MaxWait = 20 * time.Millisecond

		job, err := client.Jobs().PollUntilComplete(context.Background(), "job-1", opts)
		require.ErrorIs(t, err, clouddeploy.ErrWaitTimeout)
		require.NotNil(t, job)
		assert.Equal(t, clouddeploy.JobStatusRunning, job.Status)
	})

	t.Run("transient server errors are tolerated", func(t *testing.T) {
		t.Parallel()

		var hits int32

		client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			// The first fetch fails through its whole retry budget.
			if atomic.AddInt32(&hits, 1) <= 2 {
				writer.WriteHeader(http.StatusInternalServerError)

				return
			}

			writeJob(t, writer, &clouddeploy.Job{ID: "job-1", Status: clouddeploy.JobStatusSucceeded})
		}))

		job, err := client.Jobs().PollUntilComplete(context.Background(), "job-1", fastWait())
		require.NoError(t, err)
		assert.Equal(t, clouddeploy.JobStatusSucceeded, job.Status)
	})

	t.Run("not found aborts the wait", func(t *testing.T) {
		t.Parallel()

		var hits int32

		client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			atomic.AddInt32(&hits, 1)
			writer.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(writer).Encode(map[string]string{
				"code":    "not_found",
				"message": "no such job",
			})
		}))

		_, err := client.Jobs().PollUntilComplete(context.Background(), "job-1", fastWait())
		require.Error(t, err)
		assert.True(t, clouddeploy.IsNotFound(err))
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	})
}

// decodeJobRequest captures the submitted job payload and answers with a
// pending job.
func decodeJobRequest(t *testing.T, captured *map[string]interface{}) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, http.MethodPost, request.Method)
		assert.Equal(t, "/jobs", request.URL.Path)
		require.NoError(t, json.NewDecoder(request.Body).Decode(captured))

		writer.WriteHeader(http.StatusCreated)
		writeJob(t, writer, &clouddeploy.Job{ID: "job-1", Status: clouddeploy.JobStatusPending})
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestJobsClient_Commands(t *testing.T) {
	t.Parallel()
	t.Run("Deploy builds strategy options", func(t *testing.T) {
		t.Parallel()

		var payload map[string]interface{}

		client := newTestClient(t, decodeJobRequest(t, &payload))

		job, err := client.Jobs().Deploy(context.Background(), "app-1",
			[]clouddeploy.ModuleRevision{{Name: "frontend", Rev: "abc123"}},
			&clouddeploy.DeployOptions{SafeStrategy: clouddeploy.SafeDeploymentHalf})
		require.NoError(t, err)
		assert.Equal(t, "job-1", job.ID)

		assert.Equal(t, "deploy", payload["kind"])
		assert.Equal(t, "app-1", payload["app_id"])
		assert.Equal(t, []interface{}{"serial", "50%"}, payload["options"])

		modules, ok := payload["modules"].([]interface{})
		require.True(t, ok)
		require.Len(t, modules, 1)
		module, ok := modules[0].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "frontend", module["name"])
		assert.Equal(t, "abc123", module["rev"])
	})

	t.Run("Deploy sends the idempotency key", func(t *testing.T) {
		t.Parallel()

		var key string

		client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			key = request.Header.Get("Idempotency-Key")
			writer.WriteHeader(http.StatusCreated)
			writeJob(t, writer, &clouddeploy.Job{ID: "job-1"})
		}))

		_, err := client.Jobs().Deploy(context.Background(), "app-1", nil,
			&clouddeploy.DeployOptions{IdempotencyKey: "key-1"})
		require.NoError(t, err)
		assert.Equal(t, "key-1", key)
	})

	t.Run("Redeploy puts the deployment first", func(t *testing.T) {
		t.Parallel()

		var payload map[string]interface{}

		client := newTestClient(t, decodeJobRequest(t, &payload))

		_, err := client.Jobs().Redeploy(context.Background(), "app-1", "dep-9",
			&clouddeploy.DeployOptions{Strategy: clouddeploy.DeploymentStrategyParallel})
		require.NoError(t, err)
		assert.Equal(t, "redeploy", payload["kind"])
		assert.Equal(t, []interface{}{"dep-9", "parallel"}, payload["options"])
	})

	t.Run("Redeploy requires a deployment id", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("no request should be sent")
		}))

		_, err := client.Jobs().Redeploy(context.Background(), "app-1", "", nil)
		assert.ErrorIs(t, err, clouddeploy.ErrValidation)
	})

	t.Run("BuildImage carries instance type and bootstrap flag", func(t *testing.T) {
		t.Parallel()

		var payload map[string]interface{}

		client := newTestClient(t, decodeJobRequest(t, &payload))

		skip := true

		_, err := client.Jobs().BuildImage(context.Background(), "app-1",
			&clouddeploy.BuildImageOptions{InstanceType: "t3.large", SkipBootstrap: &skip})
		require.NoError(t, err)
		assert.Equal(t, "buildimage", payload["kind"])
		assert.Equal(t, "t3.large", payload["instance_type"])
		assert.Equal(t, []interface{}{"true"}, payload["options"])
	})

	t.Run("ExecuteScript normalizes and encodes the script", func(t *testing.T) {
		t.Parallel()

		var payload map[string]interface{}

		client := newTestClient(t, decodeJobRequest(t, &payload))

		_, err := client.Jobs().ExecuteScript(context.Background(), "app-1",
			"echo hi\r\nuptime\n", nil)
		require.NoError(t, err)
		assert.Equal(t, "executescript", payload["kind"])

		options, ok := payload["options"].([]interface{})
		require.True(t, ok)
		require.Len(t, options, 4)

		decoded, err := base64.StdEncoding.DecodeString(options[0].(string))
		require.NoError(t, err)
		assert.Equal(t, "echo hi\nuptime\n", string(decoded))
		assert.Equal(t, "", options[1])
		assert.Equal(t, "serial", options[2])
		assert.Equal(t, "1by1", options[3])
	})

	t.Run("ExecuteScript single strategy targets an instance", func(t *testing.T) {
		t.Parallel()

		var payload map[string]interface{}

		client := newTestClient(t, decodeJobRequest(t, &payload))

		_, err := client.Jobs().ExecuteScript(context.Background(), "app-1", "uptime",
			&clouddeploy.ExecuteScriptOptions{
				Strategy:   clouddeploy.ScriptExecutionSingle,
				InstanceIP: "10.0.0.4",
			})
		require.NoError(t, err)

		options, ok := payload["options"].([]interface{})
		require.True(t, ok)
		assert.Equal(t, "single", options[2])
		assert.Equal(t, "10.0.0.4", options[3])
	})

	t.Run("ExecuteScript single strategy requires an instance ip", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("no request should be sent")
		}))

		_, err := client.Jobs().ExecuteScript(context.Background(), "app-1", "uptime",
			&clouddeploy.ExecuteScriptOptions{Strategy: clouddeploy.ScriptExecutionSingle})
		assert.ErrorIs(t, err, clouddeploy.ErrValidation)
	})

	t.Run("ExecuteScript rejects an empty script", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("no request should be sent")
		}))

		_, err := client.Jobs().ExecuteScript(context.Background(), "app-1", "  \n", nil)
		assert.ErrorIs(t, err, clouddeploy.ErrValidation)
	})

	t.Run("CreateInstance orders subnet then private ip", func(t *testing.T) {
		t.Parallel()

		var payload map[string]interface{}

		client := newTestClient(t, decodeJobRequest(t, &payload))

		_, err := client.Jobs().CreateInstance(context.Background(), "app-1",
			&clouddeploy.CreateInstanceOptions{
				SubnetID:         "subnet-42",
				PrivateIPAddress: "10.0.0.9",
			})
		require.NoError(t, err)
		assert.Equal(t, "createinstance", payload["kind"])
		assert.Equal(t, []interface{}{"subnet-42", "10.0.0.9"}, payload["options"])
	})

	t.Run("CreateInstance private ip requires a subnet", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("no request should be sent")
		}))

		_, err := client.Jobs().CreateInstance(context.Background(), "app-1",
			&clouddeploy.CreateInstanceOptions{PrivateIPAddress: "10.0.0.9"})
		assert.ErrorIs(t, err, clouddeploy.ErrValidation)
	})

	t.Run("PrepareBlueGreen encodes its flags", func(t *testing.T) {
		t.Parallel()

		var payload map[string]interface{}

		client := newTestClient(t, decodeJobRequest(t, &payload))

		_, err := client.Jobs().PrepareBlueGreen(context.Background(), "app-1", true, false)
		require.NoError(t, err)
		assert.Equal(t, "preparebluegreen", payload["kind"])
		assert.Equal(t, []interface{}{"true", "false"}, payload["options"])
	})

	t.Run("SwapBlueGreen defaults to overlap", func(t *testing.T) {
		t.Parallel()

		var payload map[string]interface{}

		client := newTestClient(t, decodeJobRequest(t, &payload))

		_, err := client.Jobs().SwapBlueGreen(context.Background(), "app-1", "")
		require.NoError(t, err)
		assert.Equal(t, "swapbluegreen", payload["kind"])
		assert.Equal(t, []interface{}{"overlap"}, payload["options"])
	})

	t.Run("Create submits kinds without typed helpers", func(t *testing.T) {
		t.Parallel()

		var payload map[string]interface{}

		client := newTestClient(t, decodeJobRequest(t, &payload))

		_, err := client.Jobs().Create(context.Background(), &clouddeploy.JobCreateRequest{
			Kind:    clouddeploy.JobKindDestroyInstance,
			AppID:   "app-1",
			Options: []string{"10.0.0.4"},
		})
		require.NoError(t, err)
		assert.Equal(t, "destroyinstance", payload["kind"])
		assert.Equal(t, []interface{}{"10.0.0.4"}, payload["options"])
	})

	t.Run("RecreateInstances passes the strategy", func(t *testing.T) {
		t.Parallel()

		var payload map[string]interface{}

		client := newTestClient(t, decodeJobRequest(t, &payload))

		_, err := client.Jobs().RecreateInstances(context.Background(), "app-1",
			clouddeploy.SafeDeploymentThird)
		require.NoError(t, err)
		assert.Equal(t, "recreateinstances", payload["kind"])
		assert.Equal(t, []interface{}{"1/3"}, payload["options"])
	})
}

func TestJobsClient_Cancel(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, http.MethodPost, request.Method)
		assert.Equal(t, "/jobs/job-1/actions/cancel", request.URL.Path)
		writeJob(t, writer, &clouddeploy.Job{ID: "job-1", Status: clouddeploy.JobStatusCancelled})
	}))

	job, err := client.Jobs().Cancel(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, clouddeploy.JobStatusCancelled, job.Status)
}

func TestJobsClient_List(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/jobs", request.URL.Path)
		assert.Equal(t, "app-1", request.URL.Query().Get("app_id"))

		_ = json.NewEncoder(writer).Encode(map[string]interface{}{
			"items": []map[string]string{{"id": "job-1", "kind": "deploy", "status": "running"}},
			"next":  nil,
		})
	}))

	page, err := client.Jobs().List(context.Background(),
		clouddeploy.NewQueryParams().WithFilter("app_id", "app-1"))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "job-1", page.Items[0].ID)
	assert.Nil(t, page.Next)
}
