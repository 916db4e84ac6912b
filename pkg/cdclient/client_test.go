package cdclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackforge-io/clouddeploy-client/pkg/cdclient"
	"github.com/stackforge-io/clouddeploy-client/pkg/clouddeploy"
)

func TestNew(t *testing.T) {
	t.Parallel()
	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		_, err := cdclient.New(nil)
		assert.ErrorIs(t, err, clouddeploy.ErrConfigRequired)
	})

	t.Run("missing endpoint", func(t *testing.T) {
		t.Parallel()

		_, err := cdclient.New(&clouddeploy.Config{})
		assert.ErrorIs(t, err, clouddeploy.ErrEndpointRequired)
	})

	t.Run("username without password", func(t *testing.T) {
		t.Parallel()

		_, err := cdclient.New(&clouddeploy.Config{
			Endpoint: "https://deploy.example.com",
			Username: "deployer",
		})
		assert.ErrorIs(t, err, clouddeploy.ErrCredentialsRequired)
	})

	t.Run("caller config is not mutated", func(t *testing.T) {
		t.Parallel()

		config := &clouddeploy.Config{Endpoint: "deploy.example.com/"}

		_, err := cdclient.New(config)
		require.NoError(t, err)
		assert.Equal(t, "deploy.example.com/", config.Endpoint)
		assert.Empty(t, config.TokenURL)
	})
}

func TestNewWithToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "Bearer tok", request.Header.Get("Authorization"))
		_ = json.NewEncoder(writer).Encode(map[string]string{"current_revision": "abc"})
	}))
	defer server.Close()

	cli, err := cdclient.NewWithToken(server.URL, "tok")
	require.NoError(t, err)

	version, err := cli.GetVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", version.Revision)
}

func TestNewWithPassword(t *testing.T) {
	t.Parallel()

	// One server plays both the token endpoint and the API.
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/tokens", func(writer http.ResponseWriter, request *http.Request) {
		username, password, ok := request.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "deployer", username)
		assert.Equal(t, "secret", password)

		_ = json.NewEncoder(writer).Encode(map[string]interface{}{
			"token":      "issued",
			"expires_in": 3600,
		})
	})
	mux.HandleFunc("/version", func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "Bearer issued", request.Header.Get("Authorization"))
		_ = json.NewEncoder(writer).Encode(map[string]string{"current_revision": "abc"})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	cli, err := cdclient.NewWithPassword(server.URL, "deployer", "secret")
	require.NoError(t, err)

	version, err := cli.GetVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", version.Revision)
}
