// Package cdclient constructs Cloud Deploy API clients.
package cdclient

import (
	"strings"

	internalclient "github.com/stackforge-io/clouddeploy-client/internal/client"
	"github.com/stackforge-io/clouddeploy-client/pkg/clouddeploy"
)

// New creates a client from a config. The endpoint is normalized: a
// trailing slash is trimmed and "https://" is assumed when no scheme is
// present. An empty TokenURL defaults to "<endpoint>/auth/tokens".
func New(config *clouddeploy.Config) (clouddeploy.Client, error) {
	if config == nil {
		return nil, clouddeploy.ErrConfigRequired
	}

	if config.Endpoint == "" {
		return nil, clouddeploy.ErrEndpointRequired
	}

	normalized := *config
	normalized.Endpoint = normalizeEndpoint(config.Endpoint)

	if normalized.TokenURL == "" {
		normalized.TokenURL = normalized.Endpoint + "/auth/tokens"
	}

	return internalclient.New(&normalized)
}

// NewWithToken creates a client that authenticates with a static token.
func NewWithToken(endpoint, token string) (clouddeploy.Client, error) {
	return New(&clouddeploy.Config{
		Endpoint:    endpoint,
		AccessToken: token,
	})
}

// NewWithPassword creates a client that exchanges username/password for
// short-lived tokens, refreshed transparently.
func NewWithPassword(endpoint, username, password string) (clouddeploy.Client, error) {
	return New(&clouddeploy.Config{
		Endpoint: endpoint,
		Username: username,
		Password: password,
	})
}

func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSuffix(endpoint, "/")

	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}

	return endpoint
}
