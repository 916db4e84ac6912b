package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/singleflight"

	"github.com/stackforge-io/clouddeploy-client/internal/constants"
	"github.com/stackforge-io/clouddeploy-client/pkg/clouddeploy"
)

// TokenManager produces the credential attached to outgoing requests.
// Implementations must be safe for concurrent use.
type TokenManager interface {
	// GetToken returns a usable access token, refreshing transparently
	// when the held one is expired or near expiry.
	GetToken(ctx context.Context) (string, error)
	// Invalidate forces the next GetToken call to refresh.
	Invalidate()
}

// StaticTokenManager serves a fixed token. Invalidate is a no-op: a static
// token cannot be refreshed, so a rejected one surfaces as an auth error.
type StaticTokenManager struct {
	token string
}

// NewStaticTokenManager creates a manager around a fixed token.
func NewStaticTokenManager(token string) *StaticTokenManager {
	return &StaticTokenManager{token: token}
}

func (m *StaticTokenManager) GetToken(ctx context.Context) (string, error) {
	return m.token, nil
}

func (m *StaticTokenManager) Invalidate() {}

// PasswordConfig configures a PasswordTokenManager.
type PasswordConfig struct {
	// TokenURL is the token exchange endpoint.
	TokenURL string
	// Username and Password are presented via HTTP basic auth.
	Username string
	Password string
	// RetryMax bounds token exchange retries; zero means the default.
	RetryMax int
	// HTTPTimeout bounds a single exchange attempt; zero means the default.
	HTTPTimeout time.Duration
}

// PasswordTokenManager exchanges username/password for short-lived tokens
// and refreshes them before expiry. Concurrent callers needing a refresh
// share a single in-flight exchange.
type PasswordTokenManager struct {
	config     *PasswordConfig
	store      *TokenStore
	group      singleflight.Group
	httpClient *http.Client
}

// NewPasswordTokenManager creates a manager that exchanges credentials at
// config.TokenURL.
func NewPasswordTokenManager(config *PasswordConfig) *PasswordTokenManager {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = constants.AuthRetryMax

	if config.RetryMax > 0 {
		retryClient.RetryMax = config.RetryMax
	}

	timeout := constants.AuthHTTPTimeout
	if config.HTTPTimeout > 0 {
		timeout = config.HTTPTimeout
	}

	retryClient.HTTPClient.Timeout = timeout

	return &PasswordTokenManager{
		config:     config,
		store:      NewTokenStore(),
		httpClient: retryClient.StandardClient(),
	}
}

// GetToken implements TokenManager. At most one token exchange is in
// flight; concurrent callers wait on its result.
func (m *PasswordTokenManager) GetToken(ctx context.Context) (string, error) {
	if token := m.store.Get(); token.Valid() {
		return token.AccessToken, nil
	}

	result, err, _ := m.group.Do("refresh", func() (interface{}, error) {
		// A caller that queued behind a completed refresh reuses it.
		if token := m.store.Get(); token.Valid() {
			return token.AccessToken, nil
		}

		token, err := m.exchange(ctx)
		if err != nil {
			return nil, err
		}

		m.store.Set(token)

		return token.AccessToken, nil
	})
	if err != nil {
		return "", err
	}

	accessToken, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("%w: unexpected token type", clouddeploy.ErrAuth)
	}

	return accessToken, nil
}

// Invalidate implements TokenManager.
func (m *PasswordTokenManager) Invalidate() {
	m.store.Clear()
}

func (m *PasswordTokenManager) exchange(ctx context.Context) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.TokenURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building token request: %v", clouddeploy.ErrAuth, err)
	}

	req.SetBasicAuth(m.config.Username, m.config.Password)
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", clouddeploy.ErrAuth, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading token response: %v", clouddeploy.ErrAuth, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: token endpoint returned %d: %s",
			clouddeploy.ErrAuth, resp.StatusCode, string(body))
	}

	var token Token

	err = json.Unmarshal(body, &token)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing token response: %v", clouddeploy.ErrAuth, err)
	}

	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: token endpoint returned no token", clouddeploy.ErrAuth)
	}

	if token.ExpiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}

	return &token, nil
}
