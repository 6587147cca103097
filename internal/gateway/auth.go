package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// refreshMargin renews the token this long before it actually expires so an
// in-flight request never races the expiry.
const refreshMargin = 60 * time.Second

// authenticator holds the OAuth access token as an explicit {token, expiresAt}
// pair behind a mutex. Concurrent refreshes collapse into a single request.
type authenticator struct {
	authURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	group singleflight.Group
}

func newAuthenticator(authURL, clientID, clientSecret string, httpClient *http.Client) *authenticator {
	return &authenticator{
		authURL:      authURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   httpClient,
	}
}

// Token returns a valid access token, refreshing it when expired.
func (a *authenticator) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	if a.token != "" && time.Now().Before(a.expiresAt.Add(-refreshMargin)) {
		token := a.token
		a.mu.Unlock()
		return token, nil
	}
	a.mu.Unlock()

	result, err, _ := a.group.Do("token", func() (interface{}, error) {
		return a.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (a *authenticator) refresh(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create auth request: %w", err)
	}
	req.SetBasicAuth(a.clientID, a.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute auth request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read auth response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{StatusCode: resp.StatusCode, Code: "AUTH_FAILED", Message: string(body)}
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal auth response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", &Error{StatusCode: resp.StatusCode, Code: "AUTH_FAILED", Message: "empty access token"}
	}

	a.mu.Lock()
	a.token = tokenResp.AccessToken
	a.expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	a.mu.Unlock()

	return tokenResp.AccessToken, nil
}
