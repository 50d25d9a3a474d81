// internal/common/auth/keycloak.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stock-backoffice/internal/common/errors"
)

// KeycloakSource fetches access tokens from a Keycloak realm. With a
// username it uses the password grant, otherwise client credentials.
type KeycloakSource struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	username     string
	password     string
	httpClient   *http.Client
	now          func() time.Time
}

// TokenResponse holds the response from Keycloak's token endpoint.
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	TokenType        string `json:"token_type"`
	RefreshToken     string `json:"refresh_token"`
	Scope            string `json:"scope"`
}

// KeycloakOptions configures a KeycloakSource.
type KeycloakOptions struct {
	URL          string
	Realm        string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	Timeout      time.Duration
}

func NewKeycloakSource(opts KeycloakOptions) *KeycloakSource {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &KeycloakSource{
		baseURL:      strings.TrimSuffix(opts.URL, "/"),
		realm:        opts.Realm,
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		username:     opts.Username,
		password:     opts.Password,
		httpClient:   &http.Client{Timeout: timeout},
		now:          time.Now,
	}
}

func (k *KeycloakSource) tokenURL() string {
	return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", k.baseURL, k.realm)
}

// Token performs one grant against the token endpoint.
func (k *KeycloakSource) Token(ctx context.Context) (*Credential, error) {
	data := url.Values{}
	data.Set("client_id", k.clientID)
	if k.clientSecret != "" {
		data.Set("client_secret", k.clientSecret)
	}
	if k.username != "" {
		data.Set("grant_type", "password")
		data.Set("username", k.username)
		data.Set("password", k.password)
	} else {
		data.Set("grant_type", "client_credentials")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.tokenURL(), strings.NewReader(data.Encode()))
	if err != nil {
		return nil, errors.NewAuthFailedError(fmt.Errorf("failed to create token request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewAuthFailedError(fmt.Errorf("failed to execute token request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		authErr := errors.NewAuthFailedError(fmt.Errorf("keycloak token request failed with status %d: %s", resp.StatusCode, string(body)))
		authErr.Retryable = isTransientHTTPError(resp.StatusCode)
		return nil, authErr
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, errors.NewAuthFailedError(fmt.Errorf("failed to decode token response: %w", err))
	}
	if tokenResp.AccessToken == "" {
		return nil, errors.NewAuthFailedError(fmt.Errorf("token response carries no access_token"))
	}

	cred := &Credential{AccessToken: tokenResp.AccessToken}
	if tokenResp.ExpiresIn > 0 {
		cred.ExpiresAt = k.now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	}
	return cred, nil
}

// isTransientHTTPError returns true if the HTTP status code indicates a potentially transient error.
func isTransientHTTPError(statusCode int) bool {
	switch statusCode {
	case http.StatusInternalServerError, // 500
		http.StatusBadGateway,         // 502
		http.StatusServiceUnavailable, // 503
		http.StatusGatewayTimeout:     // 504
		return true
	default:
		return false
	}
}
