// Package visitorauth implements the Okta visitor-authentication adapter:
// the authorization-redirect initiator and the visitor-token exchange that
// re-signs identity claims as a short-lived first-party token.
package visitorauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/pagedeck/integrations/internal/runtime"
	"github.com/pagedeck/integrations/internal/serviceerr"
)

// IntegrationName is the adapter's name on the host platform.
const IntegrationName = "okta"

// ContentResolver resolves the published-content URL of a space via the host
// platform API.
type ContentResolver interface {
	GetPublishedURL(ctx context.Context, spaceID string) (string, error)
}

type Manager struct {
	resolver   ContentResolver
	httpClient *http.Client
	publicURL  string

	now func() time.Time
}

func NewManager(resolver ContentResolver, httpClient *http.Client, publicURL string) *Manager {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Manager{
		resolver:   resolver,
		httpClient: httpClient,
		publicURL:  strings.TrimRight(publicURL, "/"),
		now:        time.Now,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// CallbackURL is the redirect URI sent in the authorization request. The same
// value must be presented again during the token exchange.
func (m *Manager) CallbackURL(installationID, spaceID string) string {
	return m.publicURL + "/v1/integrations/" + IntegrationName +
		"/installations/" + url.PathEscape(installationID) +
		"/spaces/" + url.PathEscape(spaceID) + "/visitor-auth/response"
}

// MakeAuthURI builds the identity-provider authorization URL for a visitor
// requesting location. The location travels inside the opaque state parameter
// and comes back unchanged on the callback.
func (m *Manager) MakeAuthURI(ctx context.Context, env *runtime.Environment, location string) (string, error) {
	cfg, err := ConfigFromEnvironment(env)
	if err != nil {
		return "", err
	}

	if err := cfg.ValidateAuthorize(); err != nil {
		return "", err
	}

	si := env.SpaceInstallation

	u := url.URL{
		Scheme: "https",
		Host:   cfg.OktaDomain,
		Path:   "/oauth2/v1/authorize",
	}
	q := u.Query()
	q.Set("client_id", cfg.ClientID)
	q.Set("response_type", "code")
	q.Set("response_mode", "query")
	q.Set("scope", "openid")
	q.Set("redirect_uri", m.CallbackURL(si.InstallationID, si.SpaceID))
	q.Set("state", EncodeState(location))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// ExchangeVisitorToken handles the callback leg: it exchanges the
// authorization code for an Okta access token, re-signs the identity claims
// with the installation's key and returns the published-content URL the
// browser should be redirected to.
func (m *Manager) ExchangeVisitorToken(ctx context.Context, env *runtime.Environment, code, state string) (string, error) {
	cfg, err := ConfigFromEnvironment(env)
	if err != nil {
		return "", err
	}

	if err := cfg.Validate(); err != nil {
		return "", err
	}

	si := env.SpaceInstallation

	tokens, err := m.exchangeCode(ctx, cfg, code, m.CallbackURL(si.InstallationID, si.SpaceID))
	if err != nil {
		return "", err
	}

	claims, err := decodeClaims(tokens.AccessToken)
	if err != nil {
		slogctx.Error(ctx, "Failed to decode access token claims", "error", err)

		return "", fmt.Errorf("decoding claims: %w", serviceerr.ErrUpstreamAuth)
	}

	signedToken, err := resignClaims(claims, env.SigningKey, m.now())
	if err != nil {
		return "", err
	}

	publishedURL, err := m.resolver.GetPublishedURL(ctx, env.SpaceID)
	if err != nil {
		return "", fmt.Errorf("resolving published URL: %w", err)
	}

	location := DecodeState(state)

	return publishedURL + location + "?jwt_token=" + url.QueryEscape(signedToken), nil
}

func (m *Manager) exchangeCode(ctx context.Context, cfg Config, code, redirectURI string) (tokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("client_id", cfg.ClientID)
	data.Set("client_secret", cfg.ClientSecret)
	data.Set("code", code)
	data.Set("redirect_uri", redirectURI)

	endpoint := "https://" + cfg.OktaDomain + "/oauth2/v1/token/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return tokenResponse{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Provider detail is logged only; the caller sees a generic message.
		var tokenErr tokenErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&tokenErr)
		slogctx.Error(ctx, "Token exchange rejected by Okta",
			"status", resp.StatusCode,
			"error", tokenErr.Error,
			"error_description", tokenErr.ErrorDescription,
		)

		return tokenResponse{}, fmt.Errorf("token endpoint returned %d: %w", resp.StatusCode, serviceerr.ErrUpstreamAuth)
	}

	var tokens tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return tokenResponse{}, fmt.Errorf("decoding token response: %w", serviceerr.ErrUpstreamAuth)
	}

	if tokens.AccessToken == "" {
		slogctx.Error(ctx, "Token response carried no access token")

		return tokenResponse{}, fmt.Errorf("empty access token: %w", serviceerr.ErrUpstreamAuth)
	}

	return tokens, nil
}
