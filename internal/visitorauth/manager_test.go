package visitorauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagedeck/integrations/internal/runtime"
	"github.com/pagedeck/integrations/internal/serviceerr"
)

// localRoundTripper is an http.RoundTripper that executes HTTP transactions by
// using handler directly, instead of going over an HTTP connection.
type localRoundTripper struct {
	handler http.Handler
	calls   *int
}

func (l localRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if l.calls != nil {
		*l.calls++
	}

	w := httptest.NewRecorder()
	l.handler.ServeHTTP(w, req)

	return w.Result(), nil
}

type stubResolver struct {
	url string
	err error
}

func (s stubResolver) GetPublishedURL(_ context.Context, _ string) (string, error) {
	return s.url, s.err
}

func testEnvironment(configuration map[string]any) *runtime.Environment {
	return &runtime.Environment{
		IntegrationName: IntegrationName,
		SpaceID:         "sp_1",
		SpaceInstallation: &runtime.SpaceInstallation{
			InstallationID: "in_1",
			SpaceID:        "sp_1",
			Status:         runtime.StatusActive,
			Configuration:  configuration,
		},
		SigningKey: testSigningKey,
	}
}

func fullConfiguration() map[string]any {
	return map[string]any{
		"client_id":     "cid",
		"client_secret": "sec",
		"okta_domain":   "dev-123.okta.com",
	}
}

func TestMakeAuthURI(t *testing.T) {
	manager := NewManager(stubResolver{}, nil, "https://integrations.example.com")

	authURI, err := manager.MakeAuthURI(t.Context(), testEnvironment(fullConfiguration()), "/docs/page")
	require.NoError(t, err)

	u, err := url.Parse(authURI)
	require.NoError(t, err)

	assert.Equal(t, "dev-123.okta.com", u.Host)
	assert.Equal(t, "/oauth2/v1/authorize", u.Path)

	q := u.Query()
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "query", q.Get("response_mode"))
	assert.Equal(t, "openid", q.Get("scope"))
	assert.Equal(t, "state-/docs/page", q.Get("state"))
	assert.Equal(t,
		"https://integrations.example.com/v1/integrations/okta/installations/in_1/spaces/sp_1/visitor-auth/response",
		q.Get("redirect_uri"))
}

func TestMakeAuthURI_MissingConfiguration(t *testing.T) {
	manager := NewManager(stubResolver{}, nil, "https://integrations.example.com")

	_, err := manager.MakeAuthURI(t.Context(), testEnvironment(map[string]any{"client_id": "cid"}), "")
	assert.ErrorIs(t, err, serviceerr.ErrConfigurationMissing)
}

func TestExchangeVisitorToken(t *testing.T) {
	upstreamToken := func(t *testing.T) string {
		return mintUpstreamToken(t, gojwt.MapClaims{
			"sub":   "u1",
			"email": "a@b.com",
			"iat":   1000,
			"exp":   2000,
		})
	}

	tests := []struct {
		name          string
		configuration map[string]any
		signingKey    string
		okta          http.HandlerFunc
		resolver      stubResolver
		wantErr       error
		wantExchange  bool
		checkRedirect func(t *testing.T, redirectURL string, now time.Time)
	}{
		{
			name:          "Happy path",
			configuration: fullConfiguration(),
			signingKey:    testSigningKey,
			okta: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "dev-123.okta.com", r.Host)
				assert.Equal(t, "/oauth2/v1/token/", r.URL.Path)

				require.NoError(t, r.ParseForm())
				assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
				assert.Equal(t, "cid", r.PostForm.Get("client_id"))
				assert.Equal(t, "sec", r.PostForm.Get("client_secret"))
				assert.Equal(t, "auth-code", r.PostForm.Get("code"))
				assert.Equal(t,
					"https://integrations.example.com/v1/integrations/okta/installations/in_1/spaces/sp_1/visitor-auth/response",
					r.PostForm.Get("redirect_uri"))

				_ = json.NewEncoder(w).Encode(map[string]any{
					"access_token": upstreamToken(t),
					"token_type":   "Bearer",
					"expires_in":   3600,
				})
			},
			resolver:     stubResolver{url: "https://docs.example.com"},
			wantExchange: true,
			checkRedirect: func(t *testing.T, redirectURL string, now time.Time) {
				u, err := url.Parse(redirectURL)
				require.NoError(t, err)
				assert.Equal(t, "docs.example.com", u.Host)
				assert.Equal(t, "/docs/page", u.Path)

				claims := decodeSignedClaims(t, u.Query().Get("jwt_token"), testSigningKey)
				assert.Equal(t, "u1", claims["sub"])
				assert.Equal(t, "a@b.com", claims["email"])
				assert.NotContains(t, claims, "iat")
				assert.InDelta(t, now.Add(time.Hour).Unix(), claims["exp"], 1)
			},
		},
		{
			name:          "Missing client secret skips the exchange",
			configuration: map[string]any{"client_id": "cid", "okta_domain": "dev-123.okta.com"},
			signingKey:    testSigningKey,
			okta: func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("token exchange must not be attempted with incomplete configuration")
			},
			wantErr: serviceerr.ErrConfigurationMissing,
		},
		{
			name:          "Upstream rejects the grant",
			configuration: fullConfiguration(),
			signingKey:    testSigningKey,
			okta: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":             "invalid_grant",
					"error_description": "The authorization code is invalid or has expired.",
				})
			},
			wantErr:      serviceerr.ErrUpstreamAuth,
			wantExchange: true,
		},
		{
			name:          "Empty access token",
			configuration: fullConfiguration(),
			signingKey:    testSigningKey,
			okta: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"token_type": "Bearer"})
			},
			wantErr:      serviceerr.ErrUpstreamAuth,
			wantExchange: true,
		},
		{
			name:          "No published URL",
			configuration: fullConfiguration(),
			signingKey:    testSigningKey,
			okta: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"access_token": upstreamToken(t)})
			},
			resolver:     stubResolver{err: serviceerr.ErrDataMissing},
			wantErr:      serviceerr.ErrDataMissing,
			wantExchange: true,
		},
		{
			name:          "No signing key",
			configuration: fullConfiguration(),
			signingKey:    "",
			okta: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"access_token": upstreamToken(t)})
			},
			resolver:     stubResolver{url: "https://docs.example.com"},
			wantErr:      serviceerr.ErrSigning,
			wantExchange: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var exchangeCalls int
			httpClient := &http.Client{
				Transport: localRoundTripper{handler: tt.okta, calls: &exchangeCalls},
			}

			manager := NewManager(tt.resolver, httpClient, "https://integrations.example.com")
			now := time.Now()
			manager.now = func() time.Time { return now }

			env := testEnvironment(tt.configuration)
			env.SigningKey = tt.signingKey

			redirectURL, err := manager.ExchangeVisitorToken(t.Context(), env, "auth-code", "state-/docs/page")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				tt.checkRedirect(t, redirectURL, now)
			}

			if tt.wantExchange {
				assert.Equal(t, 1, exchangeCalls)
			} else {
				assert.Zero(t, exchangeCalls)
			}
		})
	}
}

func TestExchangeVisitorToken_NoInstallation(t *testing.T) {
	manager := NewManager(stubResolver{}, nil, "https://integrations.example.com")

	_, err := manager.ExchangeVisitorToken(t.Context(), &runtime.Environment{SpaceID: "sp_1"}, "code", "state-")
	assert.ErrorIs(t, err, serviceerr.ErrInstallationMissing)
}
