package visitorauth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagedeck/integrations/internal/runtime"
	"github.com/pagedeck/integrations/internal/visitorauth"
)

type fakeLoader struct {
	env *runtime.Environment
	err error
}

func (f fakeLoader) LoadEnvironment(_ context.Context, _, _, _ string) (*runtime.Environment, error) {
	return f.env, f.err
}

type fakeResolver struct {
	url string
	err error
}

func (f fakeResolver) GetPublishedURL(_ context.Context, _ string) (string, error) {
	return f.url, f.err
}

// handlerRoundTripper routes every outbound request to the given handler.
type handlerRoundTripper struct {
	handler http.Handler
}

func (h handlerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)

	return w.Result(), nil
}

func newEnvironment(configuration map[string]any) *runtime.Environment {
	return &runtime.Environment{
		IntegrationName: visitorauth.IntegrationName,
		SpaceID:         "sp_1",
		SpaceInstallation: &runtime.SpaceInstallation{
			InstallationID: "in_1",
			SpaceID:        "sp_1",
			Status:         runtime.StatusActive,
			Configuration:  configuration,
		},
		SigningKey: "visitor-signing-key-0123456789abcdef",
	}
}

func serveAdapter(t *testing.T, adapter *visitorauth.Adapter, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	adapter.Routes().ServeHTTP(rec, req)

	return rec
}

func TestHandleCallback_UpstreamRejection(t *testing.T) {
	okta := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
	})

	manager := visitorauth.NewManager(
		fakeResolver{url: "https://docs.example.com"},
		&http.Client{Transport: handlerRoundTripper{handler: okta}},
		"https://integrations.example.com",
	)
	adapter := visitorauth.NewAdapter(manager, fakeLoader{env: newEnvironment(map[string]any{
		"client_id":     "cid",
		"client_secret": "sec",
		"okta_domain":   "dev-123.okta.com",
	})})

	rec := serveAdapter(t, adapter,
		"/installations/in_1/spaces/sp_1/visitor-auth/response?code=bad-code&state=state-/docs")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Error: Could not fetch token from Okta", strings.TrimSpace(rec.Body.String()))
}

func TestHandleCallback_MissingConfiguration(t *testing.T) {
	okta := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("exchange must not be attempted")
	})

	manager := visitorauth.NewManager(
		fakeResolver{},
		&http.Client{Transport: handlerRoundTripper{handler: okta}},
		"https://integrations.example.com",
	)
	adapter := visitorauth.NewAdapter(manager, fakeLoader{env: newEnvironment(map[string]any{
		"okta_domain": "dev-123.okta.com",
	})})

	rec := serveAdapter(t, adapter,
		"/installations/in_1/spaces/sp_1/visitor-auth/response?code=auth-code")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t,
		"Error: Either client id, client secret or okta domain is missing",
		strings.TrimSpace(rec.Body.String()))
}

func TestHandleCallback_MissingCode(t *testing.T) {
	manager := visitorauth.NewManager(fakeResolver{}, nil, "https://integrations.example.com")
	adapter := visitorauth.NewAdapter(manager, fakeLoader{env: newEnvironment(nil)})

	rec := serveAdapter(t, adapter, "/installations/in_1/spaces/sp_1/visitor-auth/response")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAuthorize(t *testing.T) {
	manager := visitorauth.NewManager(fakeResolver{}, nil, "https://integrations.example.com")
	adapter := visitorauth.NewAdapter(manager, fakeLoader{env: newEnvironment(map[string]any{
		"client_id":   "cid",
		"okta_domain": "dev-123.okta.com",
	})})

	rec := serveAdapter(t, adapter,
		"/installations/in_1/spaces/sp_1/visitor-auth?location=/docs/page")

	require.Equal(t, http.StatusFound, rec.Code)

	redirect, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "dev-123.okta.com", redirect.Host)
	assert.Equal(t, "state-/docs/page", redirect.Query().Get("state"))
}

func TestHandleAuthorize_MissingClientID(t *testing.T) {
	manager := visitorauth.NewManager(fakeResolver{}, nil, "https://integrations.example.com")
	adapter := visitorauth.NewAdapter(manager, fakeLoader{env: newEnvironment(map[string]any{
		"okta_domain": "dev-123.okta.com",
	})})

	rec := serveAdapter(t, adapter, "/installations/in_1/spaces/sp_1/visitor-auth")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
