package visitorauth

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	slogctx "github.com/veqryn/slog-context"

	"github.com/pagedeck/integrations/internal/runtime"
	"github.com/pagedeck/integrations/internal/serviceerr"
)

// Adapter exposes the visitor-authentication endpoints to the host runtime's
// event router.
type Adapter struct {
	manager *Manager
	loader  runtime.Loader
}

func NewAdapter(manager *Manager, loader runtime.Loader) *Adapter {
	return &Adapter{manager: manager, loader: loader}
}

func (a *Adapter) Name() string { return IntegrationName }

// HandleEvent is part of the adapter contract; visitor authentication has no
// lifecycle events, everything happens on the fetch endpoints below.
func (a *Adapter) HandleEvent(ctx context.Context, event runtime.Event) error {
	slogctx.Debug(ctx, "Ignoring lifecycle event", "type", event.Type)

	return nil
}

func (a *Adapter) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/installations/{installationID}/spaces/{spaceID}/visitor-auth", a.handleAuthorize)
	r.Get("/installations/{installationID}/spaces/{spaceID}/visitor-auth/response", a.handleCallback)

	return r
}

// handleAuthorize initiates visitor authentication: it sends the browser to
// the identity provider carrying the requested location inside state.
func (a *Adapter) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	env, err := a.loadEnvironment(r)
	if err != nil {
		writeError(ctx, w, err)

		return
	}

	location := r.URL.Query().Get("location")

	authURI, err := a.manager.MakeAuthURI(ctx, env, location)
	if err != nil {
		slogctx.Error(ctx, "Failed to build authorization URI", "error", err)
		writeError(ctx, w, err)

		return
	}

	http.Redirect(w, r, authURI, http.StatusFound)
}

// handleCallback is the redirect target the identity provider sends the
// visitor back to with an authorization code.
func (a *Adapter) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	env, err := a.loadEnvironment(r)
	if err != nil {
		writeError(ctx, w, err)

		return
	}

	query := r.URL.Query()
	code := query.Get("code")
	if code == "" {
		http.Error(w, "Error: No code provided", http.StatusBadRequest)

		return
	}

	redirectURL, err := a.manager.ExchangeVisitorToken(ctx, env, code, query.Get("state"))
	if err != nil {
		slogctx.Error(ctx, "Visitor token exchange failed", "error", err)
		writeError(ctx, w, err)

		return
	}

	http.Redirect(w, r, redirectURL, http.StatusFound)
}

func (a *Adapter) loadEnvironment(r *http.Request) (*runtime.Environment, error) {
	installationID := chi.URLParam(r, "installationID")
	spaceID := chi.URLParam(r, "spaceID")

	return a.loader.LoadEnvironment(r.Context(), IntegrationName, installationID, spaceID)
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := serviceerr.HTTPStatusFor(err)

	var body string
	switch {
	case errors.Is(err, serviceerr.ErrConfigurationMissing):
		body = "Error: Either client id, client secret or okta domain is missing"
	case errors.Is(err, serviceerr.ErrUpstreamAuth):
		body = "Error: Could not fetch token from Okta"
	case errors.Is(err, serviceerr.ErrDataMissing):
		body = "Error: Could not fetch published URL"
	case errors.Is(err, serviceerr.ErrSigning):
		body = "Error: Could not sign token"
	default:
		slogctx.Error(ctx, "Unclassified visitor auth failure", "error", err)
		body = "Error: Internal error"
	}

	http.Error(w, body, status)
}
