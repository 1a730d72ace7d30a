// Package chatbot implements the chat-platform bot adapter: slash-command
// queries are relayed through the host platform's search API and answered
// with a structured message.
package chatbot

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	slogctx "github.com/veqryn/slog-context"

	"github.com/pagedeck/integrations/internal/hostapi"
	"github.com/pagedeck/integrations/internal/runtime"
	"github.com/pagedeck/integrations/internal/serviceerr"
)

// IntegrationName is the adapter's name on the host platform.
const IntegrationName = "slack"

// Searcher runs the host platform's content search.
type Searcher interface {
	SearchContent(ctx context.Context, spaceID, query string) ([]hostapi.SearchResult, error)
}

// ContentResolver resolves the published-content URL used to link results.
type ContentResolver interface {
	GetPublishedURL(ctx context.Context, spaceID string) (string, error)
}

// Config is the per-installation chat platform configuration.
type Config struct {
	VerificationToken string `config:"verification_token"`
}

func (c Config) Validate() error {
	if c.VerificationToken == "" {
		return serviceerr.ConfigurationMissing("verification_token")
	}

	return nil
}

type Adapter struct {
	search   Searcher
	resolver ContentResolver
	loader   runtime.Loader
}

func NewAdapter(search Searcher, resolver ContentResolver, loader runtime.Loader) *Adapter {
	return &Adapter{search: search, resolver: resolver, loader: loader}
}

func (a *Adapter) Name() string { return IntegrationName }

func (a *Adapter) HandleEvent(ctx context.Context, event runtime.Event) error {
	slogctx.Debug(ctx, "Ignoring lifecycle event", "type", event.Type)

	return nil
}

func (a *Adapter) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/installations/{installationID}/spaces/{spaceID}/commands", a.handleCommand)

	return r
}

// handleCommand answers a slash-command payload. Responses are always 200
// with a message body once the request is authenticated; the chat platform
// renders errors for non-2xx responses poorly.
func (a *Adapter) handleCommand(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	installationID := chi.URLParam(r, "installationID")
	spaceID := chi.URLParam(r, "spaceID")

	env, err := a.loader.LoadEnvironment(ctx, IntegrationName, installationID, spaceID)
	if err != nil {
		http.Error(w, "Error: Unknown installation", serviceerr.HTTPStatusFor(err))

		return
	}

	si, err := env.RequireSpaceInstallation()
	if err != nil {
		http.Error(w, "Error: Unknown installation", serviceerr.HTTPStatusFor(err))

		return
	}

	var cfg Config
	if err := runtime.DecodeConfiguration(si.Configuration, &cfg); err != nil {
		http.Error(w, "Error: Invalid configuration", http.StatusInternalServerError)

		return
	}

	if err := cfg.Validate(); err != nil {
		http.Error(w, "Error: Verification token is missing", http.StatusBadRequest)

		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Error: Malformed command payload", http.StatusBadRequest)

		return
	}

	if r.PostForm.Get("token") != cfg.VerificationToken {
		http.Error(w, "Error: Invalid verification token", http.StatusUnauthorized)

		return
	}

	query := r.PostForm.Get("text")
	if query == "" {
		writeMessage(w, helpMessage())

		return
	}

	results, err := a.search.SearchContent(ctx, spaceID, query)
	if err != nil {
		slogctx.Error(ctx, "Content search failed", "error", err)
		http.Error(w, "Error: Search failed", http.StatusBadGateway)

		return
	}

	// A missing published URL only degrades links; results still render.
	publishedURL, err := a.resolver.GetPublishedURL(ctx, spaceID)
	if err != nil {
		slogctx.Warn(ctx, "No published URL for result links", "error", err)
		publishedURL = ""
	}

	writeMessage(w, renderResults(query, publishedURL, results))
}

func writeMessage(w http.ResponseWriter, msg message) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(msg)
}
