// Package gitsync implements the GitLab adapter: webhook lifecycle
// reconciliation on installation changes and ingestion of push webhooks that
// trigger a content import on the host platform.
package gitsync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	slogctx "github.com/veqryn/slog-context"

	"github.com/pagedeck/integrations/internal/runtime"
)

// IntegrationName is the adapter's name on the host platform.
const IntegrationName = "gitlab"

// HookInstaller is the subset of the GitLab API the adapter needs.
type HookInstaller interface {
	AddProjectHook(ctx context.Context, cfg Config, callbackURL, secretToken string) (int64, error)
	DeleteProjectHook(ctx context.Context, cfg Config, hookID int64) error
}

// HostPlatform is the subset of the host API the adapter needs.
type HostPlatform interface {
	UpdateSpaceInstallationConfiguration(ctx context.Context, integration, installationID, spaceID string, configuration map[string]any) error
	TriggerImport(ctx context.Context, spaceID, source string) error
}

type Adapter struct {
	hooks     HookInstaller
	host      HostPlatform
	loader    runtime.Loader
	publicURL string
}

func NewAdapter(hooks HookInstaller, host HostPlatform, loader runtime.Loader, publicURL string) *Adapter {
	return &Adapter{
		hooks:     hooks,
		host:      host,
		loader:    loader,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (a *Adapter) Name() string { return IntegrationName }

// setupPayload carries the pre-change snapshot the host runtime attaches to
// installation setup events.
type setupPayload struct {
	Previous struct {
		Status        runtime.Status `json:"status"`
		Configuration map[string]any `json:"configuration"`
	} `json:"previous"`
}

func (a *Adapter) HandleEvent(ctx context.Context, event runtime.Event) error {
	switch event.Type {
	case runtime.EventSpaceInstallationSetup, runtime.EventInstallationSetup:
		return a.handleSetup(ctx, event)
	default:
		slogctx.Debug(ctx, "Ignoring lifecycle event", "type", event.Type)

		return nil
	}
}

// handleSetup reconciles the webhook registration with the new configuration.
// While the installation is still pending the handler is a deliberate no-op:
// there is nothing to register yet and no error to raise.
func (a *Adapter) handleSetup(ctx context.Context, event runtime.Event) error {
	si, err := event.Environment.RequireSpaceInstallation()
	if err != nil {
		return err
	}

	ctx = slogctx.With(ctx, "space_id", si.SpaceID, "installation_id", si.InstallationID)

	if si.Status == runtime.StatusPending {
		slogctx.Info(ctx, "Installation still pending, skipping webhook setup")

		return nil
	}

	next, err := ConfigFromMap(si.Configuration)
	if err != nil {
		return err
	}

	if err := next.Validate(); err != nil {
		return err
	}

	var payload setupPayload
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("decoding setup payload: %w", err)
		}
	} else {
		// No snapshot means a fresh installation; a zero-value previous
		// config with pending status makes the reconciliation install.
		payload.Previous.Status = runtime.StatusPending
	}

	previous, err := ConfigFromMap(payload.Previous.Configuration)
	if err != nil {
		return err
	}

	if !shouldUpdateWebhook(next, previous, payload.Previous.Status) {
		slogctx.Debug(ctx, "Webhook configuration unchanged")

		return nil
	}

	// The stale hook id normally travels in the previous snapshot, but a
	// fresh envelope without one may still carry it in the live
	// configuration from the last install. Deletion uses the credentials the
	// hook was created with.
	staleID, staleCfg := previous.WebhookID, previous
	if staleID == 0 {
		staleID, staleCfg = next.WebhookID, next
	}
	if staleID != 0 {
		if err := a.hooks.DeleteProjectHook(ctx, staleCfg, staleID); err != nil {
			return fmt.Errorf("removing stale webhook %d: %w", staleID, err)
		}
		slogctx.Info(ctx, "Removed stale webhook", "webhook_id", staleID)
	}

	callbackURL := a.webhookURL(si.InstallationID, si.SpaceID)
	hookID, err := a.hooks.AddProjectHook(ctx, next, callbackURL, event.Environment.SigningKey)
	if err != nil {
		return fmt.Errorf("installing webhook: %w", err)
	}

	updated := make(map[string]any, len(si.Configuration)+1)
	for k, v := range si.Configuration {
		updated[k] = v
	}
	updated["webhookId"] = hookID

	if err := a.host.UpdateSpaceInstallationConfiguration(ctx, IntegrationName, si.InstallationID, si.SpaceID, updated); err != nil {
		return fmt.Errorf("persisting webhook id: %w", err)
	}

	slogctx.Info(ctx, "Installed webhook", "webhook_id", hookID, "project", next.Project)

	return nil
}

func (a *Adapter) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/installations/{installationID}/spaces/{spaceID}/webhook", a.handleWebhook)

	return r
}

// pushEvent is the subset of GitLab's push webhook body the adapter reads.
type pushEvent struct {
	Ref     string `json:"ref"`
	Project struct {
		GitHTTPURL string `json:"git_http_url"`
	} `json:"project"`
}

// handleWebhook ingests push events from GitLab and triggers a content import
// on the host platform.
func (a *Adapter) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	installationID := chi.URLParam(r, "installationID")
	spaceID := chi.URLParam(r, "spaceID")

	env, err := a.loader.LoadEnvironment(ctx, IntegrationName, installationID, spaceID)
	if err != nil {
		slogctx.Error(ctx, "Failed to load environment for webhook", "error", err)
		http.Error(w, "Error: Unknown installation", http.StatusNotFound)

		return
	}

	if r.Header.Get("X-Gitlab-Token") != env.SigningKey || env.SigningKey == "" {
		http.Error(w, "Error: Invalid webhook token", http.StatusUnauthorized)

		return
	}

	if r.Header.Get("X-Gitlab-Event") != "Push Hook" {
		w.WriteHeader(http.StatusAccepted)

		return
	}

	var push pushEvent
	if err := json.NewDecoder(r.Body).Decode(&push); err != nil {
		http.Error(w, "Error: Malformed webhook body", http.StatusBadRequest)

		return
	}

	si, err := env.RequireSpaceInstallation()
	if err != nil {
		http.Error(w, "Error: Unknown installation", http.StatusNotFound)

		return
	}

	cfg, err := ConfigFromMap(si.Configuration)
	if err != nil {
		slogctx.Error(ctx, "Failed to decode configuration for webhook", "error", err)
		http.Error(w, "Error: Invalid configuration", http.StatusInternalServerError)

		return
	}

	if cfg.Ref != "" && push.Ref != "refs/heads/"+cfg.Ref {
		slogctx.Debug(ctx, "Ignoring push for untracked ref", "ref", push.Ref)
		w.WriteHeader(http.StatusAccepted)

		return
	}

	if err := a.host.TriggerImport(ctx, spaceID, push.Project.GitHTTPURL); err != nil {
		slogctx.Error(ctx, "Failed to trigger import", "error", err)
		http.Error(w, "Error: Import failed", http.StatusBadGateway)

		return
	}

	w.WriteHeader(http.StatusOK)
}

func (a *Adapter) webhookURL(installationID, spaceID string) string {
	return a.publicURL + "/v1/integrations/" + IntegrationName +
		"/installations/" + url.PathEscape(installationID) +
		"/spaces/" + url.PathEscape(spaceID) + "/webhook"
}
