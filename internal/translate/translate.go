// Package translate implements the machine-translation adapter: fetch events
// carrying text are relayed to the translation provider's REST API.
package translate

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
	"github.com/pagedeck/integrations/internal/serviceerr"
)

// IntegrationName is the adapter's name on the host platform.
const IntegrationName = "translate"

const translateEndpoint = "https://api.deepl.com/v2/translate"

// Config is the per-installation translation provider configuration.
type Config struct {
	APIKey     string `config:"api_key"`
	TargetLang string `config:"target_lang"`
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return serviceerr.ConfigurationMissing("api_key")
	}

	return nil
}

type Adapter struct {
	httpClient *http.Client
	loader     runtime.Loader
}

func NewAdapter(httpClient *http.Client, loader runtime.Loader) *Adapter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Adapter{httpClient: httpClient, loader: loader}
}

func (a *Adapter) Name() string { return IntegrationName }

func (a *Adapter) HandleEvent(ctx context.Context, event runtime.Event) error {
	slogctx.Debug(ctx, "Ignoring lifecycle event", "type", event.Type)

	return nil
}

func (a *Adapter) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/installations/{installationID}/spaces/{spaceID}/translate", a.handleTranslate)

	return r
}

type translateRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"targetLang"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
	TargetLang     string `json:"targetLang"`
}

func (a *Adapter) handleTranslate(w http.ResponseWriter, r *http.Request) {
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
		http.Error(w, "Error: Translation API key is missing", http.StatusBadRequest)

		return
	}

	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		http.Error(w, "Error: No text provided", http.StatusBadRequest)

		return
	}

	targetLang := req.TargetLang
	if targetLang == "" {
		targetLang = cfg.TargetLang
	}
	if targetLang == "" {
		http.Error(w, "Error: No target language configured", http.StatusBadRequest)

		return
	}

	translated, err := a.translate(ctx, cfg, req.Text, targetLang)
	if err != nil {
		slogctx.Error(ctx, "Translation request failed", "error", err)
		http.Error(w, "Error: Could not translate text", http.StatusBadGateway)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(translateResponse{
		TranslatedText: translated,
		TargetLang:     targetLang,
	})
}

func (a *Adapter) translate(ctx context.Context, cfg Config, text, targetLang string) (string, error) {
	data := url.Values{}
	data.Set("text", text)
	data.Set("target_lang", strings.ToUpper(targetLang))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, translateEndpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+cfg.APIKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("translation provider returned %d", resp.StatusCode)
	}

	var out struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(out.Translations) == 0 {
		return "", fmt.Errorf("provider returned no translations")
	}

	return out.Translations[0].Text, nil
}
