// Package scriptinject implements the publish-time script injector: the host
// platform fetches a JS snippet with the installation's tag-manager container
// ID baked in and embeds it into published pages.
package scriptinject

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	slogctx "github.com/veqryn/slog-context"

	"github.com/pagedeck/integrations/internal/runtime"
	"github.com/pagedeck/integrations/internal/serviceerr"
)

// IntegrationName is the adapter's name on the host platform.
const IntegrationName = "tag-manager"

// bootstrapScript is the standard tag-manager loader with the container ID
// substituted in.
const bootstrapScript = `(function(w,d,s,l,i){w[l]=w[l]||[];w[l].push({'gtm.start':
new Date().getTime(),event:'gtm.js'});var f=d.getElementsByTagName(s)[0],
j=d.createElement(s),dl=l!='dataLayer'?'&l='+l:'';j.async=true;j.src=
'https://www.googletagmanager.com/gtm.js?id='+i+dl;f.parentNode.insertBefore(j,f);
})(window,document,'script','dataLayer','%s');
`

// Config is the per-space tag-manager configuration.
type Config struct {
	ContainerID string `config:"container_id"`
}

func (c Config) Validate() error {
	if c.ContainerID == "" {
		return serviceerr.ConfigurationMissing("container_id")
	}

	return nil
}

type Adapter struct {
	loader runtime.Loader
}

func NewAdapter(loader runtime.Loader) *Adapter {
	return &Adapter{loader: loader}
}

func (a *Adapter) Name() string { return IntegrationName }

func (a *Adapter) HandleEvent(ctx context.Context, event runtime.Event) error {
	slogctx.Debug(ctx, "Ignoring lifecycle event", "type", event.Type)

	return nil
}

func (a *Adapter) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/installations/{installationID}/spaces/{spaceID}/script", a.handleScript)

	return r
}

func (a *Adapter) handleScript(w http.ResponseWriter, r *http.Request) {
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
		http.Error(w, "Error: Container ID is missing", http.StatusBadRequest)

		return
	}

	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "max-age=3600")
	_, _ = fmt.Fprintf(w, bootstrapScript, cfg.ContainerID)
}
