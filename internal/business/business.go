// Package business wires the adapters to the host API client and runs the
// public HTTP server.
package business

import (
	"context"
	"net/http"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/pagedeck/integrations/internal/business/server"
	"github.com/pagedeck/integrations/internal/chatbot"
	"github.com/pagedeck/integrations/internal/config"
	"github.com/pagedeck/integrations/internal/gitsync"
	"github.com/pagedeck/integrations/internal/hostapi"
	"github.com/pagedeck/integrations/internal/scriptinject"
	"github.com/pagedeck/integrations/internal/translate"
	"github.com/pagedeck/integrations/internal/visitorauth"
)

const outboundTimeout = 30 * time.Second

// Main builds the adapter set and starts the HTTP server, blocking until the
// context is cancelled.
func Main(ctx context.Context, cfg *config.Config) error {
	httpClient := &http.Client{Timeout: outboundTimeout}

	host := hostapi.NewClient(cfg.HostAPI, httpClient)
	publicURL := cfg.Application.PublicURL

	adapters := []server.Adapter{
		visitorauth.NewAdapter(
			visitorauth.NewManager(host, httpClient, publicURL),
			host,
		),
		gitsync.NewAdapter(
			gitsync.NewClient(httpClient),
			host,
			host,
			publicURL,
		),
		translate.NewAdapter(httpClient, host),
		scriptinject.NewAdapter(host),
		chatbot.NewAdapter(host, host, host),
	}

	for _, adapter := range adapters {
		slogctx.Info(ctx, "Registered integration adapter", "integration", adapter.Name())
	}

	return server.StartHTTPServer(ctx, cfg, adapters)
}
