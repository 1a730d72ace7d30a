package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	slogctx "github.com/veqryn/slog-context"

	"github.com/pagedeck/integrations/internal/config"
	"github.com/pagedeck/integrations/internal/runtime"
	"github.com/pagedeck/integrations/internal/serviceerr"
)

// Adapter is implemented by every integration hosted by this service.
type Adapter interface {
	Name() string
	HandleEvent(ctx context.Context, event runtime.Event) error
	Routes() chi.Router
}

func newRouter(cfg *config.Config, adapters []Adapter) http.Handler {
	byName := make(map[string]Adapter, len(adapters))
	for _, adapter := range adapters {
		byName[adapter.Name()] = adapter
	}

	r := chi.NewRouter()
	r.Use(traceMiddleware(cfg))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/v1", func(r chi.Router) {
		for _, adapter := range adapters {
			r.Mount("/integrations/"+adapter.Name(), adapter.Routes())
		}

		r.Post("/events/{integration}", eventsHandler(byName))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, fmt.Sprintf("no handler for %s %s", r.Method, r.URL.Path), http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, fmt.Sprintf("no handler for %s %s", r.Method, r.URL.Path), http.StatusNotFound)
	})

	return r
}

// eventsHandler dispatches lifecycle event envelopes from the host runtime to
// the named adapter.
func eventsHandler(byName map[string]Adapter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		name := chi.URLParam(r, "integration")
		adapter, ok := byName[name]
		if !ok {
			http.Error(w, fmt.Sprintf("no integration named %q", name), http.StatusNotFound)

			return
		}

		event, err := runtime.ParseEvent(r.Body)
		if err != nil {
			slogctx.Error(ctx, "Rejected malformed event envelope", "integration", name, "error", err)
			http.Error(w, "malformed event envelope", http.StatusBadRequest)

			return
		}

		ctx = slogctx.With(ctx, "integration", name, "event_type", event.Type)

		if err := adapter.HandleEvent(ctx, event); err != nil {
			slogctx.Error(ctx, "Event handling failed", "error", err)
			http.Error(w, "event handling failed", serviceerr.HTTPStatusFor(err))

			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}
}
