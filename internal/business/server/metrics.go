package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	slogctx "github.com/veqryn/slog-context"

	"github.com/pagedeck/integrations/internal/config"
)

var (
	counter metric.Int64Counter
	hist    metric.Int64Histogram
)

func initMeters(cfg *config.Config) error {
	meter := otel.Meter(
		"integrations/"+cfg.Application.Name,
		metric.WithInstrumentationVersion(otel.Version()),
	)

	var err error

	counter, err = meter.Int64Counter(
		"http.request_count",
		metric.WithDescription("Incoming request count"),
		metric.WithUnit("request"),
	)
	if err != nil {
		return oops.In("HTTP Server").
			Wrapf(err, "creating request_count meter")
	}

	hist, err = meter.Int64Histogram(
		"http.duration",
		metric.WithDescription("Incoming end to end duration"),
		metric.WithUnit("milliseconds"),
	)
	if err != nil {
		return oops.In("HTTP Server").
			Wrapf(err, "creating duration meter")
	}

	return nil
}

// traceMiddleware injects a request id into the logging context, opens a span
// per request and records the request counter and duration histogram.
func traceMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	tracer := otel.Tracer(cfg.Application.Name)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := slogctx.With(r.Context(),
				"request_id", uuid.NewString(),
				"method", r.Method,
				"path", r.URL.Path,
			)

			parentCtx := otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(r.Header))

			ctx, span := tracer.Start(parentCtx, r.Method+" "+r.URL.Path,
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.path", r.URL.Path),
				),
			)
			defer span.End()

			requestStartTime := time.Now()

			defer func() {
				elapsedTime := time.Since(requestStartTime)

				attrs := metric.WithAttributes(
					attribute.String("method", r.Method),
					attribute.String("userAgent", r.UserAgent()),
				)

				counter.Add(ctx, 1, attrs)
				hist.Record(ctx, elapsedTime.Milliseconds(), attrs)
			}()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
