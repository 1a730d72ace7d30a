// Package cmdutils carries the pieces shared by all subcommands.
package cmdutils

import (
	"log/slog"
	"os"
	"strings"

	slogctx "github.com/veqryn/slog-context"

	"github.com/pagedeck/integrations/internal/config"
)

// InitLogger configures the process-wide default logger. The handler is
// wrapped with slogctx so request-scoped attributes attached to a context
// flow into every record.
func InitLogger(cfg config.Logger) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(slogctx.NewHandler(handler, nil)))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
