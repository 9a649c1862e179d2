package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/wire"
	"github.com/perpdesk/perpdesk/internal/domain/config"
)

var LoggingSet = wire.NewSet(
	NewLogger,
)

// NewLogger creates a new logger based on runtime configuration
func NewLogger(cfg *config.RuntimeConfig) *slog.Logger {
	return newLogger(os.Stderr, levelFromEnv(os.Getenv("PERPDESK_LOG_LEVEL"), cfg.Debug))
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Remove time for cleaner CLI output
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			// Shorten source paths
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok {
					source.File = shortPath(source.File)
				}
			}
			return a
		},
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// levelFromEnv maps PERPDESK_LOG_LEVEL to a level. --debug forces debug.
func levelFromEnv(val string, debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}

	switch strings.ToLower(val) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	// Quiet by default so log lines don't interleave with the UI
	return slog.LevelWarn
}

// shortPath returns the path relative to the module root when possible
func shortPath(file string) string {
	for _, root := range []string{"perpdesk/perpdesk/", "perpdesk/"} {
		if idx := strings.Index(file, root); idx != -1 {
			return file[idx+len(root):]
		}
	}
	if idx := strings.LastIndex(file, "/"); idx != -1 {
		return file[idx+1:]
	}
	return file
}
