package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Log is the global logger instance
var Log *slog.Logger

// Init initializes the global logger based on environment.
// Development: text on stdout at Debug level.
// Production: JSON on stdout at Info level.
// Errors are additionally shipped to Sentry when a DSN is configured.
func Init(isDev bool, sentryDSN string) {
	InitWriter(os.Stdout, isDev, sentryDSN)
}

// InitWriter is Init with an explicit output, used by the CLI to log to stderr.
func InitWriter(w io.Writer, isDev bool, sentryDSN string) {
	var handlers []slog.Handler

	if isDev {
		handlers = append(handlers, slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	} else {
		handlers = append(handlers, slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	if sentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              sentryDSN,
			TracesSampleRate: 0.2,
		})
		if err == nil {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
		}
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	} else {
		handler = handlers[0]
	}

	Log = slog.New(handler).With("service", "gameia-engine")
	slog.SetDefault(Log)
}

// Flush waits for buffered Sentry events before shutdown.
func Flush() {
	sentry.Flush(2 * time.Second)
}
