package testhelpers

import (
	"io"
	"log/slog"

	"github.com/myrjola/gymstats/internal/logging"
)

// NewLogger creates a debug level text logger with the given log sink such as testhelpers.Writer. Timestamps are
// left out so that log lines can be compared between runs.
func NewLogger(logSink io.Writer) *slog.Logger {
	handler := logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: dropTime,
	}))
	return slog.New(handler)
}

func dropTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{} //nolint:exhaustruct // empty attr is dropped.
	}
	return a
}
