package pool

import (
	"io"
	"log/slog"
	"os"
)

// Runtime debug flag for pool logging - controlled by OPALLOC_LOG_POOL env var.
var logPool = os.Getenv("OPALLOC_LOG_POOL") != ""

var poolLog = newPoolLogger()

func newPoolLogger() *slog.Logger {
	if !logPool {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
