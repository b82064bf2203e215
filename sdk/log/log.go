// Package log holds the logger of sdk packages.
// Applications replace Logger to route records into own logging.
package log

import (
	"log/slog"
	"os"
)

// Logger writes to stderr until replaced, stdout is kept for command results
var Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelWarn,
})).WithGroup("zbxctl.sdk")
