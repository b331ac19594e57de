// Package logx carries the logging conventions shared across the module:
// a TRACE level below slog's DEBUG for per-declaration noise, and the
// attribute rewrite that names it in handler output.
package logx

import (
	"context"
	"log/slog"
)

// LevelTrace sits below slog.LevelDebug. Per-declaration skips log here so
// they stay silent at normal verbosity.
const LevelTrace = slog.Level(-8)

// Trace logs at LevelTrace.
func Trace(log *slog.Logger, msg string, args ...any) {
	log.Log(context.Background(), LevelTrace, msg, args...)
}

// ReplaceLevelName renames the TRACE level in handler output. Pass to
// slog.HandlerOptions.ReplaceAttr.
func ReplaceLevelName(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if level, ok := a.Value.Any().(slog.Level); ok && level == LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}
	return a
}
