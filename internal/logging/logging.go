// Package logging configures structured JSON logging for hosts embedding
// the pool engine.
package logging

import (
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/nhbchain/iptpool/pool"
)

// Setup configures the standard library logger to emit structured JSON and
// returns the underlying slog.Logger. Every log line carries the pool id and
// environment when provided.
func Setup(poolID, env string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: false,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey {
				return slog.Attr{Key: "timestamp", Value: attr.Value}
			}
			if attr.Key == slog.LevelKey {
				return slog.String("severity", strings.ToUpper(attr.Value.String()))
			}
			if attr.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: attr.Value}
			}
			return attr
		},
	})

	attrs := []slog.Attr{
		slog.String("component", "iptpool"),
	}
	if poolID = strings.TrimSpace(poolID); poolID != "" {
		attrs = append(attrs, slog.String("pool_id", poolID))
	}
	if env = strings.TrimSpace(env); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}

	withArgs := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		withArgs = append(withArgs, attr)
	}

	base := slog.New(handler).With(withArgs...)
	slog.SetDefault(base)

	stdBridge := slog.NewLogLogger(handler.WithAttrs(attrs), slog.LevelInfo)
	stdBridge.SetFlags(0)
	log.SetOutput(stdBridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}

// EventLogger adapts a *slog.Logger into a pool.Emitter, so every emitted
// event also lands in the structured log stream. Kept separate from
// pool.Emitter itself so hosts can choose not to wire it.
type EventLogger struct {
	Logger *slog.Logger
}

// Emit logs ev at info level with its event type name. The concrete field
// logging belongs to whichever transport (RPC, indexer feed) the host
// builds on top of this; this adapter exists purely for operability.
func (l EventLogger) Emit(ev pool.Event) {
	l.Logger.Info("pool event", slog.String("type", ev.EventType()))
}
