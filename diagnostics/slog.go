package diagnostics

import (
	"context"
	"log/slog"
)

// SlogObserver writes lifecycle events to a slog.Logger.
//
// Handling and Releasing are logged at [slog.LevelDebug]; Skipped is logged
// at [slog.LevelWarn].
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlog returns an observer logging to l. A nil logger falls back to
// slog.Default().
func NewSlog(l *slog.Logger) *SlogObserver {
	if l == nil {
		l = slog.Default()
	}
	return &SlogObserver{logger: l}
}

// Handling implements Observer.
func (o *SlogObserver) Handling(kind string, obj any) {
	o.log(slog.LevelDebug, "handling", kind, obj)
}

// Releasing implements Observer.
func (o *SlogObserver) Releasing(kind string, obj any) {
	o.log(slog.LevelDebug, "releasing", kind, obj)
}

// Skipped implements Observer.
func (o *SlogObserver) Skipped(kind string, obj any, reason string) {
	o.log(slog.LevelWarn, "skipped", kind, obj, slog.String("reason", reason))
}

func (o *SlogObserver) log(level slog.Level, msg, kind string, obj any, extra ...slog.Attr) {
	ctx := context.Background()
	// Skip formatting entirely when the level is disabled.
	if !o.logger.Enabled(ctx, level) {
		return
	}
	attrs := append([]slog.Attr{
		slog.String("kind", kind),
		slog.String("object", identity(obj)),
		slog.String("repr", repr(obj)),
	}, extra...)
	o.logger.LogAttrs(ctx, level, msg, attrs...)
}
