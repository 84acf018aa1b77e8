package log

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// mirrorErrors gates copying error records to the secondary handler. The
// interactive browser turns it off while it owns the terminal.
var mirrorErrors atomic.Bool

func init() {
	mirrorErrors.Store(true)
}

func EnableErrorMirroring() { mirrorErrors.Store(true) }

func DisableErrorMirroring() { mirrorErrors.Store(false) }

// NewDualHandler sends every record to primary and, while mirroring is
// enabled, error records to secondary as well. Either handler may be nil.
func NewDualHandler(primary, secondary slog.Handler) slog.Handler {
	return &dualHandler{primary: primary, secondary: secondary}
}

type dualHandler struct {
	primary   slog.Handler
	secondary slog.Handler
}

func (h *dualHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.primary != nil && h.primary.Enabled(ctx, level) {
		return true
	}
	return h.mirrors(level) && h.secondary.Enabled(ctx, level)
}

func (h *dualHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.primary != nil && h.primary.Enabled(ctx, r.Level) {
		if err := h.primary.Handle(ctx, r); err != nil {
			return err
		}
	}
	if h.mirrors(r.Level) && h.secondary.Enabled(ctx, r.Level) {
		return h.secondary.Handle(ctx, r.Clone())
	}
	return nil
}

func (h *dualHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(inner slog.Handler) slog.Handler { return inner.WithAttrs(attrs) })
}

func (h *dualHandler) WithGroup(name string) slog.Handler {
	return h.derive(func(inner slog.Handler) slog.Handler { return inner.WithGroup(name) })
}

func (h *dualHandler) derive(fn func(slog.Handler) slog.Handler) slog.Handler {
	next := &dualHandler{}
	if h.primary != nil {
		next.primary = fn(h.primary)
	}
	if h.secondary != nil {
		next.secondary = fn(h.secondary)
	}
	return next
}

func (h *dualHandler) mirrors(level slog.Level) bool {
	return h.secondary != nil && level >= slog.LevelError && mirrorErrors.Load()
}
