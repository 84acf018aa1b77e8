package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
)

// NewFriendlyErrorHandler renders error records as a short "Error: ..." block
// meant for a terminal rather than a log file.
func NewFriendlyErrorHandler(w io.Writer) slog.Handler {
	return &friendlyHandler{w: w}
}

type friendlyHandler struct {
	w      io.Writer
	attrs  []slog.Attr
	groups []string
}

type entry struct {
	key   string
	value string
}

func (h *friendlyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *friendlyHandler) Handle(_ context.Context, r slog.Record) error {
	entries := h.entries(r)

	summary := strings.TrimSpace(r.Message)
	if summary == "" {
		summary = lookup(entries, "error")
	}
	if summary == "" {
		summary = "an unknown error occurred"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", summary)
	if hint := lookup(entries, "hint"); hint != "" {
		fmt.Fprintf(&sb, "  hint: %s\n", hint)
	}

	rest := slices.DeleteFunc(entries, func(e entry) bool {
		return e.key == "hint" || e.key == "error" || e.value == ""
	})
	slices.SortStableFunc(rest, func(a, b entry) int { return strings.Compare(a.key, b.key) })
	for _, e := range rest {
		writeEntry(&sb, e)
	}

	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *friendlyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(slices.Clone(h.attrs), attrs...)
	return &next
}

func (h *friendlyHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.groups = append(slices.Clone(h.groups), name)
	return &next
}

func (h *friendlyHandler) entries(r slog.Record) []entry {
	out := make([]entry, 0, len(h.attrs)+r.NumAttrs())
	add := func(a slog.Attr) bool {
		key := a.Key
		if len(h.groups) > 0 {
			key = strings.Join(append(slices.Clone(h.groups), key), ".")
		}
		out = append(out, entry{key: key, value: valueString(a.Value.Resolve())})
		return true
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(add)
	return out
}

func lookup(entries []entry, key string) string {
	for _, e := range entries {
		if e.key == key && e.value != "" {
			return e.value
		}
	}
	return ""
}

func valueString(v slog.Value) string {
	switch v.Kind() {
	case slog.KindGroup:
		attrs := v.Group()
		parts := make([]string, 0, len(attrs))
		for _, a := range attrs {
			parts = append(parts, a.Key+"="+valueString(a.Value.Resolve()))
		}
		return strings.Join(parts, ", ")
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

func writeEntry(sb *strings.Builder, e entry) {
	lines := strings.Split(strings.TrimSpace(e.value), "\n")
	fmt.Fprintf(sb, "  %s: %s\n", e.key, strings.TrimSpace(lines[0]))
	for _, line := range lines[1:] {
		if line = strings.TrimSpace(line); line != "" {
			fmt.Fprintf(sb, "    %s\n", line)
		}
	}
}
