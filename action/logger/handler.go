package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Handler is a slog.Handler that writes records
// through a Logger, mapping levels to annotations.
type Handler struct {
	l      *Logger
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler returns a Handler writing to l. A nil
// level means slog.LevelInfo.
func NewHandler(l *Logger, level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}

	return &Handler{l: l, level: level}
}

// Enabled reports whether lvl passes the threshold.
func (h *Handler) Enabled(_ context.Context, lvl slog.Level) bool {
	return lvl >= h.level.Level()
}

// Handle formats the record as "message key=value ..."
// and writes it on the channel matching its level.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder

	sb.WriteString(r.Message)

	for _, a := range h.attrs {
		appendAttr(&sb, "", a)
	}

	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&sb, h.prefix, a)

		return true
	})

	// Without arguments the text is not run through
	// Sprintf, so each line is decorated verbatim.
	msg := sb.String()

	switch {
	case r.Level >= slog.LevelError:
		h.l.Error(msg)
	case r.Level >= slog.LevelWarn:
		h.l.Warn(msg)
	case r.Level >= slog.LevelInfo:
		h.l.Info(msg)
	default:
		h.l.Debug(msg)
	}

	return h.l.Err()
}

// WithAttrs returns a Handler that always appends
// attrs.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	nh.attrs = append(nh.attrs, h.attrs...)

	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}

		nh.attrs = append(nh.attrs, a)
	}

	return &nh
}

// WithGroup qualifies subsequent attribute keys with
// name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	nh := *h
	nh.prefix = h.prefix + name + "."

	return &nh
}

func appendAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}

		for _, ga := range a.Value.Group() {
			appendAttr(sb, p, ga)
		}

		return
	}

	fmt.Fprintf(sb, " %s%s=%v", prefix, a.Key, a.Value.Any())
}
