package logger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Notifier delivers a formatted log message to an operator channel.
// Implemented by the guild client; delivery is best-effort.
type Notifier interface {
	NotifyOps(msg string)
}

// DiscordHandler is a slog.Handler that forwards records at or above
// minLevel to a Discord ops channel, on top of the wrapped handler.
type DiscordHandler struct {
	handler  slog.Handler
	notifier Notifier
	minLevel slog.Level
	mu       sync.Mutex
	attrs    []slog.Attr
	group    string
}

func NewDiscordHandler(handler slog.Handler, notifier Notifier, minLevel slog.Level) *DiscordHandler {
	return &DiscordHandler{
		handler:  handler,
		notifier: notifier,
		minLevel: minLevel,
		attrs:    make([]slog.Attr, 0),
	}
}

func (h *DiscordHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *DiscordHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.handler.Handle(ctx, record)
	if err != nil {
		return err
	}

	if record.Level >= h.minLevel && h.notifier != nil {
		h.mu.Lock()
		defer h.mu.Unlock()

		var msg string
		if h.group != "" {
			msg = fmt.Sprintf("**%s** `%s.%s`", record.Level.String(), h.group, record.Message)
		} else {
			msg = fmt.Sprintf("**%s** `%s`", record.Level.String(), record.Message)
		}

		for _, attr := range h.attrs {
			msg += fmt.Sprintf("\n%s: %v", attr.Key, attr.Value)
		}
		record.Attrs(func(attr slog.Attr) bool {
			msg += fmt.Sprintf("\n%s: %v", attr.Key, attr.Value)
			return true
		})

		h.notifier.NotifyOps(msg)
	}

	return nil
}

func (h *DiscordHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &DiscordHandler{
		handler:  h.handler.WithAttrs(attrs),
		notifier: h.notifier,
		minLevel: h.minLevel,
		attrs:    newAttrs,
		group:    h.group,
	}
}

func (h *DiscordHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}

	return &DiscordHandler{
		handler:  h.handler.WithGroup(name),
		notifier: h.notifier,
		minLevel: h.minLevel,
		attrs:    h.attrs,
		group:    group,
	}
}
