package logging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
)

// FanoutHandler sends every record to all of its handlers.
type FanoutHandler struct {
	handlers []slog.Handler
}

// NewFanoutHandler returns a handler writing to every given handler.
func NewFanoutHandler(handlers ...slog.Handler) *FanoutHandler {
	return &FanoutHandler{handlers: handlers}
}

// Enabled reports whether any handler accepts the level.
func (h *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h.handlers {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle passes a copy of r to each enabled handler and joins their errors.
func (h *FanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, hh := range h.handlers {
		if !hh.Enabled(ctx, r.Level) {
			continue
		}
		if err := hh.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs applies attrs to every handler.
func (h *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		next[i] = hh.WithAttrs(attrs)
	}
	return &FanoutHandler{handlers: next}
}

// WithGroup applies the group to every handler.
func (h *FanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		next[i] = hh.WithGroup(name)
	}
	return &FanoutHandler{handlers: next}
}

// poster is the part of *fluent.Fluent the handler needs.
type poster interface {
	Post(tag string, message interface{}) error
}

// FluentHandler posts records to Fluent Bit, tagged with the level name.
// Groups are flattened into dotted keys.
type FluentHandler struct {
	client   poster
	minLevel slog.Level
	fields   map[string]any
	prefix   string
}

// NewFluentHandler posts records at or above minLevel to client.
func NewFluentHandler(client *fluent.Fluent, minLevel slog.Leveler) *FluentHandler {
	return newFluentHandler(client, minLevel)
}

func newFluentHandler(client poster, minLevel slog.Leveler) *FluentHandler {
	level := slog.LevelInfo
	if minLevel != nil {
		level = minLevel.Level()
	}
	return &FluentHandler{client: client, minLevel: level, fields: map[string]any{}}
}

func (h *FluentHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.minLevel
}

func (h *FluentHandler) Handle(_ context.Context, r slog.Record) error {
	data := make(map[string]any, len(h.fields)+r.NumAttrs()+3)
	for k, v := range h.fields {
		data[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		h.put(data, h.prefix, a)
		return true
	})
	data["level"] = r.Level.String()
	data["message"] = r.Message
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	data["timestamp"] = ts.UTC().Format(time.RFC3339Nano)
	return h.client.Post(levelTag(r.Level), data)
}

func (h *FluentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	for _, a := range attrs {
		next.put(next.fields, next.prefix, a)
	}
	return next
}

func (h *FluentHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.prefix = h.prefix + name + "."
	return next
}

func (h *FluentHandler) clone() *FluentHandler {
	fields := make(map[string]any, len(h.fields))
	for k, v := range h.fields {
		fields[k] = v
	}
	return &FluentHandler{client: h.client, minLevel: h.minLevel, fields: fields, prefix: h.prefix}
}

func (h *FluentHandler) put(dst map[string]any, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range v.Group() {
			h.put(dst, p, ga)
		}
		return
	}
	if a.Key == "" {
		return
	}
	switch v.Kind() {
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			dst[prefix+a.Key] = err.Error()
			return
		}
		dst[prefix+a.Key] = v.Any()
	case slog.KindDuration:
		dst[prefix+a.Key] = v.Duration().String()
	case slog.KindTime:
		dst[prefix+a.Key] = v.Time().UTC().Format(time.RFC3339Nano)
	default:
		dst[prefix+a.Key] = v.Any()
	}
}

func levelTag(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "error"
	case l >= slog.LevelWarn:
		return "warn"
	case l >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
