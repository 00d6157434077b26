// Package logging provides structured-logging helpers shared by every
// component in the relay.
//
// Design principles:
//   - Logging is dependency-injected, never global.
//   - Each component scopes its own logger once at construction time with
//     slog.With("component", "...").
//   - Default turns a nil logger into a discard logger; component
//     constructors do not call it and take a non-nil logger.
//   - Global configuration (format, destination) belongs only in main().
//
// Per-message logging on the hot path (parse/route/transform/emit) is kept
// to debug level and off by default; lifecycle boundaries (listener up,
// sender state change, pipeline shutdown) are the intended log points.
package logging

import (
	"context"
	"log/slog"
	"maps"
	"sync/atomic"
)

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// Default returns logger if non-nil, otherwise a discard logger.
func Default(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return Discard()
}

// ComponentFilterHandler wraps a slog.Handler and applies a per-component
// minimum level, read from the record's "component" attribute. This lets an
// operator raise verbosity for, say, the egress sender without touching
// every other component.
type ComponentFilterHandler struct {
	next         slog.Handler
	defaultLevel slog.Level

	preAttrs []slog.Attr

	levels *atomic.Pointer[map[string]slog.Level]
}

// NewComponentFilterHandler wraps next with per-component level filtering.
// Components without an explicit level fall back to defaultLevel.
func NewComponentFilterHandler(next slog.Handler, defaultLevel slog.Level) *ComponentFilterHandler {
	p := &atomic.Pointer[map[string]slog.Level]{}
	empty := make(map[string]slog.Level)
	p.Store(&empty)
	return &ComponentFilterHandler{next: next, defaultLevel: defaultLevel, levels: p}
}

func (h *ComponentFilterHandler) Enabled(context.Context, slog.Level) bool {
	// Real filtering happens in Handle, where the component attribute is visible.
	return true
}

func (h *ComponentFilterHandler) Handle(ctx context.Context, r slog.Record) error {
	levels := *h.levels.Load()
	component := h.component(r)

	min := h.defaultLevel
	if lvl, ok := levels[component]; ok {
		min = lvl
	}
	if r.Level < min {
		return nil
	}
	if !h.next.Enabled(ctx, r.Level) {
		return nil
	}
	return h.next.Handle(ctx, r)
}

func (h *ComponentFilterHandler) component(r slog.Record) string {
	for _, a := range h.preAttrs {
		if a.Key == "component" {
			if s, ok := a.Value.Resolve().Any().(string); ok {
				return s
			}
		}
	}
	var component string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			if s, ok := a.Value.Resolve().Any().(string); ok {
				component = s
				return false
			}
		}
		return true
	})
	return component
}

func (h *ComponentFilterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	pre := make([]slog.Attr, len(h.preAttrs), len(h.preAttrs)+len(attrs))
	copy(pre, h.preAttrs)
	pre = append(pre, attrs...)
	return &ComponentFilterHandler{
		next:         h.next.WithAttrs(attrs),
		defaultLevel: h.defaultLevel,
		preAttrs:     pre,
		levels:       h.levels,
	}
}

func (h *ComponentFilterHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ComponentFilterHandler{
		next:         h.next.WithGroup(name),
		defaultLevel: h.defaultLevel,
		preAttrs:     h.preAttrs,
		levels:       h.levels,
	}
}

// SetLevel sets the minimum level for component. Safe for concurrent use.
func (h *ComponentFilterHandler) SetLevel(component string, level slog.Level) {
	old := *h.levels.Load()
	next := make(map[string]slog.Level, len(old)+1)
	maps.Copy(next, old)
	next[component] = level
	h.levels.Store(&next)
}

// Level returns the configured minimum for component, or the default.
func (h *ComponentFilterHandler) Level(component string) slog.Level {
	levels := *h.levels.Load()
	if lvl, ok := levels[component]; ok {
		return lvl
	}
	return h.defaultLevel
}
