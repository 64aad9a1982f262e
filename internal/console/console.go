// Package console is the ambient error console that renderers and components
// report framework warnings through.
//
// A Console is a slog.Handler. While a suppression is active, records at
// Warn level or above are captured instead of written; lower levels always
// pass through. Suppressions nest and each one receives only the records
// emitted while it was the innermost.
package console

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Entry is a captured console record.
type Entry struct {
	Level   slog.Level     `json:"level"`
	Message string         `json:"message"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// String renders the entry on one line.
func (e Entry) String() string {
	if len(e.Attrs) == 0 {
		return fmt.Sprintf("%s %s", e.Level, e.Message)
	}
	return fmt.Sprintf("%s %s %v", e.Level, e.Message, e.Attrs)
}

// Console routes records to an output handler unless suppressed.
type Console struct {
	mu     sync.Mutex
	out    slog.Handler
	stack  []*Suppression
	logger *slog.Logger
}

// New creates a console writing to out.
func New(out slog.Handler) *Console {
	if out == nil {
		out = slog.NewTextHandler(io.Discard, nil)
	}
	c := &Console{out: out}
	c.logger = slog.New(&handler{c: c, inner: out})
	return c
}

var (
	defaultOnce    sync.Once
	defaultConsole *Console
)

// Default returns the process-wide console, writing to stderr.
func Default() *Console {
	defaultOnce.Do(func() {
		defaultConsole = New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	})
	return defaultConsole
}

// Logger returns a logger that writes through the console.
func (c *Console) Logger() *slog.Logger {
	return c.logger
}

// Suppressed reports whether a suppression is active.
func (c *Console) Suppressed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stack) > 0
}

// Suppress starts capturing Warn+ records. The caller must Restore the
// returned suppression, typically with defer.
func (c *Console) Suppress() *Suppression {
	s := &Suppression{c: c}
	c.mu.Lock()
	c.stack = append(c.stack, s)
	c.mu.Unlock()
	return s
}

// Suppression is one scoped capture window.
type Suppression struct {
	c        *Console
	entries  []Entry
	restored bool
}

// Restore ends the suppression and returns what it captured. Calling it
// again returns the same entries without side effects. Restoring out of
// order also drops any suppressions opened after this one.
func (s *Suppression) Restore() []Entry {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.restored {
		return s.entries
	}
	for i := len(c.stack) - 1; i >= 0; i-- {
		if c.stack[i] == s {
			for _, inner := range c.stack[i+1:] {
				inner.restored = true
			}
			c.stack = c.stack[:i]
			break
		}
	}
	s.restored = true
	return s.entries
}

// Entries returns the records captured so far.
func (s *Suppression) Entries() []Entry {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// intercept records r in the innermost suppression. Returns false if the
// record should be written instead.
func (c *Console) intercept(r slog.Record, attrs []slog.Attr) bool {
	if r.Level < slog.LevelWarn {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.stack) == 0 {
		return false
	}
	e := Entry{Level: r.Level, Message: r.Message}
	if len(attrs) > 0 || r.NumAttrs() > 0 {
		e.Attrs = make(map[string]any, len(attrs)+r.NumAttrs())
		for _, a := range attrs {
			e.Attrs[a.Key] = a.Value.Resolve().Any()
		}
		r.Attrs(func(a slog.Attr) bool {
			e.Attrs[a.Key] = a.Value.Resolve().Any()
			return true
		})
	}
	top := c.stack[len(c.stack)-1]
	top.entries = append(top.entries, e)
	return true
}

type handler struct {
	c     *Console
	inner slog.Handler
	attrs []slog.Attr
}

func (h *handler) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= slog.LevelWarn && h.c.Suppressed() {
		return true
	}
	return h.inner.Enabled(ctx, level)
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	if h.c.intercept(r, h.attrs) {
		return nil
	}
	if !h.inner.Enabled(ctx, r.Level) {
		return nil
	}
	return h.inner.Handle(ctx, r)
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &handler{c: h.c, inner: h.inner.WithAttrs(attrs), attrs: merged}
}

func (h *handler) WithGroup(name string) slog.Handler {
	return &handler{c: h.c, inner: h.inner.WithGroup(name), attrs: h.attrs}
}
