package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/lmittmann/tint"
)

type Options struct {
	Level      string
	Format     string // text or json
	File       string // optional rotating log file, teed with stdout
	FluentHost string // optional Fluent Bit forward input
	FluentPort int
	TagPrefix  string
}

// Setup builds the process logger, installs it as the slog default and
// returns a closer for the file and Fluent sinks.
func Setup(opts Options) (*slog.Logger, func() error, error) {
	level := ParseLevel(opts.Level)
	var closers []io.Closer

	var out io.Writer = os.Stdout
	if opts.File != "" {
		rw, err := NewRotatingWriter(opts.File, defaultMaxLogSize)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		closers = append(closers, rw)
		out = io.MultiWriter(os.Stdout, rw)
	}

	var handler slog.Handler
	if opts.Format == "json" {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: "2006-01-02 15:04:05",
			NoColor:    opts.File != "",
		})
	}

	if opts.FluentHost != "" {
		prefix := opts.TagPrefix
		if prefix == "" {
			prefix = "wa_listings"
		}
		client, err := fluent.New(fluent.Config{
			FluentHost: opts.FluentHost,
			FluentPort: opts.FluentPort,
			TagPrefix:  prefix,
			Async:      true,
		})
		if err != nil {
			closeAll(closers)
			return nil, nil, fmt.Errorf("create fluent client: %w", err)
		}
		closers = append(closers, client)
		handler = NewMultiHandler(handler, NewFluentHandler(client, level))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger, func() error { return closeAll(closers) }, nil
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ParseLevel maps debug, info, warn and error; anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MultiHandler sends each record to every handler that accepts its level.
type MultiHandler struct {
	handlers []slog.Handler
}

func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: next}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: next}
}
