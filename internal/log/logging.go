// Package log builds the process logger.
//
// Without a log file, records below error go to stdout and errors go to
// stderr, so stderr can be redirected on its own. With a log file, the
// console gets stderr only and the file gets everything.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LevelTrace sits below Debug and carries per-event pipeline output.
const LevelTrace slog.Level = -8

// Config is embedded into the CLI under the "log." prefix.
type Config struct {
	Level   string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"KEYPIPE_LOG_LEVEL"`
	File    string `help:"Also write logs to this file" env:"KEYPIPE_LOG_FILE"`
	RawFile string `help:"Dump every HID report as hex to this file" env:"KEYPIPE_LOG_RAW_FILE"`
}

func ParseLevel(s string) slog.Level {
	switch s {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// levelName prints LevelTrace as TRACE instead of DEBUG-4.
func levelName(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if l, ok := a.Value.Any().(slog.Level); ok && l <= LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}
	return a
}

func textHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level, ReplaceAttr: levelName})
}

// fanout sends every record to each handler that takes it.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			_ = h.Handle(ctx, r.Clone())
		}
	}
	return nil
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// below passes only records under a level.
type below struct {
	limit slog.Level
	slog.Handler
}

func (b below) Enabled(ctx context.Context, level slog.Level) bool {
	return level < b.limit && b.Handler.Enabled(ctx, level)
}

func (b below) WithAttrs(attrs []slog.Attr) slog.Handler {
	return below{b.limit, b.Handler.WithAttrs(attrs)}
}

func (b below) WithGroup(name string) slog.Handler {
	return below{b.limit, b.Handler.WithGroup(name)}
}

// NewLogger builds a logger writing to the given console streams and, if
// file is non-nil, to file.
func NewLogger(level slog.Level, stdout, stderr, file io.Writer) *slog.Logger {
	var hs fanout
	if file == nil {
		hs = append(hs,
			below{slog.LevelError, textHandler(stdout, level)},
			textHandler(stderr, max(level, slog.LevelError)),
		)
	} else {
		hs = append(hs, textHandler(stderr, level), textHandler(file, level))
	}
	return slog.New(hs)
}

// Setup opens the files named in cfg and returns the logger, the raw
// report logger and the files to close on exit.
func Setup(cfg Config) (*slog.Logger, RawLogger, []io.Closer, error) {
	var closers []io.Closer
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	level := ParseLevel(cfg.Level)
	var file io.Writer
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, nil, err
		}
		closers = append(closers, f)
		file = f
	}
	logger := NewLogger(level, os.Stdout, os.Stderr, file)

	var raw RawLogger
	switch {
	case cfg.RawFile != "":
		f, err := os.OpenFile(cfg.RawFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			closeAll()
			return nil, nil, nil, err
		}
		closers = append(closers, f)
		raw = NewRaw(f)
	case level <= LevelTrace:
		raw = NewRaw(os.Stdout)
	default:
		raw = NewRaw(nil)
	}
	return logger, raw, closers, nil
}
