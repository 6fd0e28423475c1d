// Package logging builds the leveled diagnostic logger shared by the
// filesystem and the store.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelTrace sits below slog.LevelDebug for per-query chatter.
const LevelTrace = slog.Level(-8)

// Level is a verbosity selector as given on the command line.
type Level string

const (
	Off     Level = "OFF"
	Error   Level = "ERROR"
	Warning Level = "WARNING"
	Debug   Level = "DEBUG"
	Trace   Level = "TRACE"
)

// Levels lists the accepted selectors in increasing verbosity.
var Levels = []Level{Off, Error, Warning, Debug, Trace}

// ParseLevel accepts a selector in any letter case.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Levels {
		if l == known {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown log level %q (want one of %s)", s, joinLevels())
}

func (l Level) String() string { return string(l) }

// Set parses s into l so a Level can back a command-line flag.
func (l *Level) Set(s string) error {
	parsed, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Type names the flag value in usage output.
func (l *Level) Type() string { return "level" }

func joinLevels() string {
	names := make([]string, len(Levels))
	for i, l := range Levels {
		names[i] = string(l)
	}
	return strings.Join(names, "|")
}

// slogLevel returns the minimum slog level to emit and whether anything is
// emitted at all.
func (l Level) slogLevel() (slog.Level, bool) {
	switch l {
	case Error:
		return slog.LevelError, true
	case Warning:
		return slog.LevelWarn, true
	case Debug:
		return slog.LevelDebug, true
	case Trace:
		return LevelTrace, true
	}
	return 0, false
}

// Discard returns a logger on which every call is a no-op.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// New builds a logger for level writing to sink. An empty sink or level OFF
// yields a discarding logger. "-" and "stderr" write to standard error; any
// other sink is a file path opened for append. The returned closer releases
// the sink and is never nil.
func New(level Level, sink string) (*slog.Logger, io.Closer, error) {
	threshold, on := level.slogLevel()
	if !on || sink == "" {
		return Discard(), nopCloser{}, nil
	}

	var (
		w      io.Writer
		closer io.Closer = nopCloser{}
	)
	switch sink {
	case "-", "stderr":
		w = os.Stderr
	default:
		f, err := os.OpenFile(sink, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log sink: %w", err)
		}
		w, closer = f, f
	}

	return NewWithWriter(w, threshold), closer, nil
}

// NewWithWriter builds a text logger writing records at or above threshold to w.
func NewWithWriter(w io.Writer, threshold slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       threshold,
		ReplaceAttr: renameTrace,
	}))
}

func renameTrace(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
