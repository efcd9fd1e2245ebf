// Package logging provides the leveled logger the engine reports through.
package logging

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Level orders log severities. A logger drops messages below its level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelSilent:
		return "silent"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel parses a level name as printed by Level.String.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "silent", "none":
		return LevelSilent, nil
	}
	return LevelError, fmt.Errorf("unknown log level %q", s)
}

// Logger receives engine diagnostics.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// NoopLogger is a no-op logger
type NoopLogger struct{}

func (NoopLogger) Debug(format string, args ...interface{}) {}
func (NoopLogger) Info(format string, args ...interface{})  {}
func (NoopLogger) Warn(format string, args ...interface{})  {}
func (NoopLogger) Error(format string, args ...interface{}) {}

// ConsoleLogger writes one line per message, prefixed with a colored level
// name. Colors follow color.NoColor.
type ConsoleLogger struct {
	mu     sync.Mutex
	out    io.Writer
	level  Level
	styles map[Level]*color.Color
}

// NewConsoleLogger creates a logger writing messages at or above level to out.
func NewConsoleLogger(out io.Writer, level Level) *ConsoleLogger {
	return &ConsoleLogger{
		out:   out,
		level: level,
		styles: map[Level]*color.Color{
			LevelDebug: color.New(color.FgHiBlack),
			LevelInfo:  color.New(color.FgHiBlue),
			LevelWarn:  color.New(color.Bold, color.FgYellow),
			LevelError: color.New(color.Bold, color.FgRed),
		},
	}
}

// Level returns the minimum level written.
func (c *ConsoleLogger) Level() Level {
	return c.level
}

func (c *ConsoleLogger) Debug(format string, args ...interface{}) { c.log(LevelDebug, format, args) }
func (c *ConsoleLogger) Info(format string, args ...interface{})  { c.log(LevelInfo, format, args) }
func (c *ConsoleLogger) Warn(format string, args ...interface{})  { c.log(LevelWarn, format, args) }
func (c *ConsoleLogger) Error(format string, args ...interface{}) { c.log(LevelError, format, args) }

func (c *ConsoleLogger) log(l Level, format string, args []interface{}) {
	if l < c.level {
		return
	}
	msg := fmt.Sprintf(format, args...)

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s: %s\n", c.styles[l].Sprint(l.String()), msg)
}

// Entry is one message captured by a Recorder.
type Entry struct {
	Level   Level
	Message string
	// Err is the first error among the message arguments, if any.
	Err     error
}

// Recorder keeps messages in memory. The compile server uses it to hand
// parse failures back to its client.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Debug(format string, args ...interface{}) { r.record(LevelDebug, format, args) }
func (r *Recorder) Info(format string, args ...interface{})  { r.record(LevelInfo, format, args) }
func (r *Recorder) Warn(format string, args ...interface{})  { r.record(LevelWarn, format, args) }
func (r *Recorder) Error(format string, args ...interface{}) { r.record(LevelError, format, args) }

func (r *Recorder) record(l Level, format string, args []interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := Entry{Level: l, Message: fmt.Sprintf(format, args...)}
	for _, arg := range args {
		if err, ok := arg.(error); ok {
			e.Err = err
			break
		}
	}
	r.entries = append(r.entries, e)
}

// Drain returns the recorded entries and forgets them.
func (r *Recorder) Drain() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.entries
	r.entries = nil
	return out
}

// Errors returns the messages of the recorded error entries.
func (r *Recorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		if e.Level == LevelError {
			out = append(out, e.Message)
		}
	}
	return out
}

// Err joins the recorded error entries, keeping the logged error values so
// callers can inspect them with errors.As. It returns nil when no error was
// recorded.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, e := range r.entries {
		if e.Level != LevelError {
			continue
		}
		if e.Err != nil {
			errs = append(errs, e.Err)
		} else {
			errs = append(errs, errors.New(e.Message))
		}
	}
	return errors.Join(errs...)
}
