// Package logging provides the levelled diagnostic logger used across tsmap.
//
// Diagnostics go to stderr so that reports on stdout stay machine readable.
// Debug lines only appear in verbose mode; quiet mode drops everything
// below ERROR.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Level is the severity of a log line.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) color() *color.Color {
	switch l {
	case DEBUG:
		return color.New(color.FgHiBlack)
	case INFO:
		return color.New(color.FgBlue)
	case WARN:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

// Logger writes levelled, colored lines to a writer.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
	quiet   bool
}

// New creates a logger writing to out.
func New(out io.Writer) *Logger {
	return &Logger{out: out}
}

var std = New(os.Stderr)

// Default returns the process-wide logger.
func Default() *Logger { return std }

// SetOutput redirects the logger.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

// SetVerbose enables DEBUG lines.
func (l *Logger) SetVerbose(verbose bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = verbose
}

// SetQuiet suppresses everything below ERROR.
func (l *Logger) SetQuiet(quiet bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quiet = quiet
}

// Enabled reports whether a line at level would be written.
func (l *Logger) Enabled(level Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled(level)
}

func (l *Logger) enabled(level Level) bool {
	if level == DEBUG && !l.verbose {
		return false
	}
	if l.quiet && level < ERROR {
		return false
	}
	return true
}

func (l *Logger) log(level Level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled(level) {
		return
	}
	tag := level.color().Sprintf("%-5s", level.String())
	fmt.Fprintf(l.out, "%s %s\n", tag, fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...any) { l.log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...any) { l.log(ERROR, format, args...) }

// Package-level helpers write through the default logger.

func SetVerbose(verbose bool) { std.SetVerbose(verbose) }
func SetQuiet(quiet bool)     { std.SetQuiet(quiet) }
func SetOutput(w io.Writer)   { std.SetOutput(w) }

func Debug(format string, args ...any) { std.Debug(format, args...) }
func Info(format string, args ...any)  { std.Info(format, args...) }
func Warn(format string, args ...any)  { std.Warn(format, args...) }
func Error(format string, args ...any) { std.Error(format, args...) }
