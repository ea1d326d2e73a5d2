package main

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Logger reports the progress of a command.
type Logger struct {
	w          io.Writer
	stepStart  time.Time
	totalStart time.Time
}

// NewLogger returns a Logger writing to w.
func NewLogger(w io.Writer) *Logger {
	return &Logger{
		w:          w,
		totalStart: time.Now(),
	}
}

// Step starts a processing step.
// Format: [name] param ...
func (l *Logger) Step(name string, params ...interface{}) {
	l.stepStart = time.Now()
	if len(params) > 0 {
		fmt.Fprintf(l.w, "[%s] %v ... ", name, params[0])
	} else {
		fmt.Fprintf(l.w, "[%s] ", name)
	}
}

// Done ends the current step.
// Format: → result (elapsed)
func (l *Logger) Done(result string) {
	elapsed := time.Since(l.stepStart)
	if elapsed > 100*time.Millisecond {
		fmt.Fprintf(l.w, "→ %s (%.2fs)\n", result, elapsed.Seconds())
	} else {
		fmt.Fprintf(l.w, "→ %s\n", result)
	}
}

// Fail ends the current step on error.
func (l *Logger) Fail() {
	fmt.Fprintln(l.w, "→ failed")
}

// Total prints the elapsed time since the logger creation.
func (l *Logger) Total() {
	fmt.Fprintf(l.w, "✓ done in %.2fs\n", time.Since(l.totalStart).Seconds())
}

// Info prints an untimed line.
func (l *Logger) Info(format string, args ...interface{}) {
	fmt.Fprintf(l.w, "  • "+format+"\n", args...)
}

// Warn prints a warning.
func (l *Logger) Warn(format string, args ...interface{}) {
	fmt.Fprintf(l.w, "  ⚠ "+format+"\n", args...)
}

var debugEnabled = os.Getenv("RAF_DEBUG") != ""

// Debug prints a line on stderr when RAF_DEBUG is set.
func Debug(format string, args ...interface{}) {
	if debugEnabled {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
