// Package logging provides prefixed stdlib loggers shared by all packages.
// In stdio transport mode output must go to stderr so it never corrupts
// the protocol stream on stdout.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// output is the single destination every logger writes through. Loggers
// are created at package init, before main can redirect output, so they
// must not capture the destination at creation time.
type switchableWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchableWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

var output = &switchableWriter{w: os.Stdout}

var std = log.New(output, "", log.LstdFlags|log.Lmsgprefix)

// SetOutput redirects every logger created here, including those created
// before the call.
func SetOutput(w io.Writer) {
	output.mu.Lock()
	defer output.mu.Unlock()
	output.w = w
}

// New creates a prefixed logger for one package or concern.
func New(prefix string) *log.Logger {
	return log.New(output, fmt.Sprintf("[%s] ", prefix), std.Flags())
}

// Package-level functions for unprefixed logging.

func Info(msg string, args ...any) {
	std.Output(2, fmt.Sprintf(msg, args...))
}

func Warn(msg string, args ...any) {
	std.Output(2, fmt.Sprintf("WARN: "+msg, args...))
}

func Error(msg string, args ...any) {
	std.Output(2, fmt.Sprintf("ERROR: "+msg, args...))
}

func Fatal(msg string, args ...any) {
	std.Output(2, fmt.Sprintf("FATAL: "+msg, args...))
	os.Exit(1)
}
