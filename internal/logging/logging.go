// Package logging builds the prefixed standard-library loggers used across
// rolodex, optionally teeing them into a rotated log file.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the log sink.
type Options struct {
	// File, when set, receives a copy of every line with size-based rotation.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Quiet drops console output; the file (if any) still receives everything.
	Quiet bool

	// Console defaults to os.Stderr.
	Console io.Writer
}

// Sink is the shared destination for all component loggers.
type Sink struct {
	w    io.Writer
	file *lumberjack.Logger
}

// Open creates a sink. It never fails: the rotating file is opened lazily on
// first write.
func Open(opts Options) *Sink {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	if opts.Quiet {
		console = io.Discard
	}

	s := &Sink{w: console}
	if opts.File != "" {
		s.file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		s.w = io.MultiWriter(console, s.file)
	}
	return s
}

// Logger returns a logger writing "[component] " prefixed lines.
func (s *Sink) Logger(component string) *log.Logger {
	return log.New(s.w, "["+component+"] ", log.LstdFlags)
}

// Writer exposes the underlying writer.
func (s *Sink) Writer() io.Writer {
	return s.w
}

// Close flushes and closes the log file, if any.
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
