// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package dlog provides simple level logging, used throughout dar for the
// one-line classification and per-component counters an orchestration
// operation prints before it aborts. Log output is implemented by an
// Outputter, which by default outputs to Go's standard log package.
package dlog

import (
	"fmt"
	"os"
)

// An Outputter provides a destination for leveled log output.
type Outputter interface {
	// Level returns the level at which the outputter is accepting messages.
	Level() Level
	// Output writes s to the outputter at the given call depth and level.
	// The message is dropped if the outputter isn't logging at that level.
	Output(calldepth int, level Level, s string) error
}

var out Outputter = gologOutputter{}

// SetOutputter installs a new outputter, returning the old one. Must not be
// called concurrently with logging.
func SetOutputter(newOut Outputter) Outputter {
	old := out
	out = newOut
	return old
}

// GetOutputter returns the current outputter.
func GetOutputter() Outputter {
	return out
}

// At returns whether the logger is currently logging at the provided level.
func At(level Level) bool {
	return level <= out.Level()
}

// A Level is a log verbosity level. Increasing levels decrease in priority
// and increase in verbosity.
type Level int

const (
	// Off never outputs messages.
	Off = Level(-3)
	// Error outputs error messages.
	Error = Level(-2)
	// Info outputs informational messages.
	Info = Level(0)
	// Debug outputs development/debugging messages.
	Debug = Level(1)
)

// String returns the string representation of the level l.
func (l Level) String() string {
	switch l {
	case Off:
		return "off"
	case Error:
		return "error"
	case Info:
		return "info"
	case Debug:
		return "debug"
	default:
		if l < 0 {
			panic("invalid log level")
		}
		return fmt.Sprintf("debug%d", l)
	}
}

// Print formats a message like fmt.Sprint and outputs it at level l.
func (l Level) Print(v ...interface{}) {
	if At(l) {
		out.Output(2, l, fmt.Sprint(v...))
	}
}

// Printf formats a message like fmt.Sprintf and outputs it at level l.
func (l Level) Printf(format string, v ...interface{}) {
	if At(l) {
		out.Output(2, l, fmt.Sprintf(format, v...))
	}
}

// Print formats a message like fmt.Sprint at the Info level.
func Print(v ...interface{}) {
	if At(Info) {
		out.Output(2, Info, fmt.Sprint(v...))
	}
}

// Printf formats a message like fmt.Sprintf at the Info level.
func Printf(format string, v ...interface{}) {
	if At(Info) {
		out.Output(2, Info, fmt.Sprintf(format, v...))
	}
}

// Fatal outputs a message at the Error level and calls os.Exit(1).
func Fatal(v ...interface{}) {
	out.Output(2, Error, fmt.Sprint(v...))
	os.Exit(1)
}

// Fatalf outputs a formatted message at the Error level and calls os.Exit(1).
func Fatalf(format string, v ...interface{}) {
	out.Output(2, Error, fmt.Sprintf(format, v...))
	os.Exit(1)
}
