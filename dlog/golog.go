// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package dlog

import (
	"flag"
	"fmt"
	golog "log"
	"sync/atomic"
)

var golevel = Info

var flagAdded int32

// AddFlags registers a -log flag (off, error, info, debug) on
// flag.CommandLine. Call before flag.Parse.
func AddFlags() {
	if atomic.AddInt32(&flagAdded, 1) != 1 {
		Error.Printf("dlog.AddFlags: called twice")
		return
	}
	flag.Var(new(logFlag), "log", "set log level (off, error, info, debug)")
}

// SetLevel sets the log level for the default outputter.
func SetLevel(level Level) {
	golevel = level
}

type logFlag string

func (f logFlag) String() string { return string(f) }

func (f *logFlag) Set(level string) error {
	var l Level
	switch level {
	case "off":
		l = Off
	case "error":
		l = Error
	case "info":
		l = Info
	case "debug":
		l = Debug
	default:
		return fmt.Errorf("invalid log level %q", level)
	}
	golevel = l
	return nil
}

func (logFlag) Get() interface{} { return golevel }

type gologOutputter struct{}

func (gologOutputter) Level() Level { return golevel }

func (gologOutputter) Output(calldepth int, level Level, s string) error {
	if golevel < level {
		return nil
	}
	return golog.Output(calldepth+1, s)
}

// Counters accumulates the per-component counters printed before an
// orchestration operation aborts: treated, skipped, too-old, hard-linked,
// errored, ignored, deleted, ea-treated, fsa-treated.
type Counters struct {
	Treated, Skipped, TooOld, HardLinked, Errored, Ignored, Deleted, EATreated, FSATreated int
}

// Summary renders the counters on one line.
func (c Counters) Summary() string {
	return fmt.Sprintf(
		"treated=%d skipped=%d too-old=%d hard-linked=%d errored=%d ignored=%d deleted=%d ea-treated=%d fsa-treated=%d",
		c.Treated, c.Skipped, c.TooOld, c.HardLinked, c.Errored, c.Ignored, c.Deleted, c.EATreated, c.FSATreated,
	)
}
