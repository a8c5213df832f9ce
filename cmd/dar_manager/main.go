// Command dar_manager implements the cross-archive database (dardb):
// add, remove, rename and reorder archives in a database's coordinate
// list, query which archive holds a path's data or EA, and plan (and
// drive) a multi-archive restore by invoking the sibling dar binary once
// per archive a restore touches. Modeled the same way cmd/dar's main.go
// is: cobra in place of the teacher's v.io/x/lib/cmdline, parse/run/map
// to an exit status.
package main

import (
	"fmt"
	"os"

	"github.com/dar-go/dar/derr"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dar_manager:", err)
		os.Exit(exitCode(err))
	}
}

type usageError struct{ error }

func exitCode(err error) int {
	if _, ok := err.(usageError); ok {
		return 1
	}
	e := derr.Recover(err)
	switch e.Kind {
	case derr.Bug:
		return 3
	case derr.UserAbort:
		return 4
	case derr.Data:
		return 5
	case derr.Script:
		return 6
	case derr.LibraryCall:
		return 7
	case derr.LimitOverflow:
		return 8
	case derr.Feature:
		return 10
	default:
		return 2
	}
}
