// Command dar implements the disk-archive backup/restore engine: its
// create, extract, list, test, diff, isolate, merge and compare
// subcommands wire the archive, sar, catalog, dconfig and policy
// packages together. Modeled on the teacher's cmd/grail-role-group and
// cmd/grail-access main()s (parse, run, map result to an exit status),
// generalized from their v.io/x/lib/cmdline framework onto
// github.com/spf13/cobra, since cmdline's runtime depends on the
// internal Vanadium module tree this workspace does not carry (see
// DESIGN.md).
package main

import (
	"fmt"
	"os"

	_ "github.com/dar-go/dar/crypto/encryption/passwd"
	"github.com/dar-go/dar/derr"
	"github.com/dar-go/dar/file/s3file"
)

func main() {
	s3file.Register()
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dar:", err)
		os.Exit(exitCode(err))
	}
}

// usageError marks an argument-count or flag-value mistake cobra itself
// detects, mapped to spec.md §6's exit code 1 ("syntax") rather than the
// generic code 2 every other error gets.
type usageError struct{ error }

// exitCode maps an error to the process exit status spec.md §6 names.
// derr's Kind taxonomy (derr/errors.go) was built to carry exactly this
// classification end to end from any archive/dardb operation.
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
