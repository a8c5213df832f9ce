package main

import (
	"bufio"
	"context"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dar-go/dar/dardb"
	"github.com/dar-go/dar/derr"
	"github.com/dar-go/dar/file"
)

// app holds the flags every dar_manager subcommand shares: which
// database file to operate on and how much of it to load, mirroring
// dardb.LoadOptions' Partial/ReadOnly split (spec.md §4.8's "partial
// load" for metadata-only edits).
type app struct {
	database string
	partial  bool
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "dar_manager",
		Short:         "cross-archive database for dar",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	a.registerPersistentFlags(root.PersistentFlags())
	root.AddCommand(
		a.newCreateCommand(),
		a.newAddCommand(),
		a.newRemoveCommand(),
		a.newRenameCommand(),
		a.newPermutationCommand(),
		a.newListCommand(),
		a.newVersionCommand(),
		a.newCheckOrderCommand(),
		a.newRestoreCommand(),
	)
	return root
}

func (a *app) registerPersistentFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&a.database, "database", "B", "", "database file (required)")
	fs.BoolVar(&a.partial, "partial", false, "load only the archive list, for metadata-only edits (rename/permutation)")
}

func (a *app) requireDatabase() error {
	if a.database == "" {
		return usageError{derr.E(derr.Range, "dar_manager: --database is required")}
	}
	return nil
}

// loadDB reads a.database through the file package (so a database file
// can live behind any registered scheme, e.g. s3://), the same
// Open+bufio.Reader idiom archive/container.go uses for its own sidecar.
func (a *app) loadDB(ctx context.Context) (*dardb.DB, error) {
	if err := a.requireDatabase(); err != nil {
		return nil, err
	}
	f, err := file.Open(ctx, a.database)
	if err != nil {
		return nil, derr.E(derr.Hardware, err, "dar_manager: open database "+a.database)
	}
	defer f.Close(ctx)
	br := bufio.NewReader(f.Reader(ctx))
	return dardb.Load(br, dardb.LoadOptions{Partial: a.partial})
}

// saveDB writes db back to a.database. A partially-loaded database
// retains its tree section verbatim (dardb.Dump re-emits db.rawTree),
// so metadata-only commands can round-trip a database without paying to
// parse or re-encode its full tree.
func (a *app) saveDB(ctx context.Context, db *dardb.DB) error {
	f, err := file.Create(ctx, a.database)
	if err != nil {
		return derr.E(derr.Hardware, err, "dar_manager: create database "+a.database)
	}
	if err := dardb.Dump(f.Writer(ctx), db); err != nil {
		f.Discard(ctx)
		return err
	}
	if err := f.Close(ctx); err != nil {
		return derr.E(derr.Hardware, err, "dar_manager: close database "+a.database)
	}
	return nil
}

func requireArgs(args []string, n int, usage string) error {
	if len(args) != n {
		return usageError{derr.E(derr.Range, "want exactly "+strconv.Itoa(n)+" argument(s): "+usage)}
	}
	return nil
}
