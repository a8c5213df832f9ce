package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dar-go/dar/dardb"
)

// newCreateCommand writes an empty database to --database, the
// precondition every other subcommand's loadDB depends on
// (i_database's default constructor has no separate "create" step in
// the original, since the database file is just opened for append; this
// implementation's single Load/Dump round-trip per invocation makes an
// explicit initial write necessary).
func (a *app) newCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "write a new, empty database to --database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(args, 0, "create"); err != nil {
				return err
			}
			if err := a.requireDatabase(); err != nil {
				return err
			}
			return a.saveDB(context.Background(), dardb.New())
		},
	}
}
