package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dar-go/dar/dardb"
)

// newRenameCommand changes an archive's recorded basename, and
// optionally its recorded path, without renumbering or touching the
// tree — a pure header edit, so it runs fine against a --partial load.
func (a *app) newRenameCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "rename <num> <new-basename>",
		Short: "change archive num's recorded basename (and, with --path, its location)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(args, 2, "rename <num> <new-basename>"); err != nil {
				return err
			}
			num, err := parseArchiveNum(args[0])
			if err != nil {
				return err
			}
			return a.runRename(num, args[1], path)
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "also update the archive's recorded path")
	return cmd
}

func (a *app) runRename(num dardb.ArchiveNum, basename, path string) error {
	ctx := context.Background()
	db, err := a.loadDB(ctx)
	if err != nil {
		return err
	}
	if err := db.RenameArchive(num, basename); err != nil {
		return err
	}
	if path != "" {
		if err := db.SetPath(num, path); err != nil {
			return err
		}
	}
	return a.saveDB(ctx, db)
}
