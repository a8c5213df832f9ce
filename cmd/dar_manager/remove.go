package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dar-go/dar/dardb"
	"github.com/dar-go/dar/derr"
)

func (a *app) newRemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <min-num> <max-num>",
		Short: "drop archives min-num..max-num (inclusive) from the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(args, 2, "remove <min-num> <max-num>"); err != nil {
				return err
			}
			min, err := parseArchiveNum(args[0])
			if err != nil {
				return err
			}
			max, err := parseArchiveNum(args[1])
			if err != nil {
				return err
			}
			return a.runRemove(min, max)
		},
	}
	return cmd
}

func parseArchiveNum(s string) (dardb.ArchiveNum, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, usageError{derr.E(derr.Range, err, "dar_manager: invalid archive number "+s)}
	}
	return dardb.ArchiveNum(n), nil
}

func (a *app) runRemove(min, max dardb.ArchiveNum) error {
	ctx := context.Background()
	db, err := a.loadDB(ctx)
	if err != nil {
		return err
	}
	if err := db.RemoveArchive(min, max); err != nil {
		return err
	}
	return a.saveDB(ctx, db)
}
