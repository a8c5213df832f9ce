package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dar-go/dar/dardb"
)

// newPermutationCommand moves archive src to position dst, shifting
// intervening archives, and recomputes the synthetic absent records at
// the affected boundary. Requires a full (non-partial) load: unlike
// rename, this edits the version tree.
func (a *app) newPermutationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permutation <src-num> <dst-num>",
		Short: "move archive src-num to position dst-num",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(args, 2, "permutation <src-num> <dst-num>"); err != nil {
				return err
			}
			src, err := parseArchiveNum(args[0])
			if err != nil {
				return err
			}
			dst, err := parseArchiveNum(args[1])
			if err != nil {
				return err
			}
			return a.runPermutation(src, dst)
		},
	}
	return cmd
}

func (a *app) runPermutation(src, dst dardb.ArchiveNum) error {
	ctx := context.Background()
	db, err := a.loadDB(ctx)
	if err != nil {
		return err
	}
	if err := db.SetPermutation(src, dst); err != nil {
		return err
	}
	return a.saveDB(ctx, db)
}
