package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dar-go/dar/archive"
)

// newCompareCommand exposes archive.Compare, the
// catalogue-vs-catalogue diff, as a standalone command: useful on its
// own for deciding whether two archives' trees diverged at all, without
// needing to run a merge to find out.
func (a *app) newCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <base-basename> <overlay-basename>",
		Short: "compare two archives' catalogues against each other",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(args, 2, "compare <base-basename> <overlay-basename>"); err != nil {
				return err
			}
			return a.runCompare(args[0], args[1])
		},
	}
	return cmd
}

func (a *app) runCompare(baseBasename, overlayBasename string) error {
	ctx := context.Background()
	_, base, err := archive.LoadMeta(ctx, archive.MetaName(baseBasename))
	if err != nil {
		return err
	}
	_, overlay, err := archive.LoadMeta(ctx, archive.MetaName(overlayBasename))
	if err != nil {
		return err
	}
	for _, e := range archive.Compare(base, overlay) {
		fmt.Fprintf(os.Stdout, "%-14s %s\n", e.Kind.String(), e.Path)
	}
	return nil
}
