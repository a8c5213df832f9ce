package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dar-go/dar/archive"
)

func (a *app) newDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <basename> <root>",
		Short: "compare an archive's catalogue against a live filesystem tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(args, 2, "diff <basename> <root>"); err != nil {
				return err
			}
			if err := a.validate(); err != nil {
				return err
			}
			return a.runDiff(args[0], args[1])
		},
	}
	return cmd
}

func (a *app) runDiff(basename, root string) error {
	_, cat, err := archive.LoadMeta(context.Background(), archive.MetaName(basename))
	if err != nil {
		return err
	}
	entries, err := archive.Diff(archive.DiffConfig{Catalog: cat, Root: root, Fields: a.options.ComparisonFields})
	if err != nil {
		return err
	}
	selected := a.selectFunc()
	for _, e := range entries {
		if selected != nil && !selected(e.Path) {
			continue
		}
		fmt.Fprintf(os.Stdout, "%-14s %s\n", e.Kind.String(), e.Path)
	}
	return nil
}
