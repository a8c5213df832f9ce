package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dar-go/dar/archive"
)

func (a *app) newIsolateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "isolate <basename> <new-basename>",
		Short: "write a standalone reference catalogue (no file data) from an existing archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(args, 2, "isolate <basename> <new-basename>"); err != nil {
				return err
			}
			return a.runIsolate(args[0], args[1])
		},
	}
	return cmd
}

func (a *app) runIsolate(basename, newBasename string) error {
	ctx := context.Background()
	meta, cat, err := archive.LoadMeta(ctx, archive.MetaName(basename))
	if err != nil {
		return err
	}
	isolated, err := archive.Isolate(cat)
	if err != nil {
		return err
	}
	return archive.SaveMeta(ctx, archive.MetaName(newBasename), meta, isolated)
}
