package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// newVersionCommand shows, for one path, every archive that recorded a
// data or EA version of it (i_database::show_version).
func (a *app) newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version <path>",
		Short: "show every archive holding a version of path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(args, 1, "version <path>"); err != nil {
				return err
			}
			return a.runVersion(args[0])
		},
	}
	return cmd
}

func (a *app) runVersion(path string) error {
	db, err := a.loadDB(context.Background())
	if err != nil {
		return err
	}
	entries, err := db.GetVersion(path)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.HasData {
			fmt.Fprintf(os.Stdout, "archive %d: data %s at %s\n", e.Archive, e.Data, e.DataAt)
		}
		if e.HasEA {
			fmt.Fprintf(os.Stdout, "archive %d: EA %s at %s\n", e.Archive, e.EA, e.EAAt)
		}
	}
	return nil
}
