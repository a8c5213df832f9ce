package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dar-go/dar/dardb"
)

// newListCommand lists either the database's archives (no argument) or,
// with --archive, every path that archive has a record for, marked with
// whether it holds that path's data and EA — the
// two things i_database::pretty_print can answer without a restore
// plan.
func (a *app) newListCommand() *cobra.Command {
	var archiveNum uint16
	cmd := &cobra.Command{
		Use:   "list",
		Short: "list the database's archives, or one archive's files with --archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(args, 0, "list"); err != nil {
				return err
			}
			if cmd.Flags().Changed("archive") {
				return a.runListFiles(dardb.ArchiveNum(archiveNum))
			}
			return a.runListArchives()
		},
	}
	cmd.Flags().Uint16Var(&archiveNum, "archive", 0, "list this archive's recorded files instead of the archive list")
	return cmd
}

func (a *app) runListArchives() error {
	db, err := a.loadDB(context.Background())
	if err != nil {
		return err
	}
	for i, info := range db.Archives {
		fmt.Fprintf(os.Stdout, "%4d  %-20s %s\n", i+1, info.Basename, info.Path)
	}
	return nil
}

func (a *app) runListFiles(num dardb.ArchiveNum) error {
	db, err := a.loadDB(context.Background())
	if err != nil {
		return err
	}
	return db.GetFiles(num, func(path string, flags dardb.FileFlags) error {
		fmt.Fprintf(os.Stdout, "%-6s %-6s %s\n", mark(flags.DataAvailable(), "data"), mark(flags.EAAvailable(), "ea"), path)
		return nil
	})
}

func mark(present bool, label string) string {
	if present {
		return "[" + label + "]"
	}
	return "[-]"
}
