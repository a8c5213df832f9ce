package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/dar-go/dar/archive"
	"github.com/dar-go/dar/derr"
)

func (a *app) newListCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list <basename>",
		Short: "list an archive's catalogue without touching its data",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(args, 1, "list <basename>"); err != nil {
				return err
			}
			f, err := parseListFormat(format)
			if err != nil {
				return err
			}
			_, cat, err := archive.LoadMeta(context.Background(), archive.MetaName(args[0]))
			if err != nil {
				return err
			}
			return archive.List(cat, os.Stdout, f)
		},
	}
	cmd.Flags().StringVar(&format, "format", "tar", "output format: tar, tree, xml, or slices")
	return cmd
}

func parseListFormat(s string) (archive.ListFormat, error) {
	switch s {
	case "tar":
		return archive.ListTarStyle, nil
	case "tree":
		return archive.ListTree, nil
	case "xml":
		return archive.ListXML, nil
	case "slices":
		return archive.ListSlicingLocation, nil
	default:
		return 0, usageError{derr.E(derr.Range, "unknown --format "+s)}
	}
}
