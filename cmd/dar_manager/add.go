package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dar-go/dar/archive"
)

// newAddCommand folds one archive's catalogue into the database as the
// next archive number. It reads the catalogue from the same sidecar
// cmd/dar's create writes (archive.LoadMeta), so dar_manager never needs
// to know an archive's compression or encryption settings.
func (a *app) newAddCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "add <archive-basename>",
		Short: "add an archive's catalogue to the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(args, 1, "add <archive-basename>"); err != nil {
				return err
			}
			return a.runAdd(args[0], path)
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "recorded location of the archive (defaults to the basename)")
	return cmd
}

func (a *app) runAdd(basename, path string) error {
	if path == "" {
		path = basename
	}
	ctx := context.Background()
	db, err := a.loadDB(ctx)
	if err != nil {
		return err
	}
	_, cat, err := archive.LoadMeta(ctx, archive.MetaName(basename))
	if err != nil {
		return err
	}
	if _, err := db.AddArchive(cat, path, basename); err != nil {
		return err
	}
	return a.saveDB(ctx, db)
}
