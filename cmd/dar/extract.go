package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dar-go/dar/archive"
	"github.com/dar-go/dar/policy"
)

func (a *app) newExtractCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "extract <basename> <target-root>",
		Aliases: []string{"restore"},
		Short:   "restore an archive's contents onto target-root",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(args, 2, "extract <basename> <target-root>"); err != nil {
				return err
			}
			if err := a.validate(); err != nil {
				return err
			}
			return a.runExtract(args[0], args[1])
		},
	}
	return cmd
}

func (a *app) runExtract(basename, targetRoot string) error {
	ctx := context.Background()
	meta, cat, err := archive.LoadMeta(ctx, archive.MetaName(basename))
	if err != nil {
		return err
	}
	pol, err := policyByName(a.policyName, policy.PreserveAll)
	if err != nil {
		return err
	}

	reader, err := sarReader(a, basename)
	if err != nil {
		return err
	}
	defer reader.Close()

	var cipher archive.Cipher
	if meta.CipherRegistry != "" {
		cipher = archive.NewCipher(meta.CipherRegistry, meta.CipherID)
	}

	_, err = archive.Restore(ctx, archive.RestoreConfig{
		Common: archive.Common{
			Options:    a.options,
			Interactor: a.interactor(),
			Pipeline:   archive.Pipeline{Compressor: meta.Compressor, Cipher: cipher},
		},
		Catalog:    cat,
		Reader:     reader,
		Policy:     pol,
		TargetRoot: targetRoot,
		Select:     a.selectFunc(),
	})
	return err
}
