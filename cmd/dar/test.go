package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dar-go/dar/archive"
	"github.com/dar-go/dar/derr"
)

func (a *app) newTestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <basename>",
		Short: "verify an archive's stored data against its recorded CRCs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(args, 1, "test <basename>"); err != nil {
				return err
			}
			return a.runTest(args[0])
		},
	}
	return cmd
}

func (a *app) runTest(basename string) error {
	ctx := context.Background()
	meta, cat, err := archive.LoadMeta(ctx, archive.MetaName(basename))
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

	stats, err := archive.Test(ctx, archive.TestConfig{
		Common: archive.Common{
			Options:  a.options,
			Pipeline: archive.Pipeline{Compressor: meta.Compressor, Cipher: cipher},
		},
		Catalog: cat,
		Reader:  reader,
	})
	if err != nil {
		return err
	}
	for _, w := range stats.Warnings {
		fmt.Fprintln(os.Stderr, w)
	}
	if stats.CRCErrors > 0 {
		return derr.E(derr.Data, fmt.Sprintf("dar: test: %d CRC mismatch(es)", stats.CRCErrors))
	}
	return nil
}
