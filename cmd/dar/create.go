package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dar-go/dar/archive"
	"github.com/dar-go/dar/crypto/encryption"
	"github.com/dar-go/dar/dconfig"
	"github.com/dar-go/dar/derr"
	"github.com/dar-go/dar/dpath"
	"github.com/dar-go/dar/fswalk"
	"github.com/dar-go/dar/retry"
	"github.com/dar-go/dar/sar"
)

func (a *app) newCreateCommand() *cobra.Command {
	var oneFileSystem bool
	var retryOnChange bool
	cmd := &cobra.Command{
		Use:   "create <basename> <root>",
		Short: "walk root and write a new archive at basename",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(args, 2, "create <basename> <root>"); err != nil {
				return err
			}
			if err := a.validate(); err != nil {
				return err
			}
			return a.runCreate(args[0], args[1], oneFileSystem, retryOnChange)
		},
	}
	cmd.Flags().BoolVar(&oneFileSystem, "one-file-system", false, "do not cross filesystem (mount point) boundaries")
	cmd.Flags().BoolVar(&retryOnChange, "retry-on-change", false, "retry reading a file that changed mid-read, up to --retry-count times")
	return cmd
}

// runCreate builds pipeline and writer, generating an encryption key
// through crypto/encryption's registered (and, for "passwd-aes",
// terminal-prompting) GenerateKey when --key-registry is set, then
// drives archive.Create and writes the resulting catalogue and pipeline
// metadata to the sidecar (archive/container.go) once the data section
// is complete.
func (a *app) runCreate(basename, root string, oneFileSystem, retryOnChange bool) error {
	ctx := context.Background()
	codec, err := a.codec()
	if err != nil {
		return err
	}

	var cipher archive.Cipher
	var meta archive.Meta
	meta.Compressor = codec
	if a.keyRegistry != "" {
		reg, err := encryption.Lookup(a.keyRegistry)
		if err != nil {
			return derr.E(derr.Feature, err, "dar: create: no such key registry "+a.keyRegistry)
		}
		id, err := reg.GenerateKey()
		if err != nil {
			return derr.E(derr.UserAbort, err, "dar: create: generate encryption key")
		}
		cipher = archive.NewCipher(a.keyRegistry, id)
		meta.CipherRegistry = a.keyRegistry
		meta.CipherID = id
	}

	first, rest := a.sliceSizes()
	var retryPolicy retry.Policy
	if retryOnChange && a.options.RetryCount > 0 {
		retryPolicy = retry.MaxRetries(retry.Backoff(0, 0, 1), a.options.RetryCount)
	}

	writer, err := sar.NewWriter(sar.WriterConfig{
		Store:     a.store(basename),
		Basename:  basename,
		Ext:       a.ext,
		FirstSize: first,
		RestSize:  rest,
		Label:     sar.NewLabel(),
		MinDigits: a.minDigits,
		HashAlgo:  a.hashAlgo,
	})
	if err != nil {
		return err
	}

	cat, stats, createErr := archive.Create(ctx, archive.CreateConfig{
		Common: archive.Common{
			Options:  a.options,
			Pipeline: archive.Pipeline{Compressor: codec, Cipher: cipher},
		},
		Root:          dpath.New(root),
		WalkOptions:   fswalk.Options{OneFileSystem: oneFileSystem},
		Writer:        writer,
		RetryOnChange: retryPolicy,
	})
	if closeErr := writer.Close(); createErr == nil {
		createErr = closeErr
	}
	if createErr != nil {
		return createErr
	}

	if err := archive.SaveMeta(ctx, archive.MetaName(basename), meta, cat); err != nil {
		return err
	}
	for _, w := range stats.Warnings {
		fmt.Fprintln(os.Stderr, w)
	}
	if stats.DirtyFiles > 0 && a.options.DirtyBehaviour == dconfig.DirtyWarn {
		return derr.E(derr.Data, "dar: create: files changed during save")
	}
	return nil
}
