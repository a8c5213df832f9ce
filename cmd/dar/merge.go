package main

import (
	"bytes"
	"context"

	"github.com/spf13/cobra"

	"github.com/dar-go/dar/archive"
	"github.com/dar-go/dar/derr"
	"github.com/dar-go/dar/policy"
	"github.com/dar-go/dar/sar"
)

// checkMergeablePipelines enforces the pipeline equality runMerge's data
// path depends on: archive.Merge decodes both sides through one shared
// Pipeline, so mismatched compressors or ciphers would silently corrupt
// or strand one side's data in the merged archive.
func checkMergeablePipelines(base, overlay archive.Meta) error {
	if base.Compressor != overlay.Compressor {
		return usageError{derr.E(derr.Feature, "dar: merge: input archives use different compressors ("+string(base.Compressor)+" vs "+string(overlay.Compressor)+")")}
	}
	if base.CipherRegistry != overlay.CipherRegistry || !bytes.Equal(base.CipherID, overlay.CipherID) {
		return usageError{derr.E(derr.Feature, "dar: merge: input archives use different encryption keys")}
	}
	return nil
}

func (a *app) newMergeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <base-basename> <overlay-basename> <new-basename>",
		Short: "union two archives into a new one, overlay winning by default",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(args, 3, "merge <base-basename> <overlay-basename> <new-basename>"); err != nil {
				return err
			}
			if err := a.validate(); err != nil {
				return err
			}
			return a.runMerge(args[0], args[1], args[2])
		},
	}
	return cmd
}

// runMerge reads both input archives' catalogues and data, and re-writes
// the winning side's data through the merge's own codec/cipher pipeline
// (archive.Merge's writeStored). archive.Merge's writeStored decodes
// both base's and overlay's stored bytes through the single cfg.Pipeline
// it is given (there is no per-side pipeline), and under --keep-compressed
// skips decoding entirely and copies stored bytes verbatim — so base and
// overlay must already share the same compressor and cipher, or the
// copied-through bytes would silently be unreadable under the merged
// archive's one recorded Meta. This implementation enforces that equality
// rather than attempting to reconcile mismatched pipelines.
func (a *app) runMerge(baseBasename, overlayBasename, newBasename string) error {
	ctx := context.Background()
	baseMeta, base, err := archive.LoadMeta(ctx, archive.MetaName(baseBasename))
	if err != nil {
		return err
	}
	overlayMeta, overlay, err := archive.LoadMeta(ctx, archive.MetaName(overlayBasename))
	if err != nil {
		return err
	}
	if err := checkMergeablePipelines(baseMeta, overlayMeta); err != nil {
		return err
	}
	pol, err := policyByName(a.policyName, policy.OverwriteAll)
	if err != nil {
		return err
	}
	codec := baseMeta.Compressor
	if a.compression != "" {
		codec, err = a.codec()
		if err != nil {
			return err
		}
		if codec != baseMeta.Compressor {
			return usageError{derr.E(derr.Feature, "dar: merge: --compression must match the input archives' own compressor ("+string(baseMeta.Compressor)+")")}
		}
	}

	baseReader, err := sarReader(a, baseBasename)
	if err != nil {
		return err
	}
	defer baseReader.Close()
	overlayReader, err := sarReader(a, overlayBasename)
	if err != nil {
		return err
	}
	defer overlayReader.Close()

	first, rest := a.sliceSizes()
	writer, err := sar.NewWriter(sar.WriterConfig{
		Store:     a.store(newBasename),
		Basename:  newBasename,
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

	var cipher archive.Cipher
	meta := archive.Meta{Compressor: codec, CipherRegistry: baseMeta.CipherRegistry, CipherID: baseMeta.CipherID}
	if baseMeta.CipherRegistry != "" {
		cipher = archive.NewCipher(baseMeta.CipherRegistry, baseMeta.CipherID)
	}

	merged, _, mergeErr := archive.Merge(ctx, archive.MergeConfig{
		Common: archive.Common{
			Options:    a.options,
			Interactor: a.interactor(),
			Pipeline:   archive.Pipeline{Compressor: codec, Cipher: cipher},
		},
		Base:          base,
		Overlay:       overlay,
		BaseReader:    baseReader,
		OverlayReader: overlayReader,
		Policy:        pol,
		Writer:        writer,
	})
	if closeErr := writer.Close(); mergeErr == nil {
		mergeErr = closeErr
	}
	if mergeErr != nil {
		return mergeErr
	}
	return archive.SaveMeta(ctx, archive.MetaName(newBasename), meta, merged)
}
