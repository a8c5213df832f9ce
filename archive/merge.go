package archive

import (
	"bufio"
	"context"

	"github.com/dar-go/dar/bigint"
	"github.com/dar-go/dar/catalog"
	"github.com/dar-go/dar/policy"
	"github.com/dar-go/dar/sar"
)

// MergeConfig configures the merge pipeline: two catalogues unioned by
// policy, written through a fresh pipeline into a new archive (spec.md
// §4.7's merge operation).
type MergeConfig struct {
	Common
	Base, Overlay             *catalog.Catalog
	BaseReader, OverlayReader *sar.Reader
	Policy                    policy.Policy
	Writer                    *sar.Writer
}

// Merge unions cfg.Base and cfg.Overlay into a new Catalog, writing the
// winning side's data to cfg.Writer, and returns the merged catalogue.
func Merge(ctx context.Context, cfg MergeConfig) (*catalog.Catalog, Stats, error) {
	if cfg.Policy == nil {
		cfg.Policy = policy.OverwriteAll
	}
	m := &merger{cfg: cfg}
	if cfg.BaseReader != nil {
		m.baseBR = bufio.NewReader(cfg.BaseReader)
	}
	if cfg.OverlayReader != nil {
		m.overlayBR = bufio.NewReader(cfg.OverlayReader)
	}
	out := catalog.New()
	if err := m.dir(cfg.Base.Root, cfg.Overlay.Root, out.Root); err != nil {
		return nil, m.stats, err
	}
	return out, m.stats, nil
}

type merger struct {
	cfg       MergeConfig
	baseBR    *bufio.Reader
	overlayBR *bufio.Reader
	stats     Stats
}

// dir unions base's and overlay's children by name, recursing into
// directories present on either side: base's entries first, in base's
// order, then overlay-only entries, so both input streams are read in a
// stable, repeatable order regardless of which side "wins" a path.
func (m *merger) dir(base, overlay, out *catalog.Entry) error {
	overlayByName := map[string]*catalog.Entry{}
	if overlay != nil {
		for _, c := range overlay.Children {
			overlayByName[c.Name] = c
		}
	}
	seen := map[string]bool{}

	if base != nil {
		for _, bc := range base.Children {
			seen[bc.Name] = true
			if err := m.entry(bc, overlayByName[bc.Name], out); err != nil {
				return err
			}
		}
	}
	if overlay != nil {
		for _, oc := range overlay.Children {
			if seen[oc.Name] {
				continue
			}
			if err := m.entry(nil, oc, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// entry handles one unioned path: present on only one side is copied
// straight through; present on both goes through the overwriting policy.
func (m *merger) entry(base, overlay *catalog.Entry, parent *catalog.Entry) error {
	switch {
	case base == nil:
		return m.take(overlay, m.overlayBR, false, parent)
	case overlay == nil:
		return m.take(base, m.baseBR, true, parent)
	default:
		return m.resolve(base, overlay, parent)
	}
}

// take copies one side's subtree through verbatim, reading and
// re-framing any file data via br so the merged archive's data section
// stays self-contained.
func (m *merger) take(e *catalog.Entry, br *bufio.Reader, isBase bool, parent *catalog.Entry) error {
	child := cloneShallow(e)
	if err := parent.AddChild(child); err != nil {
		return err
	}
	if e.Kind == catalog.KindDirectory {
		if isBase {
			return m.dir(e, nil, child)
		}
		return m.dir(nil, e, child)
	}
	if e.Kind == catalog.KindFile && e.SavedState == catalog.Saved {
		return m.carryData(e, child, br)
	}
	return nil
}

// resolve decides, via the overwriting policy, which side's data wins
// when both base and overlay have an entry at this path, reading each
// side's framed data (even the loser's) so both streams stay aligned for
// subsequent entries.
func (m *merger) resolve(base, overlay *catalog.Entry, parent *catalog.Entry) error {
	dataVerdict, _ := m.cfg.Policy.Evaluate(base, overlay)
	takeOverlay := dataVerdict == policy.DataMergeOverwrite || dataVerdict == policy.DataOverwrite || dataVerdict == policy.DataOverwriteMarkAbsent

	var baseStored, overlayStored []byte
	var err error
	if base.Kind == catalog.KindFile && base.SavedState == catalog.Saved {
		baseStored, err = readFramed(m.baseBR)
		if err != nil {
			return err
		}
	}
	if overlay.Kind == catalog.KindFile && overlay.SavedState == catalog.Saved {
		overlayStored, err = readFramed(m.overlayBR)
		if err != nil {
			return err
		}
	}

	if base.Kind == catalog.KindDirectory || overlay.Kind == catalog.KindDirectory {
		winner := base
		if takeOverlay {
			winner = overlay
		}
		child := cloneShallow(winner)
		if err := parent.AddChild(child); err != nil {
			return err
		}
		return m.dir(base, overlay, child)
	}

	winner, stored := base, baseStored
	if takeOverlay {
		winner, stored = overlay, overlayStored
	}
	child := cloneShallow(winner)
	if err := parent.AddChild(child); err != nil {
		return err
	}
	if winner.Kind == catalog.KindFile && winner.SavedState == catalog.Saved {
		return m.writeStored(winner, child, stored)
	}
	return nil
}

// carryData reads e's framed data from br and writes it (or its
// re-encoded equivalent) into the merged archive.
func (m *merger) carryData(e, child *catalog.Entry, br *bufio.Reader) error {
	stored, err := readFramed(br)
	if err != nil {
		return err
	}
	return m.writeStored(e, child, stored)
}

// writeStored places one winning file's data into the merged archive's
// data section: verbatim under KeepCompressed, otherwise decoded and
// re-encoded through the merge's own Pipeline (so sparse holes are
// recomputed and compression follows the merge's dconfig.Options).
func (m *merger) writeStored(src, child *catalog.Entry, stored []byte) error {
	out := stored
	if !m.cfg.Options.KeepCompressed {
		compressed := src.Compression == catalog.CompressionUsed
		dense, err := m.cfg.Pipeline.Decode(stored, compressed)
		if err != nil {
			return err
		}
		data := reinflateHoles(dense, src.Holes, int64(src.Size.Uint64()))
		holes := findHoles(data, m.cfg.Options.SparseMinSize)
		child.Holes = holes
		dense = elideHoles(data, holes)
		compress := m.cfg.Options.ShouldCompress(int64(len(data)), child.Name)
		var compressedOut bool
		out, compressedOut, err = m.cfg.Pipeline.Encode(dense, compress)
		if err != nil {
			return err
		}
		if compressedOut {
			child.Compression = catalog.CompressionUsed
		} else {
			child.Compression = catalog.CompressionNone
		}
	}
	child.Offset = bigint.FromInt64(m.cfg.Writer.LogicalSize())
	if err := writeFramed(m.cfg.Writer, out); err != nil {
		return err
	}
	m.stats.BytesStored += int64(len(out))
	m.stats.EntriesWritten++
	return nil
}

func cloneShallow(e *catalog.Entry) *catalog.Entry {
	c := *e
	c.Children = nil
	return &c
}
