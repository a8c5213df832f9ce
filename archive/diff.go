package archive

import (
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/dar-go/dar/catalog"
	"github.com/dar-go/dar/dconfig"
)

// DiffKind classifies one path's catalogue-vs-filesystem relationship.
type DiffKind int

const (
	DiffUnchanged DiffKind = iota
	DiffModified
	DiffAddedOnDisk
	DiffRemovedOnDisk
	DiffTypeChanged
)

func (k DiffKind) String() string {
	switch k {
	case DiffModified:
		return "modified"
	case DiffAddedOnDisk:
		return "added"
	case DiffRemovedOnDisk:
		return "removed"
	case DiffTypeChanged:
		return "type-changed"
	default:
		return "unchanged"
	}
}

// DiffEntry reports one path's diff verdict.
type DiffEntry struct {
	Path string
	Kind DiffKind
}

// DiffConfig configures the diff operation: catalogue against a live
// filesystem tree, comparing the fields dconfig.Options.ComparisonFields
// names (spec.md §4.7).
type DiffConfig struct {
	Catalog *catalog.Catalog
	Root    string
	Fields  dconfig.ComparisonFields
}

// Diff compares cfg.Catalog against the live tree rooted at cfg.Root.
func Diff(cfg DiffConfig) ([]DiffEntry, error) {
	d := &differ{cfg: cfg}
	var out []DiffEntry
	if err := d.dir(cfg.Catalog.Root, cfg.Root, "", &out); err != nil {
		return nil, err
	}
	if err := d.findAdded(cfg.Catalog.Root, cfg.Root, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

type differ struct {
	cfg DiffConfig
}

func (d *differ) dir(e *catalog.Entry, fsPath, archPath string, out *[]DiffEntry) error {
	for _, c := range e.Children {
		childFS := filepath.Join(fsPath, c.Name)
		childArch := joinArch(archPath, c.Name)
		info, err := os.Lstat(childFS)
		if os.IsNotExist(err) {
			if c.Kind != catalog.KindTombstone {
				*out = append(*out, DiffEntry{Path: childArch, Kind: DiffRemovedOnDisk})
			}
			continue
		}
		if err != nil {
			return err
		}
		kind := d.diffOne(c, info)
		if kind != DiffUnchanged {
			*out = append(*out, DiffEntry{Path: childArch, Kind: kind})
		}
		if c.Kind == catalog.KindDirectory && info.IsDir() {
			if err := d.dir(c, childFS, childArch, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *differ) diffOne(e *catalog.Entry, info os.FileInfo) DiffKind {
	wantDir := e.Kind == catalog.KindDirectory
	wantSymlink := e.Kind == catalog.KindSymlink
	isDir := info.IsDir()
	isSymlink := info.Mode()&os.ModeSymlink != 0
	if wantDir != isDir || wantSymlink != isSymlink {
		return DiffTypeChanged
	}
	if e.Kind != catalog.KindFile {
		return DiffUnchanged
	}
	return d.diffFile(e, info)
}

// diffFile compares a file entry against its live stat, honoring
// ComparisonFields: CompareInodeType stops at the type check above,
// every other setting compares size and mtime, and only CompareAll
// additionally compares owner/group.
func (d *differ) diffFile(e *catalog.Entry, info os.FileInfo) DiffKind {
	if d.cfg.Fields == dconfig.CompareInodeType {
		return DiffUnchanged
	}
	if int64(e.Size.Uint64()) != info.Size() {
		return DiffModified
	}
	if !e.Mtime.Time().Equal(info.ModTime()) {
		return DiffModified
	}
	if d.cfg.Fields == dconfig.CompareAll {
		if st, ok := info.Sys().(*syscall.Stat_t); ok {
			owner := strconv.FormatUint(uint64(st.Uid), 10)
			group := strconv.FormatUint(uint64(st.Gid), 10)
			if owner != e.Owner || group != e.Group {
				return DiffModified
			}
		}
	}
	return DiffUnchanged
}

func (d *differ) findAdded(e *catalog.Entry, fsPath, archPath string, out *[]DiffEntry) error {
	entries, err := os.ReadDir(fsPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	known := map[string]bool{}
	for _, c := range e.Children {
		known[c.Name] = true
	}
	for _, de := range entries {
		if known[de.Name()] {
			continue
		}
		*out = append(*out, DiffEntry{Path: joinArch(archPath, de.Name()), Kind: DiffAddedOnDisk})
	}
	for _, c := range e.Children {
		if c.Kind != catalog.KindDirectory {
			continue
		}
		if err := d.findAdded(c, filepath.Join(fsPath, c.Name), joinArch(archPath, c.Name), out); err != nil {
			return err
		}
	}
	return nil
}
