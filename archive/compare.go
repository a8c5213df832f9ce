package archive

import "github.com/dar-go/dar/catalog"

// Compare reports base-vs-overlay catalogue differences, the
// archive-to-archive counterpart to Diff (which compares a catalogue
// against a live filesystem). Its caller is cmd/dar's compare command;
// Merge does not use it.
func Compare(base, overlay *catalog.Catalog) []DiffEntry {
	var out []DiffEntry
	compareDir(base.Root, overlay.Root, "", &out)
	return out
}

func compareDir(base, overlay *catalog.Entry, path string, out *[]DiffEntry) {
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
			cpath := joinArch(path, bc.Name)
			oc, ok := overlayByName[bc.Name]
			if !ok {
				*out = append(*out, DiffEntry{Path: cpath, Kind: DiffRemovedOnDisk})
				continue
			}
			compareOne(bc, oc, cpath, out)
		}
	}
	if overlay != nil {
		for _, oc := range overlay.Children {
			if seen[oc.Name] {
				continue
			}
			*out = append(*out, DiffEntry{Path: joinArch(path, oc.Name), Kind: DiffAddedOnDisk})
		}
	}
}

func compareOne(base, overlay *catalog.Entry, path string, out *[]DiffEntry) {
	if base.Kind != overlay.Kind {
		*out = append(*out, DiffEntry{Path: path, Kind: DiffTypeChanged})
		if base.Kind == catalog.KindDirectory || overlay.Kind == catalog.KindDirectory {
			compareDir(base, overlay, path, out)
		}
		return
	}
	if base.Kind == catalog.KindDirectory {
		compareDir(base, overlay, path, out)
		return
	}
	if base.Kind != catalog.KindFile {
		return
	}
	if base.DataCRC != nil && overlay.DataCRC != nil && !base.DataCRC.Equal(*overlay.DataCRC) {
		*out = append(*out, DiffEntry{Path: path, Kind: DiffModified})
		return
	}
	if base.Size.Uint64() != overlay.Size.Uint64() {
		*out = append(*out, DiffEntry{Path: path, Kind: DiffModified})
	}
}
