package archive

import (
	"github.com/dar-go/dar/bigint"
	"github.com/dar-go/dar/catalog"
)

// Isolate returns a copy of cat suitable for writing as a standalone
// reference archive: every file entry's data is marked NotSaved and its
// Offset cleared, so the resulting catalogue carries full metadata (for
// listing, diffing, and as a merge base) without requiring this
// archive's data section to contain any file bytes (spec.md §4.7's
// isolate operation).
func Isolate(cat *catalog.Catalog) (*catalog.Catalog, error) {
	out := catalog.New()
	if err := isolateDir(cat.Root, out.Root); err != nil {
		return nil, err
	}
	return out, nil
}

func isolateDir(src, dst *catalog.Entry) error {
	for _, c := range src.Children {
		child := cloneShallow(c)
		if child.Kind == catalog.KindFile {
			child.SavedState = catalog.NotSaved
			child.Offset = bigint.Int{}
		}
		if err := dst.AddChild(child); err != nil {
			return err
		}
		if c.Kind == catalog.KindDirectory {
			if err := isolateDir(c, child); err != nil {
				return err
			}
		}
	}
	return nil
}
