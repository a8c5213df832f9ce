package catalog

import "github.com/dar-go/dar/derr"

// SequentialBuilder reconstructs a Catalog from a single forward pass over
// entries carrying inline depth information, instead of from a pre-dumped
// catalogue blob. This is how a restore run on tape-like media (no seek,
// so no trailing catalogue copy to read first) discovers the tree: each
// file's own on-tape record is tagged with its depth relative to the
// previously seen record, mirroring what Iterator produces on the write
// side.
type SequentialBuilder struct {
	cat   *Catalog
	stack []*Entry // stack[0] is the root; stack[len-1] is the current directory
}

// NewSequentialBuilder starts a build rooted at an empty catalogue.
func NewSequentialBuilder() *SequentialBuilder {
	cat := New()
	return &SequentialBuilder{cat: cat, stack: []*Entry{cat.Root}}
}

// Append adds e at depthDelta relative to the entry most recently
// appended (the same convention Iterator.Next reports): +1 descends into
// a directory just appended, -n exits n directories, 0 stays in the
// current directory.
func (b *SequentialBuilder) Append(e *Entry, depthDelta int) error {
	switch {
	case depthDelta > 1:
		return derr.E(derr.Data, "catalog: sequential build: depth jump skips a directory level")
	case depthDelta == 1:
		if len(b.stack) == 0 {
			return derr.E(derr.Bug, "catalog: sequential build: descend with empty stack")
		}
		cur := b.stack[len(b.stack)-1]
		if len(cur.Children) == 0 {
			return derr.E(derr.Data, "catalog: sequential build: descend with no entry to descend into")
		}
		last := cur.Children[len(cur.Children)-1]
		if !last.IsDir() {
			return derr.E(derr.Data, "catalog: sequential build: descend into a non-directory parent")
		}
		b.stack = append(b.stack, last)
	case depthDelta < 0:
		if len(b.stack)+depthDelta < 1 {
			return derr.E(derr.Data, "catalog: sequential build: depth underflow past root")
		}
		b.stack = b.stack[:len(b.stack)+depthDelta]
	}
	parent := b.stack[len(b.stack)-1]
	if err := parent.AddChild(e); err != nil {
		return err
	}
	if e.Kind == KindFile {
		b.cat.noteInode(e)
	}
	return nil
}

// Finish resolves every hard-link alias recorded during the build and
// returns the completed Catalog.
func (b *SequentialBuilder) Finish() (*Catalog, error) {
	if err := resolveAliases(b.cat, b.cat.Root); err != nil {
		return nil, err
	}
	return b.cat, nil
}
