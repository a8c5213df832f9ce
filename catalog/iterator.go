package catalog

// Iterator is a read-cursor over a Catalog's tree that yields entries in
// depth-first pre-order without requiring the caller to maintain its own
// directory stack: each Next reports how many levels deeper (or
// shallower) the cursor moved relative to the previous entry, so a caller
// tracking a parallel path (e.g. a restore target directory) can push or
// pop to match.
type Iterator struct {
	stack     []frame
	lastDepth int
}

type frame struct {
	children []*Entry
	pos      int
}

// NewIterator returns an Iterator positioned before the catalogue's first
// entry.
func NewIterator(c *Catalog) *Iterator {
	return &Iterator{stack: []frame{{children: c.Root.Children}}}
}

// Next advances the cursor and returns the next entry together with the
// depth delta relative to the entry returned by the previous call: +1 when
// descending into a directory just yielded, -n when n directories were
// exited with no intervening sibling, 0 between siblings. ok is false once
// the traversal is exhausted.
func (it *Iterator) Next() (e *Entry, depthDelta int, ok bool) {
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]
		if top.pos >= len(top.children) {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}
		depth := len(it.stack) - 1
		child := top.children[top.pos]
		top.pos++
		if child.Kind == KindDirectory {
			it.stack = append(it.stack, frame{children: child.Children})
		}
		delta := depth - it.lastDepth
		it.lastDepth = depth
		return child, delta, true
	}
	return nil, 0, false
}

// Depth reports the directory nesting depth of the entry last returned by
// Next (0 for entries directly under the catalogue root).
func (it *Iterator) Depth() int { return it.lastDepth }
