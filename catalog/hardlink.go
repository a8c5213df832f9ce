package catalog

import (
	"fmt"

	"github.com/dar-go/dar/derr"
)

func errUnresolvedHardLink(id uint64) error {
	return derr.E(derr.Bug, fmt.Sprintf("catalog: unresolved hard-link id %d", id))
}

// InodeKey identifies a kernel inode for hard-link coalescing during a
// filesystem walk, keyed by (device, inode).
type InodeKey struct {
	Device uint64
	Inode  uint64
}

// HardLinkTable tracks, during a create operation's walk, which inodes
// with link count > 1 have already been seen, so that the second and
// later sightings of the same inode are emitted as HardLinkAlias entries
// instead of duplicate File entries.
type HardLinkTable struct {
	seen map[InodeKey]*Entry
}

// NewHardLinkTable returns an empty table.
func NewHardLinkTable() *HardLinkTable {
	return &HardLinkTable{seen: make(map[InodeKey]*Entry)}
}

// Seen returns the File entry previously registered for key, if any.
func (t *HardLinkTable) Seen(key InodeKey) (*Entry, bool) {
	e, ok := t.seen[key]
	return e, ok
}

// Register records that key's first sighting was file.
func (t *HardLinkTable) Register(key InodeKey, file *Entry) {
	t.seen[key] = file
}
