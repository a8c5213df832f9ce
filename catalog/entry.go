// Package catalog implements dar's catalogue entry model: a tagged
// variant over directory, file, symlink, device, pipe, socket,
// hard-link-alias, and tombstone entries, plus their EA/FSA attribute
// sets. The dump/scan-by-discriminator-byte idiom follows recordio
// (recordio/writerv2.go, recordio/scannerv2.go), narrowed from recordio's
// generic record stream to a fixed, self-describing tree shape: the
// variant flattens to one discriminator byte plus a shared attribute
// prefix, so no interface-based runtime dispatch is needed beyond a type
// switch on Kind.
package catalog

import (
	"github.com/dar-go/dar/bigint"
	"github.com/dar-go/dar/dcrc"
	"github.com/dar-go/dar/dartime"
)

// Kind discriminates the catalogue entry variants.
type Kind uint8

const (
	KindDirectory Kind = iota + 1
	KindFile
	KindSymlink
	KindCharDevice
	KindBlockDevice
	KindPipe
	KindSocket
	KindHardLinkAlias
	KindTombstone
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	case KindSymlink:
		return "symlink"
	case KindCharDevice:
		return "char-device"
	case KindBlockDevice:
		return "block-device"
	case KindPipe:
		return "pipe"
	case KindSocket:
		return "socket"
	case KindHardLinkAlias:
		return "hard-link-alias"
	case KindTombstone:
		return "tombstone"
	default:
		return "unknown"
	}
}

// EAState is the extended-attribute set's state.
type EAState uint8

const (
	EANone EAState = iota
	EAPartial
	EAFull
	EAFake
	EARemoved
)

// EA is one extended-attribute (name, value) pair.
type EA struct {
	Name  string
	Value []byte
}

// EASet is an entry's ordered extended-attribute list plus its state.
type EASet struct {
	State   EAState
	Entries []EA
}

// FSAFamily names a family-scoped filesystem-specific attribute bag. The
// original capabilities.cpp/hpp enumerates exactly these two families;
// carried over since the concept's concrete family list is otherwise
// unspecified (see SPEC_FULL.md).
type FSAFamily uint8

const (
	FSAExt2 FSAFamily = iota + 1
	FSAHFSPlus
)

// FSA is one family-scoped opaque attribute bag.
type FSA struct {
	Family FSAFamily
	Data   []byte
}

// FSASet is an entry's FSA bags plus the scope (families) the archive was
// configured to read.
type FSASet struct {
	Scope   []FSAFamily
	Entries []FSA
}

// CompressionState records whether a file entry's stored data is
// compressed.
type CompressionState uint8

const (
	CompressionNone CompressionState = iota
	CompressionUsed
)

// SavedState records whether a file entry's data was (re)written to this
// archive.
type SavedState uint8

const (
	Saved SavedState = iota
	NotSaved
	UnchangedSinceRef
)

// Hole is a (offset, length) run of elided zero bytes in a sparse
// file.
type Hole struct {
	Offset bigint.Int
	Length bigint.Int
}

// InodeAttrs is the shared prefix every non-alias, non-tombstone entry
// carries: owner/group/mode/three timestamps/EA/FSA.
type InodeAttrs struct {
	Owner, Group string
	Mode         uint32
	Atime        dartime.Date
	Mtime        dartime.Date
	Ctime        dartime.Date
	EA           EASet
	FSA          FSASet
}

// Entry is one catalogue entry: a tagged variant discriminated by Kind,
// with kind-specific fields left zero for kinds that don't use them. Name
// is empty only for the catalogue's synthetic root directory.
type Entry struct {
	Kind Kind
	Name string

	InodeAttrs // valid for all kinds except HardLinkAlias and Tombstone

	// Directory
	Children []*Entry

	// File
	Size           bigint.Int
	Offset         bigint.Int
	Compression    CompressionState
	SavedState     SavedState
	DataCRC        *dcrc.CRC
	PatchBaseCRC   *dcrc.CRC
	PatchResultCRC *dcrc.CRC
	Holes          []Hole

	// Symlink
	LinkTarget string

	// CharDevice / BlockDevice
	Major, Minor uint32

	// File, when hard-link coalesced: the "ethernet id" assigned to this
	// inode so that later HardLinkAlias entries can reference it.
	EthernetID uint64

	// HardLinkAlias
	AliasOf uint64

	// Tombstone
	DeletedAt dartime.Date
}

// IsDir reports whether e is a directory.
func (e *Entry) IsDir() bool { return e.Kind == KindDirectory }

// AddChild appends child to a directory entry, enforcing that every
// child's name is unique within its parent.
func (e *Entry) AddChild(child *Entry) error {
	if e.Kind != KindDirectory {
		panic("catalog: AddChild on non-directory entry")
	}
	for _, c := range e.Children {
		if c.Name == child.Name {
			return newDuplicateNameError(e.Name, child.Name)
		}
	}
	e.Children = append(e.Children, child)
	return nil
}
