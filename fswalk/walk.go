// Package fswalk implements dar's filesystem walker: a depth-first,
// iterator-style traversal that emits the events spec.md §1 scopes dar's
// interest in (enter-dir, leave-dir, file, symlink, device, pipe,
// socket, hard-link-of) and leaves everything else — argument parsing,
// user prompts, terminal handling, atime preservation — to its caller.
//
// The Scan/Event/Err cursor shape follows file.Lister
// (file/localfile.go's localLister): a worklist-driven Scan() that
// advances one step per call, rather than a callback or channel.
package fswalk

import (
	"os"

	"github.com/dar-go/dar/dpath"
)

// EventKind discriminates the kinds of event a Walker emits.
type EventKind uint8

const (
	EnterDir EventKind = iota + 1
	LeaveDir
	RegularFile
	Symlink
	CharDevice
	BlockDevice
	Pipe
	Socket
	HardLinkOf
)

func (k EventKind) String() string {
	switch k {
	case EnterDir:
		return "enter-dir"
	case LeaveDir:
		return "leave-dir"
	case RegularFile:
		return "file"
	case Symlink:
		return "symlink"
	case CharDevice:
		return "char-device"
	case BlockDevice:
		return "block-device"
	case Pipe:
		return "pipe"
	case Socket:
		return "socket"
	case HardLinkOf:
		return "hard-link-of"
	default:
		return "unknown"
	}
}

// Event is one item produced by a Walk. Fields not relevant to Kind are
// left zero (e.g. LinkTarget is empty except for Symlink).
type Event struct {
	Kind EventKind
	Path dpath.Path

	Info os.FileInfo // nil for LeaveDir

	// LinkTarget is the symlink's target, valid only for Symlink.
	LinkTarget string

	// Major, Minor identify a device node, valid only for CharDevice and
	// BlockDevice.
	Major, Minor uint32

	// Dev, Ino are the (device, inode) pair used for hard-link
	// coalescing; valid for RegularFile and HardLinkOf.
	Dev, Ino uint64

	// NLink is the file's link count, valid for RegularFile.
	NLink uint64

	// AliasOf is set on a HardLinkOf event: the Dev/Ino of the first
	// sighting of this inode, for the caller's own ethernet-id table.
	AliasOfDev, AliasOfIno uint64
}

// Options controls a Walk.
type Options struct {
	// OneFileSystem stops descent at a mount-point boundary: a directory
	// whose device number differs from root's is not entered.
	OneFileSystem bool

	// SkipNoDump skips files and directories carrying the filesystem's
	// "nodump" attribute (ext2/3/4's chattr +d), where the platform
	// supports querying it.
	SkipNoDump bool

	// FollowRootSymlink dereferences root itself if it is a symlink,
	// rather than emitting a single Symlink event for it.
	FollowRootSymlink bool
}

// Walker walks a filesystem subtree, producing a stream of Events.
type Walker interface {
	Walk(root dpath.Path, opts Options) Cursor
}

// Cursor is a one-step-at-a-time iterator over a Walker's output,
// mirroring file.Lister's Scan/Path/Info/Err shape.
type Cursor interface {
	// Scan advances to the next event and reports whether one is
	// available. It returns false at the end of the walk or on error;
	// the caller must check Err to distinguish the two.
	Scan() bool
	// Event returns the event most recently produced by Scan.
	Event() Event
	// Err returns the first error encountered during the walk, if any.
	Err() error
}
