package fswalk

import (
	"os"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/dar-go/dar/derr"
	"github.com/dar-go/dar/dpath"
	"golang.org/x/sys/unix"
)

// OSWalker walks the real, local filesystem with "os"/"golang.org/x/sys/unix".
type OSWalker struct{}

// Walk implements Walker.
func (OSWalker) Walk(root dpath.Path, opts Options) Cursor {
	c := &osCursor{opts: opts}
	info, err := os.Lstat(root.String())
	if err != nil {
		c.err = err
		return c
	}
	if opts.FollowRootSymlink && info.Mode()&os.ModeSymlink != 0 {
		if info, err = os.Stat(root.String()); err != nil {
			c.err = err
			return c
		}
	}
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		c.rootDev = uint64(st.Dev)
	}
	c.stack = []frame{{path: root, fsPath: root.String(), info: info, entered: false}}
	return c
}

// frame is one pending directory (or leaf) on the walk stack.
type frame struct {
	path    dpath.Path
	fsPath  string
	info    os.FileInfo
	entered bool   // EnterDir already emitted
	names   []string
	idx     int
}

type inodeKey struct{ dev, ino uint64 }

type osCursor struct {
	opts    Options
	stack   []frame
	rootDev uint64
	inodesK map[inodeKey]bool
	event   Event
	err     error
}

// Scan implements Cursor.
func (c *osCursor) Scan() bool {
	if c.err != nil {
		return false
	}
	for len(c.stack) > 0 {
		top := &c.stack[len(c.stack)-1]
		if top.info.IsDir() {
			if !top.entered {
				top.entered = true
				if c.skip(top.fsPath, top.info) {
					c.stack = c.stack[:len(c.stack)-1]
					continue
				}
				if c.opts.OneFileSystem && len(c.stack) > 1 {
					if st, ok := top.info.Sys().(*syscall.Stat_t); ok && uint64(st.Dev) != c.rootDev {
						c.stack = c.stack[:len(c.stack)-1]
						continue
					}
				}
				names, err := readDirNames(top.fsPath)
				if err != nil {
					c.err = err
					return false
				}
				top.names = names
				c.event = Event{Kind: EnterDir, Path: top.path, Info: top.info}
				return true
			}
			if top.idx < len(top.names) {
				name := top.names[top.idx]
				top.idx++
				childPath := top.path.Push(name)
				childFSPath := filepath.Join(top.fsPath, name)
				info, err := os.Lstat(childFSPath)
				if err != nil {
					if os.IsNotExist(err) {
						// Raced with a concurrent delete; skip silently.
						continue
					}
					c.err = err
					return false
				}
				if info.IsDir() {
					c.stack = append(c.stack, frame{path: childPath, fsPath: childFSPath, info: info})
					continue
				}
				ev, ok, skip := c.leafEvent(childPath, childFSPath, info)
				if skip {
					continue
				}
				if !ok {
					return false
				}
				c.event = ev
				return true
			}
			c.stack = c.stack[:len(c.stack)-1]
			c.event = Event{Kind: LeaveDir, Path: top.path}
			return true
		}
		// Root itself is a non-directory.
		c.stack = c.stack[:len(c.stack)-1]
		ev, ok, skip := c.leafEvent(top.path, top.fsPath, top.info)
		if skip {
			continue
		}
		if !ok {
			return false
		}
		c.event = ev
		return true
	}
	return false
}

func (c *osCursor) leafEvent(path dpath.Path, fsPath string, info os.FileInfo) (ev Event, ok bool, skip bool) {
	if c.skip(fsPath, info) {
		return Event{}, false, true
	}
	mode := info.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		target, err := os.Readlink(fsPath)
		if err != nil {
			c.err = err
			return Event{}, false, false
		}
		return Event{Kind: Symlink, Path: path, Info: info, LinkTarget: target}, true, false
	case mode&os.ModeNamedPipe != 0:
		return Event{Kind: Pipe, Path: path, Info: info}, true, false
	case mode&os.ModeSocket != 0:
		return Event{Kind: Socket, Path: path, Info: info}, true, false
	case mode&os.ModeDevice != 0:
		st, _ := info.Sys().(*syscall.Stat_t)
		var maj, min uint32
		var dev, ino uint64
		if st != nil {
			maj, min = unix.Major(uint64(st.Rdev)), unix.Minor(uint64(st.Rdev))
			dev, ino = uint64(st.Dev), st.Ino
		}
		kind := CharDevice
		if mode&os.ModeCharDevice == 0 {
			kind = BlockDevice
		}
		return Event{Kind: kind, Path: path, Info: info, Major: maj, Minor: min, Dev: dev, Ino: ino}, true, false
	default:
		st, _ := info.Sys().(*syscall.Stat_t)
		var dev, ino, nlink uint64
		if st != nil {
			dev, ino, nlink = uint64(st.Dev), st.Ino, uint64(st.Nlink)
		}
		if nlink > 1 {
			key := inodeKey{dev: dev, ino: ino}
			if first, seen := c.inodesK[key]; seen && first {
				return Event{Kind: HardLinkOf, Path: path, Info: info, Dev: dev, Ino: ino,
					AliasOfDev: dev, AliasOfIno: ino}, true, false
			}
			if c.inodesK == nil {
				c.inodesK = map[inodeKey]bool{}
			}
			c.inodesK[key] = true
		}
		return Event{Kind: RegularFile, Path: path, Info: info, Dev: dev, Ino: ino, NLink: nlink}, true, false
	}
}

// skip reports whether fsPath should be excluded by opts.SkipNoDump.
func (c *osCursor) skip(fsPath string, info os.FileInfo) bool {
	if !c.opts.SkipNoDump {
		return false
	}
	nodump, err := hasNoDumpFlag(fsPath, info)
	if err != nil {
		return false
	}
	return nodump
}

// Event implements Cursor.
func (c *osCursor) Event() Event { return c.event }

// Err implements Cursor.
func (c *osCursor) Err() error { return c.err }

func readDirNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, derr.E(derr.Other, err, "fswalk: opendir "+path)
	}
	names, err := f.Readdirnames(-1)
	if e := f.Close(); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
