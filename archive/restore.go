package archive

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/dar-go/dar/catalog"
	"github.com/dar-go/dar/derr"
	"github.com/dar-go/dar/policy"
	"github.com/dar-go/dar/sar"
	"github.com/dar-go/dar/uiface"
)

// RestoreConfig configures the restore pipeline: catalogue-driven,
// applying the overwriting policy against whatever already exists on
// disk. A file's data is written first and its inode attributes (mode,
// owner, mtime) applied after; EA and FSA sets are not restored.
type RestoreConfig struct {
	Common
	Catalog    *catalog.Catalog
	Reader     *sar.Reader
	Policy     policy.Policy
	TargetRoot string
	// Select, if non-nil, restricts restore to entries whose archive-
	// relative path it reports true for.
	Select func(path string) bool
}

// Restore applies cfg.Catalog onto cfg.TargetRoot.
func Restore(ctx context.Context, cfg RestoreConfig) (Stats, error) {
	if cfg.Policy == nil {
		cfg.Policy = policy.PreserveAll
	}
	r := &restorer{cfg: cfg, br: bufio.NewReader(cfg.Reader), links: map[uint64]string{}}
	err := r.dir(cfg.Catalog.Root, cfg.TargetRoot, "")
	return r.stats, err
}

type restorer struct {
	cfg   RestoreConfig
	br    *bufio.Reader
	links map[uint64]string
	stats Stats
}

func (r *restorer) dir(e *catalog.Entry, fsPath, archPath string) error {
	if fsPath != r.cfg.TargetRoot {
		if err := r.ensureDir(fsPath); err != nil {
			return err
		}
	}
	for _, child := range e.Children {
		childFS := filepath.Join(fsPath, child.Name)
		childArch := joinArch(archPath, child.Name)
		if r.cfg.Select != nil && !r.cfg.Select(childArch) {
			continue
		}
		if err := r.entry(child, childFS, childArch); err != nil {
			return err
		}
	}
	if fsPath != r.cfg.TargetRoot {
		return r.applyAttrs(&e.InodeAttrs, fsPath)
	}
	return nil
}

func joinArch(base, name string) string {
	if base == "" {
		return name
	}
	return base + "/" + name
}

func (r *restorer) entry(e *catalog.Entry, fsPath, archPath string) error {
	switch e.Kind {
	case catalog.KindDirectory:
		return r.dir(e, fsPath, archPath)
	case catalog.KindFile:
		return r.file(e, fsPath)
	case catalog.KindSymlink:
		return r.symlink(e, fsPath)
	case catalog.KindCharDevice, catalog.KindBlockDevice:
		return r.device(e, fsPath)
	case catalog.KindPipe:
		return r.fifo(e, fsPath)
	case catalog.KindSocket:
		r.stats.warn("archive: " + archPath + " is a socket, not recreated")
		return nil
	case catalog.KindHardLinkAlias:
		return r.hardlink(e, fsPath)
	case catalog.KindTombstone:
		return r.tombstone(fsPath)
	}
	return nil
}

// file restores one file entry, applying the overwriting policy against
// whatever is already at fsPath. The data frame is always consumed from
// the SAR stream (catalogue-dump order and read order match), even when
// the policy says to keep the in-place data, so the stream stays
// aligned for the next entry.
func (r *restorer) file(e *catalog.Entry, fsPath string) error {
	var stored []byte
	if e.SavedState == catalog.Saved {
		var err error
		stored, err = readFramed(r.br)
		if err != nil {
			return err
		}
	}
	r.stats.EntriesRead++

	inPlace, existed := r.statEntry(fsPath)
	dataVerdict, eaVerdict := r.cfg.Policy.Evaluate(inPlace, e)
	if existed && dataVerdict == policy.DataAsk && r.cfg.Interactor != nil {
		choice, err := r.cfg.Interactor.AskData(fsPath, "archive entry conflicts with existing file")
		if err != nil {
			return err
		}
		switch choice {
		case uiface.DataOverwrite:
			dataVerdict = policy.DataOverwrite
		case uiface.DataAbort:
			return derr.E(derr.UserAbort, "archive: restore aborted at "+fsPath)
		default:
			dataVerdict = policy.DataPreserve
		}
	}
	if eaVerdict == policy.EAAsk && r.cfg.Interactor != nil {
		choice, err := r.cfg.Interactor.AskEA(fsPath, "archive entry EA conflicts with existing file")
		if err != nil {
			return err
		}
		switch choice {
		case uiface.EAOverwrite:
			eaVerdict = policy.EAOverwrite
		case uiface.EAAbort:
			return derr.E(derr.UserAbort, "archive: restore aborted at "+fsPath)
		default:
			eaVerdict = policy.EAPreserve
		}
	}
	_ = eaVerdict // EA sets are not modelled on-disk beyond inode attrs in this implementation

	if existed && (dataVerdict == policy.DataPreserve || dataVerdict == policy.DataPreserveMarkAbsent) {
		return nil
	}
	if e.SavedState != catalog.Saved {
		return nil
	}
	dense, err := r.cfg.Pipeline.Decode(stored, e.Compression == catalog.CompressionUsed)
	if err != nil {
		return err
	}
	data := reinflateHoles(dense, e.Holes, int64(e.Size.Uint64()))
	if err := r.writeFile(fsPath, data, e.Holes); err != nil {
		return err
	}
	if e.EthernetID != 0 {
		r.links[e.EthernetID] = fsPath
	}
	return r.applyAttrs(&e.InodeAttrs, fsPath)
}

// writeFile writes data to fsPath, seeking past hole regions rather than
// writing their zero bytes so that filesystems that support sparse
// files reclaim the space (spec.md §4.7 "re-materialised via
// truncate-then-seek").
func (r *restorer) writeFile(fsPath string, data []byte, holes []catalog.Hole) error {
	f, err := os.OpenFile(fsPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return derr.E(derr.Hardware, err, "archive: create "+fsPath)
	}
	defer f.Close()
	pos := int64(0)
	for _, h := range holes {
		start := int64(h.Offset.Uint64())
		if _, err := f.WriteAt(data[pos:start], pos); err != nil {
			return derr.E(derr.Hardware, err, "archive: write "+fsPath)
		}
		pos = start + int64(h.Length.Uint64())
	}
	if _, err := f.WriteAt(data[pos:], pos); err != nil {
		return derr.E(derr.Hardware, err, "archive: write "+fsPath)
	}
	if err := f.Truncate(int64(len(data))); err != nil {
		return derr.E(derr.Hardware, err, "archive: truncate "+fsPath)
	}
	return nil
}

func (r *restorer) symlink(e *catalog.Entry, fsPath string) error {
	os.Remove(fsPath)
	if err := os.Symlink(e.LinkTarget, fsPath); err != nil {
		return derr.E(derr.Hardware, err, "archive: symlink "+fsPath)
	}
	return nil
}

func (r *restorer) device(e *catalog.Entry, fsPath string) error {
	mode := uint32(0o600) | syscall.S_IFCHR
	if e.Kind == catalog.KindBlockDevice {
		mode = uint32(0o600) | syscall.S_IFBLK
	}
	os.Remove(fsPath)
	dev := int(unixMkdev(e.Major, e.Minor))
	if err := syscall.Mknod(fsPath, mode, dev); err != nil {
		return derr.E(derr.Hardware, err, "archive: mknod "+fsPath)
	}
	return r.applyAttrs(&e.InodeAttrs, fsPath)
}

func unixMkdev(major, minor uint32) uint64 {
	return uint64(major)<<8 | uint64(minor)
}

func (r *restorer) fifo(e *catalog.Entry, fsPath string) error {
	os.Remove(fsPath)
	if err := syscall.Mkfifo(fsPath, 0o600); err != nil {
		return derr.E(derr.Hardware, err, "archive: mkfifo "+fsPath)
	}
	return r.applyAttrs(&e.InodeAttrs, fsPath)
}

func (r *restorer) hardlink(e *catalog.Entry, fsPath string) error {
	target, ok := r.links[e.AliasOf]
	if !ok {
		return derr.E(derr.Bug, "archive: hard-link alias references unrestored inode")
	}
	os.Remove(fsPath)
	if err := os.Link(target, fsPath); err != nil {
		return derr.E(derr.Hardware, err, "archive: link "+fsPath)
	}
	return nil
}

func (r *restorer) tombstone(fsPath string) error {
	if r.cfg.Options.IgnoreDeleted {
		return nil
	}
	if err := os.RemoveAll(fsPath); err != nil && !os.IsNotExist(err) {
		return derr.E(derr.Hardware, err, "archive: remove "+fsPath)
	}
	return nil
}

func (r *restorer) ensureDir(fsPath string) error {
	if err := os.MkdirAll(fsPath, 0o755); err != nil {
		return derr.E(derr.Hardware, err, "archive: mkdir "+fsPath)
	}
	return nil
}

func (r *restorer) applyAttrs(a *catalog.InodeAttrs, fsPath string) error {
	os.Chmod(fsPath, os.FileMode(a.Mode))
	if uid, err := strconv.Atoi(a.Owner); err == nil {
		if gid, err := strconv.Atoi(a.Group); err == nil {
			os.Chown(fsPath, uid, gid)
		}
	}
	mt := a.Mtime.Time()
	os.Chtimes(fsPath, mt, mt)
	return nil
}

// statEntry builds a transient catalog.Entry describing whatever already
// exists at fsPath, for the overwriting policy to compare against. A
// missing path reports existed=false and a Tombstone-kind entry (so
// criteria like InPlaceIsInode correctly read it as "nothing here").
func (r *restorer) statEntry(fsPath string) (inPlace *catalog.Entry, existed bool) {
	info, err := os.Lstat(fsPath)
	if err != nil {
		return &catalog.Entry{Kind: catalog.KindTombstone}, false
	}
	e := &catalog.Entry{}
	fillInodeAttrs(&e.InodeAttrs, info)
	switch {
	case info.IsDir():
		e.Kind = catalog.KindDirectory
	case info.Mode()&os.ModeSymlink != 0:
		e.Kind = catalog.KindSymlink
	default:
		e.Kind = catalog.KindFile
	}
	return e, true
}
