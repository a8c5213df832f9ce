package archive

import (
	"context"
	"io"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/dar-go/dar/bigint"
	"github.com/dar-go/dar/catalog"
	"github.com/dar-go/dar/dartime"
	"github.com/dar-go/dar/dconfig"
	"github.com/dar-go/dar/dcrc"
	"github.com/dar-go/dar/derr"
	"github.com/dar-go/dar/dpath"
	"github.com/dar-go/dar/fswalk"
	"github.com/dar-go/dar/retry"
	"github.com/dar-go/dar/sar"
)

// CreateConfig configures the create pipeline: walker -> catalogue-build
// -> (compress|pass) -> (encrypt|pass) -> SAR (spec.md §4.7).
type CreateConfig struct {
	Common
	Root        dpath.Path
	Walker      fswalk.Walker
	WalkOptions fswalk.Options
	Writer      *sar.Writer
	RetryOnChange retry.Policy // nil disables retry-on-change
}

// Create walks Root, builds a Catalog and writes every file's (optionally
// compressed and encrypted) data to Writer in catalogue-dump order,
// returning the built catalogue and the operation's Stats.
func Create(ctx context.Context, cfg CreateConfig) (*catalog.Catalog, Stats, error) {
	walker := cfg.Walker
	if walker == nil {
		walker = fswalk.OSWalker{}
	}
	cur := walker.Walk(cfg.Root, cfg.WalkOptions)

	cat := catalog.New()
	stack := []*catalog.Entry{cat.Root}
	inode := map[[2]uint64]*catalog.Entry{}
	var stats Stats

	for cur.Scan() {
		ev := cur.Event()
		parent := stack[len(stack)-1]
		switch ev.Kind {
		case fswalk.EnterDir:
			e := &catalog.Entry{Kind: catalog.KindDirectory, Name: ev.Path.Base()}
			fillInodeAttrs(&e.InodeAttrs, ev.Info)
			if err := parent.AddChild(e); err != nil {
				return nil, stats, err
			}
			stack = append(stack, e)
		case fswalk.LeaveDir:
			stack = stack[:len(stack)-1]
		case fswalk.Symlink:
			e := &catalog.Entry{Kind: catalog.KindSymlink, Name: ev.Path.Base(), LinkTarget: ev.LinkTarget}
			fillInodeAttrs(&e.InodeAttrs, ev.Info)
			if err := parent.AddChild(e); err != nil {
				return nil, stats, err
			}
		case fswalk.CharDevice, fswalk.BlockDevice:
			kind := catalog.KindCharDevice
			if ev.Kind == fswalk.BlockDevice {
				kind = catalog.KindBlockDevice
			}
			e := &catalog.Entry{Kind: kind, Name: ev.Path.Base(), Major: ev.Major, Minor: ev.Minor}
			fillInodeAttrs(&e.InodeAttrs, ev.Info)
			if err := parent.AddChild(e); err != nil {
				return nil, stats, err
			}
		case fswalk.Pipe, fswalk.Socket:
			kind := catalog.KindPipe
			if ev.Kind == fswalk.Socket {
				kind = catalog.KindSocket
			}
			e := &catalog.Entry{Kind: kind, Name: ev.Path.Base()}
			fillInodeAttrs(&e.InodeAttrs, ev.Info)
			if err := parent.AddChild(e); err != nil {
				return nil, stats, err
			}
		case fswalk.HardLinkOf:
			key := [2]uint64{ev.AliasOfDev, ev.AliasOfIno}
			owner, ok := inode[key]
			if !ok {
				return nil, stats, derr.E(derr.Bug, "archive: hard-link target never seen")
			}
			e := &catalog.Entry{Kind: catalog.KindHardLinkAlias, Name: ev.Path.Base(), AliasOf: owner.EthernetID}
			if err := parent.AddChild(e); err != nil {
				return nil, stats, err
			}
		case fswalk.RegularFile:
			e, err := cfg.createFile(ctx, ev, &stats)
			if err != nil {
				return nil, stats, err
			}
			if err := parent.AddChild(e); err != nil {
				return nil, stats, err
			}
			if ev.NLink > 1 {
				cat.RegisterHardLink(e)
				inode[[2]uint64{ev.Dev, ev.Ino}] = e
			}
			stats.EntriesWritten++
		}
	}
	if err := cur.Err(); err != nil {
		return nil, stats, derr.E(derr.Hardware, err, "archive: walk")
	}
	return cat, stats, nil
}

func fillInodeAttrs(a *catalog.InodeAttrs, info os.FileInfo) {
	if info == nil {
		return
	}
	a.Mode = uint32(info.Mode().Perm())
	a.Mtime = dartime.FromTime(info.ModTime())
	a.Atime = a.Mtime
	a.Ctime = a.Mtime
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		a.Owner = strconv.FormatUint(uint64(st.Uid), 10)
		a.Group = strconv.FormatUint(uint64(st.Gid), 10)
		a.Ctime = dartime.FromTime(time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec)))
	}
}

// createFile reads, sparse-scans, compresses and encrypts one regular
// file's data, writes it to the SAR stream, and returns its catalogue
// entry. It implements the "retry-on-change" contract: if the file's
// size or mtime differs between open and end-of-read, the read restarts
// from offset 0 up to RetryOnChange's retry budget before the entry is
// marked dirty.
func (cfg CreateConfig) createFile(ctx context.Context, ev fswalk.Event, stats *Stats) (*catalog.Entry, error) {
	path := ev.Path.String()
	e := &catalog.Entry{Kind: catalog.KindFile, Name: ev.Path.Base()}
	fillInodeAttrs(&e.InodeAttrs, ev.Info)

	data, dirty, err := cfg.readWithRetry(path, ev.Info)
	if err != nil {
		return nil, err
	}
	if dirty {
		stats.DirtyFiles++
		switch cfg.Options.DirtyBehaviour {
		case dconfig.DirtyWarn:
			stats.warn("archive: " + path + " changed during read")
		case dconfig.DirtyIgnore, dconfig.DirtyOK:
		}
	}

	crc := dcrc.New().Update(data)
	e.DataCRC = &crc
	e.Size = bigint.FromInt64(int64(len(data)))

	holes := findHoles(data, cfg.Options.SparseMinSize)
	e.Holes = holes
	dense := elideHoles(data, holes)

	compress := cfg.Options.ShouldCompress(int64(len(data)), path)
	stored, compressed, err := cfg.Pipeline.Encode(dense, compress)
	if err != nil {
		return nil, err
	}
	if compressed {
		e.Compression = catalog.CompressionUsed
	}
	e.SavedState = catalog.Saved

	e.Offset = bigint.FromInt64(cfg.Writer.LogicalSize())
	if err := writeFramed(cfg.Writer, stored); err != nil {
		return nil, err
	}
	stats.BytesStored += int64(len(stored))
	return e, nil
}

// readWithRetry reads path fully, restarting from scratch if the file's
// size or mtime changed by the time the read finished, up to
// RetryOnChange's policy-defined attempt count.
func (cfg CreateConfig) readWithRetry(path string, want os.FileInfo) ([]byte, bool, error) {
	attempts := 0
	for {
		data, changed, err := readOnce(path, want)
		if err != nil {
			return nil, false, derr.E(derr.Hardware, err, "archive: read "+path)
		}
		if !changed {
			return data, false, nil
		}
		attempts++
		if cfg.RetryOnChange == nil {
			return data, true, nil
		}
		again, wait := cfg.RetryOnChange.Retry(attempts)
		if !again {
			return data, true, nil
		}
		time.Sleep(wait)
	}
}

func readOnce(path string, want os.FileInfo) ([]byte, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()
	data, err := readAll(f)
	if err != nil {
		return nil, false, err
	}
	after, err := f.Stat()
	if err != nil {
		return nil, false, err
	}
	changed := want != nil && (after.Size() != want.Size() || !after.ModTime().Equal(want.ModTime()))
	return data, changed, nil
}

func readAll(f *os.File) ([]byte, error) {
	buf := make([]byte, 0, 64*1024)
	tmp := make([]byte, 64*1024)
	for {
		n, err := f.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				return buf, nil
			}
			return buf, err
		}
	}
}
