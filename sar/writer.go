package sar

import (
	"bytes"
	"context"
	"path/filepath"

	"github.com/dar-go/dar/derr"
	"github.com/dar-go/dar/fileio"
	"github.com/dar-go/dar/retry"
	"github.com/dar-go/dar/uiface"
)

// WriterConfig configures a Writer, realizing §4.2's
// Open-for-write(basename, ext, first_size, rest_size, overwrite_policy,
// pause_every_N, exec_hook, hash_algo, min_digits) contract. The
// overwrite_policy itself is enforced by the store's create (local files
// are created with file.Create's own collision behavior); WriterConfig
// carries everything else.
type WriterConfig struct {
	Store       sliceStore
	Basename    string
	Ext         string
	FirstSize   int64 // payload bytes; 0 with RestSize 0 means unsplit
	RestSize    int64
	Label       Label
	MinDigits   int
	PauseEveryN int
	Hook        *Hook
	HashAlgo    string // "" disables hash side-files; "crc32" is supported
	Interactor  uiface.Interactor
	ENOSPCRetry retry.Policy // not read: an ENOSPC write is retried after each Interactor.Pause, without backoff
}

// Writer presents a single logical io.Writer backed by a sliceStore,
// transparently splitting output across slice boundaries per
// WriterConfig. Because file.File only supports whole-file writes (no
// seek-and-patch), a bounded slice is buffered in memory until its
// terminal-or-not status is known, then flushed with a correct header in
// one pass; an unbounded (single-slice) archive is known terminal from
// the first byte and streams straight through instead.
type Writer struct {
	cfg       WriterConfig
	unbounded bool

	n       int // current slice number; 0 before the first Write
	target  int64
	written int64

	buf *bytes.Buffer // bounded mode only

	direct     fileio.WriteCloser // unbounded mode only
	directHash *hashingWriteCloser
	curName    string

	logicalSize int64
	closed      bool
}

// NewWriter validates cfg and returns a ready Writer.
func NewWriter(cfg WriterConfig) (*Writer, error) {
	unbounded := cfg.FirstSize == 0 && cfg.RestSize == 0
	if !unbounded {
		if cfg.FirstSize < HeaderSize+1 || cfg.RestSize < HeaderSize+1 {
			return nil, derr.E(derr.Range, "sar: slice size must be >= header size + 1")
		}
		if cfg.Store.single() {
			return nil, derr.E(derr.Range, "sar: non-seekable store cannot host multiple slices")
		}
	}
	if cfg.MinDigits < 1 {
		cfg.MinDigits = 1
	}
	return &Writer{cfg: cfg, unbounded: unbounded}, nil
}

func (w *Writer) sliceTarget(n int) int64 {
	if n == 1 {
		return w.cfg.FirstSize
	}
	return w.cfg.RestSize
}

// Write implements io.Writer, splitting p across slice boundaries as
// needed.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, derr.E(derr.Bug, "sar: write after close")
	}
	total := 0
	for len(p) > 0 {
		if w.n == 0 {
			if err := w.openSlice(context.Background(), 1); err != nil {
				return total, err
			}
		}
		if w.unbounded {
			var out fileio.WriteCloser = w.direct
			if w.directHash != nil {
				out = w.directHash
			}
			var n int
			err := retryOnENOSPC(context.Background(), w.cfg.Interactor, func() error {
				var werr error
				n, werr = out.Write(p)
				return werr
			})
			total += n
			w.logicalSize += int64(n)
			if err != nil {
				return total, derr.E(derr.Hardware, err, "sar: write slice payload")
			}
			p = p[n:]
			continue
		}
		room := w.target - w.written
		if room <= 0 {
			if err := w.roll(context.Background()); err != nil {
				return total, err
			}
			continue
		}
		n := int64(len(p))
		if n > room {
			n = room
		}
		w.buf.Write(p[:n])
		w.written += n
		w.logicalSize += n
		total += int(n)
		p = p[n:]
	}
	return total, nil
}

// openSlice opens slice n, writing its header immediately when the
// archive is unbounded (n is certainly both the first and last slice) or
// preparing a fresh payload buffer otherwise.
func (w *Writer) openSlice(ctx context.Context, n int) error {
	w.n = n
	w.target = w.sliceTarget(n)
	w.written = 0
	if w.cfg.Hook != nil {
		tag := HookOperation
		if n == 1 {
			tag = HookInit
		}
		if err := w.cfg.Hook.Run(ctx, filepath.Dir(w.cfg.Basename), w.cfg.Basename, w.cfg.Ext, n, w.cfg.MinDigits, tag); err != nil {
			return err
		}
	}
	if !w.unbounded {
		w.buf = &bytes.Buffer{}
		return nil
	}
	wc, name, err := w.cfg.Store.create(ctx, n)
	if err != nil {
		return err
	}
	w.curName = name
	if w.cfg.HashAlgo != "" {
		w.directHash = newHashingWriteCloser(wc)
	} else {
		w.direct = wc
	}
	hdr := Header{Label: w.cfg.Label, Flag: Terminal, Extension: NoExtension}
	return w.writeHeader(hdr)
}

func (w *Writer) writeHeader(hdr Header) error {
	if w.directHash != nil {
		return hdr.encode(w.directHash)
	}
	return hdr.encode(w.direct)
}

// roll closes the current bounded slice as NonTerminal (more data is
// known to follow, since the caller is still writing), runs the
// inter-slice hook, optionally pauses for operator confirmation, and
// opens the next slice.
func (w *Writer) roll(ctx context.Context) error {
	if err := w.flushBounded(ctx, NonTerminal); err != nil {
		return err
	}
	if w.cfg.PauseEveryN > 0 && w.n%w.cfg.PauseEveryN == 0 && w.cfg.Interactor != nil {
		if err := w.cfg.Interactor.Pause("insert media for slice " + w.cfg.Basename); err != nil {
			return err
		}
	}
	return w.openSlice(ctx, w.n+1)
}

// flushBounded writes the current bounded slice's header and buffered
// payload to the store, optionally producing its hash side-file.
func (w *Writer) flushBounded(ctx context.Context, flag Flag) error {
	wc, name, err := w.cfg.Store.create(ctx, w.n)
	if err != nil {
		return err
	}
	w.curName = name
	var out fileio.WriteCloser = wc
	var hw *hashingWriteCloser
	if w.cfg.HashAlgo != "" {
		hw = newHashingWriteCloser(wc)
		out = hw
	}
	hdr := Header{Label: w.cfg.Label, Flag: flag, Extension: NoExtension}
	if err := hdr.encode(out); err != nil {
		return err
	}
	if err := retryOnENOSPC(ctx, w.cfg.Interactor, func() error {
		_, werr := out.Write(w.buf.Bytes())
		return werr
	}); err != nil {
		return derr.E(derr.Hardware, err, "sar: write slice payload")
	}
	if err := out.Close(); err != nil {
		return derr.E(derr.Hardware, err, "sar: close slice "+name)
	}
	if hw != nil {
		if err := w.writeSidecar(ctx, name, hw.sum()); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeSidecar(ctx context.Context, sliceName string, sum uint32) error {
	sc, err := w.cfg.Store.createSidecar(ctx, sliceName, w.cfg.HashAlgo)
	if err != nil {
		return err
	}
	crcText := formatHash(sum)
	if _, err := sc.Write([]byte(crcText)); err != nil {
		return derr.E(derr.Hardware, err, "sar: write hash side-file")
	}
	return sc.Close()
}

// Close finalizes the current (now known-terminal) slice and, for a
// hook-configured archive, runs the hook once more with the
// "last_slice" context tag.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	ctx := context.Background()
	if w.n == 0 {
		// Empty archive: still materialize an empty terminal slice 1.
		if err := w.openSlice(ctx, 1); err != nil {
			return err
		}
	}
	if w.unbounded {
		var err error
		if w.directHash != nil {
			err = w.directHash.WriteCloser.Close()
		} else {
			err = w.direct.Close()
		}
		if err != nil {
			return derr.E(derr.Hardware, err, "sar: close slice "+w.curName)
		}
		if w.directHash != nil && w.cfg.HashAlgo != "" {
			if err := w.writeSidecar(ctx, w.curName, w.directHash.sum()); err != nil {
				return err
			}
		}
		if w.cfg.Hook != nil {
			return w.cfg.Hook.Run(ctx, filepath.Dir(w.cfg.Basename), w.cfg.Basename, w.cfg.Ext, w.n, w.cfg.MinDigits, HookLastSlice)
		}
		return nil
	}
	if err := w.flushBounded(ctx, Terminal); err != nil {
		return err
	}
	if w.cfg.Hook != nil {
		return w.cfg.Hook.Run(ctx, filepath.Dir(w.cfg.Basename), w.cfg.Basename, w.cfg.Ext, w.n, w.cfg.MinDigits, HookLastSlice)
	}
	return nil
}

// LogicalSize returns the number of payload bytes written to the
// archive so far (not counting slice header overhead).
func (w *Writer) LogicalSize() int64 { return w.logicalSize }
