package sar

import (
	"context"
	"io"
	"path/filepath"

	"github.com/dar-go/dar/derr"
	"github.com/dar-go/dar/fileio"
	"github.com/dar-go/dar/uiface"
)

// ReaderConfig configures a Reader, realizing §4.2's
// Open-for-read(basename, ext, exec_hook, min_digits) contract.
type ReaderConfig struct {
	Store      sliceStore
	Basename   string
	Ext        string
	MinDigits  int
	Hook       *Hook
	Interactor uiface.Interactor
	// Lax, when set, turns a missing or truncated slice into a run of
	// zero bytes of the expected length instead of a fatal error (§4.2
	// "Failure semantics").
	Lax bool
}

// Reader presents a single logical io.Reader over a sliceStore,
// transparently crossing slice boundaries and validating that every
// slice shares the first slice's Label (P2).
type Reader struct {
	cfg ReaderConfig

	label    Label
	haveLabel bool

	n        int
	cur      fileio.ReadCloser
	curName  string
	remaining int64 // payload bytes left in the current slice; -1 if unknown
	terminal bool

	logicalPos int64
	closed     bool
	eof        bool
}

// NewReader returns a Reader ready to read from slice 1 on first Read.
func NewReader(cfg ReaderConfig) (*Reader, error) {
	if cfg.MinDigits < 1 {
		cfg.MinDigits = 1
	}
	return &Reader{cfg: cfg}, nil
}

// Label returns the archive's label, valid only after the first Read
// call has opened slice 1.
func (r *Reader) Label() (Label, bool) { return r.label, r.haveLabel }

// Read implements io.Reader, crossing slice boundaries as needed and
// enforcing the shared-label invariant (P2).
func (r *Reader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, derr.E(derr.Bug, "sar: read after close")
	}
	if r.eof {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if r.cur == nil {
			if err := r.openSlice(context.Background(), r.n+1); err != nil {
				if holeErr, ok := r.asHole(err); ok {
					return r.readHole(p, holeErr)
				}
				return 0, err
			}
		}
		if r.remaining == 0 {
			if r.terminal {
				r.eof = true
				return 0, io.EOF
			}
			if err := r.closeCurrent(); err != nil {
				return 0, err
			}
			continue
		}
		want := len(p)
		if r.remaining > 0 && int64(want) > r.remaining {
			want = int(r.remaining)
		}
		n, err := r.cur.Read(p[:want])
		if n > 0 {
			if r.remaining > 0 {
				r.remaining -= int64(n)
			}
			r.logicalPos += int64(n)
			return n, nil
		}
		if err == nil {
			continue
		}
		if err == io.EOF {
			if r.remaining > 0 {
				// Truncated slice: short by a known amount.
				if r.cfg.Lax {
					return r.readHole(p, r.remaining)
				}
				return 0, derr.E(derr.Data, io.ErrUnexpectedEOF, "sar: truncated slice "+r.curName)
			}
			// remaining < 0: size was unknown (e.g. a pipe); the
			// underlying stream's own EOF marks this slice's end.
			r.remaining = 0
			continue
		}
		return 0, derr.E(derr.Hardware, err, "sar: read slice "+r.curName)
	}
}

// asHole reports whether err is a SliceMissing error for the slice the
// reader was about to open, returning the hole's expected size — which
// is unknown for a missing slice, so callers in lax mode fall back to
// an unbounded hole that ends on the next successful slice open.
func (r *Reader) asHole(err error) (int64, bool) {
	if !r.cfg.Lax {
		return 0, false
	}
	if _, ok := MissingSliceNumber(err); ok {
		return -1, true
	}
	return 0, false
}

// readHole serves size bytes of zeros (or, when size < 0, fills p once
// and keeps the reader positioned to retry the next slice on the
// following call).
func (r *Reader) readHole(p []byte, size int64) (int, error) {
	n := len(p)
	if size >= 0 && int64(n) > size {
		n = int(size)
	}
	for i := 0; i < n; i++ {
		p[i] = 0
	}
	if size >= 0 {
		r.remaining = size - int64(n)
	}
	r.logicalPos += int64(n)
	return n, nil
}

// openSlice opens slice n, running the inter-slice hook first ("The
// same hook fires on read before opening each slice"), validating its
// header and the shared-label invariant.
func (r *Reader) openSlice(ctx context.Context, n int) error {
	if r.cfg.Hook != nil {
		tag := HookOperation
		if n == 1 {
			tag = HookInit
		}
		if err := r.cfg.Hook.Run(ctx, filepath.Dir(r.cfg.Basename), r.cfg.Basename, r.cfg.Ext, n, r.cfg.MinDigits, tag); err != nil {
			return err
		}
	}
	rc, name, err := r.cfg.Store.open(ctx, n)
	if err != nil {
		return err
	}
	cr := &countingReader{r: rc}
	hdr, err := decodeHeader(cr)
	if err != nil {
		rc.Close()
		return err
	}
	if r.haveLabel && hdr.Label != r.label {
		rc.Close()
		return derr.E(derr.Data, "sar: slice "+name+" carries a foreign label")
	}
	r.label = hdr.Label
	r.haveLabel = true
	r.n = n
	r.cur = rc
	r.curName = name
	r.terminal = hdr.Flag == Terminal

	switch hdr.Extension {
	case SizeExtension:
		r.remaining = int64(hdr.Size.Uint64())
	default:
		if total, known, serr := r.cfg.Store.size(ctx, n); serr == nil && known {
			r.remaining = total - cr.n
		} else {
			r.remaining = -1
		}
	}
	return nil
}

func (r *Reader) closeCurrent() error {
	err := r.cur.Close()
	r.cur = nil
	if err != nil {
		return derr.E(derr.Hardware, err, "sar: close slice "+r.curName)
	}
	return nil
}

// Close releases the currently open slice, if any.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.cur == nil {
		return nil
	}
	return r.closeCurrent()
}

// LogicalPos returns the number of payload bytes delivered so far.
func (r *Reader) LogicalPos() int64 { return r.logicalPos }
