package sar

import (
	"bytes"
	"context"
	"io"

	"github.com/dar-go/dar/derr"
)

// SliceNumber returns the slice currently being read, 0 before the
// first Read call.
func (r *Reader) SliceNumber() int { return r.n }

// Truncate shortens the archive at store to exactly offset logical
// payload bytes, removing every trailing slice and rewriting the last
// retained slice with its payload cut to size and its flag forced to
// Terminal. It realizes §4.2's truncate(offset) operation, discarding a
// damaged or unwanted tail without rewriting the whole archive from
// slice 1. None of archive's operations call it.
func Truncate(ctx context.Context, store sliceStore, basename, ext string, minDigits int, offset int64) error {
	if offset < 0 {
		return derr.E(derr.Range, "sar: truncate offset must be >= 0")
	}
	rd, err := NewReader(ReaderConfig{Store: store, Basename: basename, Ext: ext, MinDigits: minDigits})
	if err != nil {
		return err
	}
	if err := rd.openSlice(ctx, 1); err != nil {
		return err
	}

	var kept bytes.Buffer
	lastN := 0
	buf := make([]byte, 64*1024)
	for rd.LogicalPos() < offset {
		want := int(offset - rd.LogicalPos())
		if want > len(buf) {
			want = len(buf)
		}
		n, rerr := rd.Read(buf[:want])
		if rd.SliceNumber() != lastN {
			kept.Reset()
			lastN = rd.SliceNumber()
		}
		if n > 0 {
			kept.Write(buf[:n])
		}
		if rerr != nil {
			rd.Close()
			if rerr == io.EOF {
				return derr.E(derr.Range, "sar: truncate offset beyond archive end")
			}
			return rerr
		}
	}
	lastSlice := rd.SliceNumber()
	if lastSlice == 0 {
		lastSlice = 1
	}
	label, _ := rd.Label()
	if err := rd.Close(); err != nil {
		return err
	}

	for n := lastSlice + 1; ; n++ {
		if _, known, _ := store.size(ctx, n); !known {
			break
		}
		if err := store.remove(ctx, n); err != nil {
			return err
		}
	}

	wc, name, err := store.create(ctx, lastSlice)
	if err != nil {
		return err
	}
	hdr := Header{Label: label, Flag: Terminal, Extension: NoExtension}
	if err := hdr.encode(wc); err != nil {
		return err
	}
	if _, err := wc.Write(kept.Bytes()); err != nil {
		return derr.E(derr.Hardware, err, "sar: write truncated slice "+name)
	}
	if err := wc.Close(); err != nil {
		return derr.E(derr.Hardware, err, "sar: close truncated slice "+name)
	}
	return nil
}
