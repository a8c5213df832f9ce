package sar

import (
	"context"
	"io"

	"github.com/dar-go/dar/derr"
	"github.com/dar-go/dar/fileio"
)

// PipeStore is the trivial SAR backend (§4.2 "Trivial SAR"): a single,
// already-open, non-seekable stream such as a pipe or stdout/stdin.
// cmd/dar does not construct one; it always uses FileSliceStore. It never
// splits: the logical stream is the slice.
type PipeStore struct {
	W io.WriteCloser
	R io.ReadCloser
	// Name is used for hook macro substitution and hash side-file
	// naming; it has no filesystem meaning for a pipe.
	Name string

	opened bool
}

var _ sliceStore = (*PipeStore)(nil)

func (s *PipeStore) create(ctx context.Context, n int) (fileio.WriteCloser, string, error) {
	if n != 1 || s.opened {
		return nil, "", SliceMissing(n, nil)
	}
	s.opened = true
	return &namedWriteCloser{WriteCloser: s.W, name: s.Name}, s.Name, nil
}

func (s *PipeStore) open(ctx context.Context, n int) (fileio.ReadCloser, string, error) {
	if n != 1 || s.opened {
		return nil, "", SliceMissing(n, nil)
	}
	s.opened = true
	return &namedReadCloser{ReadCloser: s.R, name: s.Name}, s.Name, nil
}

func (s *PipeStore) remove(ctx context.Context, n int) error { return nil }

func (s *PipeStore) single() bool { return true }

func (s *PipeStore) createSidecar(ctx context.Context, sliceName, algo string) (io.WriteCloser, error) {
	return nil, derr.E(derr.Feature, "sar: pipe mode does not support hash side-files")
}

// size implements sliceStore: a pipe's length is never knowable up
// front.
func (s *PipeStore) size(ctx context.Context, n int) (int64, bool, error) {
	return 0, false, nil
}
