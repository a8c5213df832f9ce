package sar

import (
	"context"
	"io"

	"github.com/dar-go/dar/derr"
	"github.com/dar-go/dar/file"
	"github.com/dar-go/dar/fileio"
)

// FileSliceStore is the real, os-file-backed sliceStore: each slice is an
// independent file named by SliceName, opened through file.Create/
// file.Open (file/localfile.go) rather than os directly, so sar inherits
// dar's uniform file abstraction (context-scoped, scheme-pluggable).
type FileSliceStore struct {
	Basename  string
	Ext       string
	MinDigits int
}

var _ sliceStore = (*FileSliceStore)(nil)

func (s *FileSliceStore) name(n int) string {
	return SliceName(s.Basename, s.Ext, n, s.MinDigits)
}

// create implements sliceStore.
func (s *FileSliceStore) create(ctx context.Context, n int) (fileio.WriteCloser, string, error) {
	name := s.name(n)
	f, err := file.Create(ctx, name)
	if err != nil {
		return nil, "", derr.E(derr.Hardware, err, "sar: create slice "+name)
	}
	return &namedWriteCloser{WriteCloser: writerCloser{f}, name: name}, name, nil
}

// open implements sliceStore.
func (s *FileSliceStore) open(ctx context.Context, n int) (fileio.ReadCloser, string, error) {
	name := s.name(n)
	f, err := file.Open(ctx, name)
	if err != nil {
		return nil, "", SliceMissing(n, err)
	}
	return &namedReadCloser{ReadCloser: &readerCloser{ctx: ctx, f: f}, name: name}, name, nil
}

// remove implements sliceStore.
func (s *FileSliceStore) remove(ctx context.Context, n int) error {
	name := s.name(n)
	if err := file.Remove(ctx, name); err != nil {
		return derr.E(derr.Hardware, err, "sar: remove slice "+name)
	}
	return nil
}

// single implements sliceStore: FileSliceStore always supports multiple
// slices.
func (s *FileSliceStore) single() bool { return false }

// size implements sliceStore via file.Stat.
func (s *FileSliceStore) size(ctx context.Context, n int) (int64, bool, error) {
	name := s.name(n)
	info, err := file.Stat(ctx, name)
	if err != nil {
		return 0, false, SliceMissing(n, err)
	}
	return info.Size(), true, nil
}

// createSidecar implements sliceStore.
func (s *FileSliceStore) createSidecar(ctx context.Context, sliceName, algo string) (io.WriteCloser, error) {
	name := HashSidecarName(sliceName, algo)
	f, err := file.Create(ctx, name)
	if err != nil {
		return nil, derr.E(derr.Hardware, err, "sar: create hash side-file "+name)
	}
	return writerCloser{f}, nil
}

// writerCloser adapts a file.File opened for write into an io.WriteCloser
// bound to a fixed context, since sar's Writer interface has no
// per-write context of its own.
type writerCloser struct{ f file.File }

func (w writerCloser) Write(p []byte) (int, error) {
	n, err := w.f.Writer(context.Background()).Write(p)
	return n, err
}

func (w writerCloser) Close() error {
	return w.f.Close(context.Background())
}

// readerCloser adapts a file.File opened for read into an
// io.ReadCloser.
type readerCloser struct {
	ctx context.Context
	f   file.File
	r   interface {
		Read([]byte) (int, error)
	}
}

func (r *readerCloser) Read(p []byte) (int, error) {
	if r.r == nil {
		r.r = r.f.Reader(r.ctx)
	}
	return r.r.Read(p)
}

func (r *readerCloser) Close() error {
	return r.f.Close(r.ctx)
}
