package archive

import (
	"bufio"
	"context"
	"io"

	"github.com/dar-go/dar/catalog"
	"github.com/dar-go/dar/derr"
	"github.com/dar-go/dar/file"
)

// Meta is the small sidecar record cmd/dar writes next to an archive's
// sliced data: the pipeline settings needed to read that data back, plus
// the catalogue itself. Splitting metadata into its own file sidesteps a
// problem the original dar solves with a seekable store: the catalogue
// isn't known complete until every file has been walked and written, so a
// single forward-only SAR stream can't prepend it, and this implementation
// builds no seek-based store variant to let it be appended-then-pointed-to
// instead. A create operation that never reaches SaveMeta therefore still
// leaves a readable, if headless, set of slice files behind, and a
// metadata file's mere presence certifies the archive it describes is
// complete.
type Meta struct {
	Compressor     Codec
	CipherRegistry string
	CipherID       []byte
}

// MetaName is the sidecar metadata file's name for an archive basename.
func MetaName(basename string) string { return basename + ".cat" }

// SaveMeta writes meta and cat to path, in that order.
func SaveMeta(ctx context.Context, path string, meta Meta, cat *catalog.Catalog) error {
	f, err := file.Create(ctx, path)
	if err != nil {
		return derr.E(derr.Hardware, err, "archive: create metadata "+path)
	}
	w := f.Writer(ctx)
	if err := writeMetaHeader(w, meta); err != nil {
		f.Discard(ctx)
		return err
	}
	if err := catalog.Dump(w, cat); err != nil {
		f.Discard(ctx)
		return derr.E(derr.Data, err, "archive: dump catalogue to "+path)
	}
	if err := f.Close(ctx); err != nil {
		return derr.E(derr.Hardware, err, "archive: close metadata "+path)
	}
	return nil
}

// LoadMeta reads a Meta and Catalog previously written by SaveMeta.
func LoadMeta(ctx context.Context, path string) (Meta, *catalog.Catalog, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return Meta{}, nil, derr.E(derr.Hardware, err, "archive: open metadata "+path)
	}
	defer f.Close(ctx)
	br := bufio.NewReader(f.Reader(ctx))
	meta, err := readMetaHeader(br)
	if err != nil {
		return Meta{}, nil, err
	}
	cat, err := catalog.Load(br)
	if err != nil {
		return Meta{}, nil, derr.E(derr.Data, err, "archive: load catalogue from "+path)
	}
	return meta, cat, nil
}

func writeMetaHeader(w io.Writer, meta Meta) error {
	if err := writeFramed(w, []byte(meta.Compressor)); err != nil {
		return err
	}
	if err := writeFramed(w, []byte(meta.CipherRegistry)); err != nil {
		return err
	}
	return writeFramed(w, meta.CipherID)
}

func readMetaHeader(r *bufio.Reader) (Meta, error) {
	compressor, err := readFramed(r)
	if err != nil {
		return Meta{}, err
	}
	registry, err := readFramed(r)
	if err != nil {
		return Meta{}, err
	}
	id, err := readFramed(r)
	if err != nil {
		return Meta{}, err
	}
	return Meta{Compressor: Codec(compressor), CipherRegistry: string(registry), CipherID: id}, nil
}
