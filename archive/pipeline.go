package archive

import (
	"bytes"
	"io"

	"github.com/dar-go/dar/compress"
	"github.com/dar-go/dar/derr"
)

// Pipeline is the per-file data path create/restore/merge drive a file's
// payload through: (compress | pass-through) then (encrypt |
// pass-through), mirroring spec.md §4.7's create pipeline shape. Because
// catalog.CompressionState only records whether compression was used, not
// which codec, one archive uses exactly one Codec throughout (set on
// Pipeline, not per file).
type Pipeline struct {
	Compressor Codec
	Cipher     Cipher
}

// Encode compresses dense (when the caller has already decided to, via
// dconfig.Options.ShouldCompress) and then encrypts it, returning the
// bytes to place in the archive's data section.
func (p Pipeline) Encode(dense []byte, compress bool) (stored []byte, compressed bool, err error) {
	payload := dense
	if compress && p.Compressor != CodecNone {
		payload, err = p.compress(dense)
		if err != nil {
			return nil, false, err
		}
		compressed = true
	}
	if p.Cipher.Enabled() {
		payload, err = p.Cipher.Seal(payload)
		if err != nil {
			return nil, false, err
		}
	}
	return payload, compressed, nil
}

// Decode reverses Encode: decrypt (if the pipeline has a cipher
// configured) then decompress (if the entry says compression was used).
func (p Pipeline) Decode(stored []byte, compressed bool) ([]byte, error) {
	payload := stored
	var err error
	if p.Cipher.Enabled() {
		payload, err = p.Cipher.Open(payload)
		if err != nil {
			return nil, err
		}
	}
	if compressed {
		payload, err = p.decompress(payload)
		if err != nil {
			return nil, err
		}
	}
	return payload, nil
}

func (p Pipeline) compress(dense []byte) ([]byte, error) {
	var buf bytes.Buffer
	wc, ok := compress.NewWriterPath(&buf, "payload"+p.Compressor.extension())
	if !ok {
		return nil, derr.E(derr.Feature, "archive: unsupported compressor "+string(p.Compressor))
	}
	if _, err := wc.Write(dense); err != nil {
		return nil, derr.E(derr.Data, err, "archive: compress")
	}
	if err := wc.Close(); err != nil {
		return nil, derr.E(derr.Data, err, "archive: compress")
	}
	return buf.Bytes(), nil
}

func (p Pipeline) decompress(stored []byte) ([]byte, error) {
	rc, ok := compress.NewReaderPath(bytes.NewReader(stored), "payload"+p.Compressor.extension())
	if !ok {
		return nil, derr.E(derr.Feature, "archive: unsupported compressor "+string(p.Compressor))
	}
	defer rc.Close()
	dense, err := io.ReadAll(rc)
	if err != nil {
		return nil, derr.E(derr.Data, err, "archive: decompress")
	}
	return dense, nil
}
