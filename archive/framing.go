package archive

import (
	"bufio"
	"io"

	"github.com/dar-go/dar/bigint"
	"github.com/dar-go/dar/derr"
)

// writeFramed writes payload to w preceded by its length, encoded with
// bigint's unbounded-integer encoding (spec.md §6's "Unbounded-integer
// encoding", the same scheme sar's slice header uses for its optional
// size extension). A catalogue entry's Compression/data-CRC fields
// describe what the payload *is*; nothing in the entry model says how
// many physical bytes it occupies once compressed and/or encrypted, so
// this length prefix is what lets restore find the next file's frame in
// the shared SAR byte stream.
func writeFramed(w io.Writer, payload []byte) error {
	if err := bigint.Dump(w, bigint.FromInt64(int64(len(payload)))); err != nil {
		return derr.E(derr.Hardware, err, "archive: write frame length")
	}
	if _, err := w.Write(payload); err != nil {
		return derr.E(derr.Hardware, err, "archive: write frame payload")
	}
	return nil
}

// readFramed reads one writeFramed-produced frame from r.
func readFramed(r *bufio.Reader) ([]byte, error) {
	n, err := bigint.Load(r)
	if err != nil {
		return nil, derr.E(derr.Data, err, "archive: read frame length")
	}
	buf := make([]byte, int64(n.Uint64()))
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, derr.E(derr.Data, err, "archive: read frame payload")
	}
	return buf, nil
}
