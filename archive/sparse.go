package archive

import (
	"github.com/dar-go/dar/bigint"
	"github.com/dar-go/dar/bitset"
	"github.com/dar-go/dar/catalog"
)

// sparseBlock is the granularity at which a file's zero runs are
// considered for hole elision; matches the common filesystem block size,
// so detected holes line up with what truncate-then-seek can actually
// skip on restore.
const sparseBlock = 512

// findHoles scans data in sparseBlock-sized chunks, marking all-zero
// blocks in a bitset so that NonzeroWordScanner-style adjacency (here
// done directly via Test, since one file rarely spans enough blocks to
// need the word-scan fast path) finds maximal zero runs, then keeps the
// ones at least minSize bytes long. It returns holes in ascending
// offset order.
func findHoles(data []byte, minSize int64) []catalog.Hole {
	if minSize <= 0 || len(data) == 0 {
		return nil
	}
	nBlocks := (len(data) + sparseBlock - 1) / sparseBlock
	zero := bitset.NewClearBits(nBlocks)
	for i := 0; i < nBlocks; i++ {
		start := i * sparseBlock
		end := start + sparseBlock
		if end > len(data) {
			end = len(data)
		}
		if isAllZero(data[start:end]) {
			bitset.Set(zero, i)
		}
	}
	var holes []catalog.Hole
	i := 0
	for i < nBlocks {
		if !bitset.Test(zero, i) {
			i++
			continue
		}
		j := i
		for j < nBlocks && bitset.Test(zero, j) {
			j++
		}
		start := int64(i) * sparseBlock
		end := int64(j) * sparseBlock
		if int64(len(data)) < end {
			end = int64(len(data))
		}
		if length := end - start; length >= minSize {
			holes = append(holes, catalog.Hole{
				Offset: bigint.FromInt64(start),
				Length: bigint.FromInt64(length),
			})
		}
		i = j
	}
	return holes
}

func isAllZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// elideHoles returns data with every byte range named by holes removed,
// the dense stream that is actually compressed/encrypted/stored.
func elideHoles(data []byte, holes []catalog.Hole) []byte {
	if len(holes) == 0 {
		return data
	}
	dense := make([]byte, 0, len(data))
	pos := int64(0)
	for _, h := range holes {
		start := h.Offset.Uint64()
		if int64(start) > pos {
			dense = append(dense, data[pos:int64(start)]...)
		}
		pos = int64(start) + int64(h.Length.Uint64())
	}
	if pos < int64(len(data)) {
		dense = append(dense, data[pos:]...)
	}
	return dense
}

// reinflateHoles is elideHoles's inverse: it reinserts zero runs at the
// offsets/lengths holes names, reconstructing the original byte stream
// from its dense (hole-elided) form and the entry's recorded total size.
func reinflateHoles(dense []byte, holes []catalog.Hole, totalSize int64) []byte {
	if len(holes) == 0 {
		return dense
	}
	out := make([]byte, totalSize)
	src := 0
	pos := int64(0)
	for _, h := range holes {
		start := int64(h.Offset.Uint64())
		length := int64(h.Length.Uint64())
		if start > pos {
			n := copy(out[pos:start], dense[src:])
			src += n
			pos = start
		}
		pos = start + length // hole region stays zero
	}
	if pos < totalSize {
		copy(out[pos:], dense[src:])
	}
	return out
}
