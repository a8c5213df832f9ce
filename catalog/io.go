// Catalogue dump/load: depth-first pre-order traversal with a sentinel
// "end-of-directory" marker after each directory's children, followed by a
// trailing CRC-32 of the whole catalogue body so that Load can detect
// corruption (a CRC mismatch on the catalogue tail is a surfaced,
// non-fatal-to-the-archive error). The dump/scan-by-discriminator-byte
// shape follows recordio's writerv2.go/scannerv2.go, narrowed to dar's
// fixed tree shape instead of a generic append-only record stream.
package catalog

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/dar-go/dar/bigint"
	"github.com/dar-go/dar/dartime"
	"github.com/dar-go/dar/dcrc"
	"github.com/dar-go/dar/derr"
)

const sentinelEndOfDir = 0x00

// crcWriter tees every byte written through it into a running CRC, so Dump
// can compute the trailer without a second pass.
type crcWriter struct {
	w   io.Writer
	crc dcrc.CRC
}

func (c *crcWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.crc = c.crc.Update(p[:n])
	return n, err
}

// Dump writes c in depth-first pre-order to w, followed by a trailing
// CRC-32 of the body.
func Dump(w io.Writer, c *Catalog) error {
	cw := &crcWriter{w: w}
	if err := dumpDir(cw, c.Root); err != nil {
		return err
	}
	_, err := cw.w.Write(cw.crc.Bytes())
	return err
}

func dumpDir(w *crcWriter, dir *Entry) error {
	// The root directory itself has no header record (it is implicit);
	// only its children, and the trailing sentinel, are written.
	for _, child := range dir.Children {
		if err := dumpEntry(w, child); err != nil {
			return err
		}
	}
	_, err := w.Write([]byte{sentinelEndOfDir})
	return err
}

func dumpEntry(w *crcWriter, e *Entry) error {
	if _, err := w.Write([]byte{byte(e.Kind)}); err != nil {
		return err
	}
	if err := writeString(w, e.Name); err != nil {
		return err
	}
	if e.Kind != KindHardLinkAlias && e.Kind != KindTombstone {
		if err := writeInodeAttrs(w, e.InodeAttrs); err != nil {
			return err
		}
	}
	switch e.Kind {
	case KindDirectory:
		return dumpDir(w, e)
	case KindFile:
		return dumpFile(w, e)
	case KindSymlink:
		return writeString(w, e.LinkTarget)
	case KindCharDevice, KindBlockDevice:
		return writeUint32Pair(w, e.Major, e.Minor)
	case KindPipe, KindSocket:
		return nil
	case KindHardLinkAlias:
		return bigint.Dump(w, bigint.FromUint64(e.AliasOf))
	case KindTombstone:
		return writeDate(w, e.DeletedAt)
	default:
		return derr.E(derr.Bug, "catalog: dumpEntry: unknown kind")
	}
}

func dumpFile(w *crcWriter, e *Entry) error {
	if err := bigint.Dump(w, e.Size); err != nil {
		return err
	}
	if err := bigint.Dump(w, e.Offset); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(e.Compression), byte(e.SavedState)}); err != nil {
		return err
	}
	var flags byte
	if e.DataCRC != nil {
		flags |= 1
	}
	if e.PatchBaseCRC != nil {
		flags |= 2
	}
	if e.PatchResultCRC != nil {
		flags |= 4
	}
	if _, err := w.Write([]byte{flags}); err != nil {
		return err
	}
	for _, crcp := range []*dcrc.CRC{e.DataCRC, e.PatchBaseCRC, e.PatchResultCRC} {
		if crcp != nil {
			if _, err := w.Write(crcp.Bytes()); err != nil {
				return err
			}
		}
	}
	if err := bigint.Dump(w, bigint.FromUint64(e.EthernetID)); err != nil {
		return err
	}
	if err := bigint.Dump(w, bigint.FromUint64(uint64(len(e.Holes)))); err != nil {
		return err
	}
	for _, h := range e.Holes {
		if err := bigint.Dump(w, h.Offset); err != nil {
			return err
		}
		if err := bigint.Dump(w, h.Length); err != nil {
			return err
		}
	}
	return nil
}

func writeInodeAttrs(w *crcWriter, a InodeAttrs) error {
	if err := writeString(w, a.Owner); err != nil {
		return err
	}
	if err := writeString(w, a.Group); err != nil {
		return err
	}
	var modeBuf [4]byte
	binary.BigEndian.PutUint32(modeBuf[:], a.Mode)
	if _, err := w.Write(modeBuf[:]); err != nil {
		return err
	}
	for _, d := range []dartime.Date{a.Atime, a.Mtime, a.Ctime} {
		if err := writeDate(w, d); err != nil {
			return err
		}
	}
	if err := writeEASet(w, a.EA); err != nil {
		return err
	}
	return writeFSASet(w, a.FSA)
}

func writeDate(w *crcWriter, d dartime.Date) error {
	if _, err := w.Write([]byte{byte(d.Unit)}); err != nil {
		return err
	}
	if err := bigint.Dump(w, bigint.FromInt64(d.Seconds)); err != nil {
		return err
	}
	return bigint.Dump(w, bigint.FromInt64(d.Frac))
}

func writeEASet(w *crcWriter, s EASet) error {
	if _, err := w.Write([]byte{byte(s.State)}); err != nil {
		return err
	}
	if err := bigint.Dump(w, bigint.FromUint64(uint64(len(s.Entries)))); err != nil {
		return err
	}
	for _, ea := range s.Entries {
		if err := writeString(w, ea.Name); err != nil {
			return err
		}
		if err := writeBytes(w, ea.Value); err != nil {
			return err
		}
	}
	return nil
}

func writeFSASet(w *crcWriter, s FSASet) error {
	if err := bigint.Dump(w, bigint.FromUint64(uint64(len(s.Scope)))); err != nil {
		return err
	}
	for _, f := range s.Scope {
		if _, err := w.Write([]byte{byte(f)}); err != nil {
			return err
		}
	}
	if err := bigint.Dump(w, bigint.FromUint64(uint64(len(s.Entries)))); err != nil {
		return err
	}
	for _, fsa := range s.Entries {
		if _, err := w.Write([]byte{byte(fsa.Family)}); err != nil {
			return err
		}
		if err := writeBytes(w, fsa.Data); err != nil {
			return err
		}
	}
	return nil
}

func writeString(w *crcWriter, s string) error {
	return writeBytes(w, []byte(s))
}

func writeBytes(w *crcWriter, b []byte) error {
	if err := bigint.Dump(w, bigint.FromUint64(uint64(len(b)))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func writeUint32Pair(w *crcWriter, a, b uint32) error {
	var buf [8]byte
	binary.BigEndian.PutUint32(buf[0:4], a)
	binary.BigEndian.PutUint32(buf[4:8], b)
	_, err := w.Write(buf[:])
	return err
}

// ---- Load ----

type crcReader struct {
	r   *bufio.Reader
	crc dcrc.CRC
}

func (c *crcReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.crc = c.crc.Update([]byte{b})
	}
	return b, err
}

func (c *crcReader) Read(p []byte) (int, error) {
	n, err := io.ReadFull(c.r, p)
	if n > 0 {
		c.crc = c.crc.Update(p[:n])
	}
	return n, err
}

// Load reconstructs a Catalog from r, verifying the trailing CRC and
// resolving every hard-link alias's id so that dump(Load(x)) reproduces x.
func Load(r *bufio.Reader) (*Catalog, error) {
	cr := &crcReader{r: r}
	c := New()
	if err := loadDir(cr, c, c.Root); err != nil {
		return nil, err
	}
	var tail [4]byte
	if _, err := io.ReadFull(r, tail[:]); err != nil {
		return nil, derr.E(derr.Data, "catalog: short read of trailing CRC", err)
	}
	got, err := dcrc.FromBytes(tail[:], cr.crc.Size())
	if err != nil {
		return nil, err
	}
	if !got.Equal(cr.crc) {
		return nil, derr.E(derr.Data, "catalog: CRC mismatch on catalogue tail")
	}
	if err := resolveAliases(c, c.Root); err != nil {
		return nil, err
	}
	return c, nil
}

func loadDir(r *crcReader, c *Catalog, dir *Entry) error {
	for {
		tag, err := r.ReadByte()
		if err != nil {
			return derr.E(derr.Data, "catalog: short read of entry tag", err)
		}
		if tag == sentinelEndOfDir {
			return nil
		}
		child, err := loadEntry(r, c, Kind(tag))
		if err != nil {
			return err
		}
		if addErr := dir.AddChild(child); addErr != nil {
			return addErr
		}
	}
}

func loadEntry(r *crcReader, c *Catalog, kind Kind) (*Entry, error) {
	name, err := readString(r)
	if err != nil {
		return nil, err
	}
	e := &Entry{Kind: kind, Name: name}
	if kind != KindHardLinkAlias && kind != KindTombstone {
		if e.InodeAttrs, err = readInodeAttrs(r); err != nil {
			return nil, err
		}
	}
	switch kind {
	case KindDirectory:
		if err := loadDir(r, c, e); err != nil {
			return nil, err
		}
	case KindFile:
		if err := loadFile(r, e); err != nil {
			return nil, err
		}
		c.noteInode(e)
	case KindSymlink:
		if e.LinkTarget, err = readString(r); err != nil {
			return nil, err
		}
	case KindCharDevice, KindBlockDevice:
		if e.Major, e.Minor, err = readUint32Pair(r); err != nil {
			return nil, err
		}
	case KindPipe, KindSocket:
	case KindHardLinkAlias:
		id, err := bigint.Load(r)
		if err != nil {
			return nil, err
		}
		e.AliasOf = id.Uint64()
	case KindTombstone:
		if e.DeletedAt, err = readDate(r); err != nil {
			return nil, err
		}
	default:
		return nil, derr.E(derr.Data, "catalog: unknown entry kind tag")
	}
	return e, nil
}

func loadFile(r *crcReader, e *Entry) error {
	size, err := bigint.Load(r)
	if err != nil {
		return err
	}
	e.Size = size
	offset, err := bigint.Load(r)
	if err != nil {
		return err
	}
	e.Offset = offset
	var kinds [2]byte
	if _, err := io.ReadFull(r, kinds[:]); err != nil {
		return derr.E(derr.Data, "catalog: short read of file kind bytes", err)
	}
	e.Compression = CompressionState(kinds[0])
	e.SavedState = SavedState(kinds[1])
	flags, err := r.ReadByte()
	if err != nil {
		return derr.E(derr.Data, "catalog: short read of file flags", err)
	}
	for i, bit := range []byte{1, 2, 4} {
		if flags&bit == 0 {
			continue
		}
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return derr.E(derr.Data, "catalog: short read of crc", err)
		}
		crc, err := dcrc.FromBytes(buf[:], int64(e.Size.Uint64()))
		if err != nil {
			return err
		}
		switch i {
		case 0:
			e.DataCRC = &crc
		case 1:
			e.PatchBaseCRC = &crc
		case 2:
			e.PatchResultCRC = &crc
		}
	}
	id, err := bigint.Load(r)
	if err != nil {
		return err
	}
	e.EthernetID = id.Uint64()
	n, err := bigint.Load(r)
	if err != nil {
		return err
	}
	e.Holes = make([]Hole, n.Uint64())
	for i := range e.Holes {
		off, err := bigint.Load(r)
		if err != nil {
			return err
		}
		length, err := bigint.Load(r)
		if err != nil {
			return err
		}
		e.Holes[i] = Hole{Offset: off, Length: length}
	}
	return nil
}

func readInodeAttrs(r *crcReader) (InodeAttrs, error) {
	var a InodeAttrs
	var err error
	if a.Owner, err = readString(r); err != nil {
		return a, err
	}
	if a.Group, err = readString(r); err != nil {
		return a, err
	}
	var modeBuf [4]byte
	if _, err := io.ReadFull(r, modeBuf[:]); err != nil {
		return a, derr.E(derr.Data, "catalog: short read of mode", err)
	}
	a.Mode = binary.BigEndian.Uint32(modeBuf[:])
	if a.Atime, err = readDate(r); err != nil {
		return a, err
	}
	if a.Mtime, err = readDate(r); err != nil {
		return a, err
	}
	if a.Ctime, err = readDate(r); err != nil {
		return a, err
	}
	if a.EA, err = readEASet(r); err != nil {
		return a, err
	}
	if a.FSA, err = readFSASet(r); err != nil {
		return a, err
	}
	return a, nil
}

func readDate(r *crcReader) (dartime.Date, error) {
	unit, err := r.ReadByte()
	if err != nil {
		return dartime.Date{}, derr.E(derr.Data, "catalog: short read of date unit", err)
	}
	secI, err := bigint.Load(r)
	if err != nil {
		return dartime.Date{}, err
	}
	fracI, err := bigint.Load(r)
	if err != nil {
		return dartime.Date{}, err
	}
	return dartime.Date{Seconds: int64(secI.Uint64()), Frac: int64(fracI.Uint64()), Unit: dartime.Unit(unit)}, nil
}

func readEASet(r *crcReader) (EASet, error) {
	var s EASet
	state, err := r.ReadByte()
	if err != nil {
		return s, derr.E(derr.Data, "catalog: short read of EA state", err)
	}
	s.State = EAState(state)
	n, err := bigint.Load(r)
	if err != nil {
		return s, err
	}
	s.Entries = make([]EA, n.Uint64())
	for i := range s.Entries {
		name, err := readString(r)
		if err != nil {
			return s, err
		}
		value, err := readBytes(r)
		if err != nil {
			return s, err
		}
		s.Entries[i] = EA{Name: name, Value: value}
	}
	return s, nil
}

func readFSASet(r *crcReader) (FSASet, error) {
	var s FSASet
	n, err := bigint.Load(r)
	if err != nil {
		return s, err
	}
	s.Scope = make([]FSAFamily, n.Uint64())
	for i := range s.Scope {
		b, err := r.ReadByte()
		if err != nil {
			return s, derr.E(derr.Data, "catalog: short read of FSA scope", err)
		}
		s.Scope[i] = FSAFamily(b)
	}
	m, err := bigint.Load(r)
	if err != nil {
		return s, err
	}
	s.Entries = make([]FSA, m.Uint64())
	for i := range s.Entries {
		b, err := r.ReadByte()
		if err != nil {
			return s, derr.E(derr.Data, "catalog: short read of FSA family", err)
		}
		data, err := readBytes(r)
		if err != nil {
			return s, err
		}
		s.Entries[i] = FSA{Family: FSAFamily(b), Data: data}
	}
	return s, nil
}

func readString(r *crcReader) (string, error) {
	b, err := readBytes(r)
	return string(b), err
}

func readBytes(r *crcReader) ([]byte, error) {
	n, err := bigint.Load(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n.Uint64())
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, derr.E(derr.Data, "catalog: short read of byte string", err)
	}
	return buf, nil
}

func readUint32Pair(r *crcReader) (uint32, uint32, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, 0, derr.E(derr.Data, "catalog: short read of major/minor", err)
	}
	return binary.BigEndian.Uint32(buf[0:4]), binary.BigEndian.Uint32(buf[4:8]), nil
}

func resolveAliases(c *Catalog, dir *Entry) error {
	for _, child := range dir.Children {
		if child.Kind == KindHardLinkAlias {
			if _, err := c.ResolveAlias(child.AliasOf); err != nil {
				return err
			}
		}
		if child.Kind == KindDirectory {
			if err := resolveAliases(c, child); err != nil {
				return err
			}
		}
	}
	return nil
}
