package dardb

import (
	"bufio"
	"encoding/binary"
	"io"
	"sort"

	"github.com/dar-go/dar/bigint"
	"github.com/dar-go/dar/dartime"
	"github.com/dar-go/dar/dcrc"
	"github.com/dar-go/dar/derr"
)

// On-disk shape mirrors catalog/io.go's idiom (crcWriter/crcReader tee
// into a running CRC-32, bigint-length-prefixed strings, a sentinel
// end-of-children byte), split into two independently-CRC'd sections so
// a partial load can keep the tree section as an opaque, verbatim blob
// (spec.md §4.8's "Partial load").
const (
	formatVersion      = 1
	sentinelEndOfNodes = 0x00
	nodeTagDir         = 0x01
	nodeTagLeaf        = 0x02
)

type crcWriter struct {
	w   io.Writer
	crc dcrc.CRC
}

func (c *crcWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.crc = c.crc.Update(p[:n])
	return n, err
}

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

// LoadOptions controls how much of a serialized database Load reads.
type LoadOptions struct {
	// Partial loads the header and archive list only; the tree section
	// is retained verbatim (unparsed) so Dump can re-emit it unchanged
	// after a metadata-only edit (rename_archive, set_path, set_options).
	Partial bool
	// ReadOnly additionally skips retaining the tree bytes at all,
	// suitable only for listing the archive list (Dump will fail).
	ReadOnly bool
}

// Dump serializes db: header section (archive list, options, dar path,
// compression settings), then the tree section — either freshly encoded
// from db's in-memory tree, or, for a partially-loaded database, the
// verbatim bytes retained at Load time.
func Dump(w io.Writer, db *DB) error {
	if err := dumpHeader(w, db); err != nil {
		return err
	}
	switch {
	case db.root != nil:
		return dumpTree(w, db.root)
	case db.rawTree != nil:
		_, err := w.Write(db.rawTree)
		return err
	default:
		return derr.E(derr.Bug, "dardb: dump: no tree available (read-only partial load)")
	}
}

func dumpHeader(w io.Writer, db *DB) error {
	cw := &crcWriter{w: w}
	if _, err := cw.Write([]byte{formatVersion}); err != nil {
		return err
	}
	if err := bigint.Dump(cw, bigint.FromUint64(uint64(len(db.Archives)))); err != nil {
		return err
	}
	for _, a := range db.Archives {
		if err := writeString(cw, a.Path); err != nil {
			return err
		}
		if err := writeString(cw, a.Basename); err != nil {
			return err
		}
		if err := writeDate(cw, a.RootLastMod); err != nil {
			return err
		}
	}
	if err := writeString(cw, db.DarPath); err != nil {
		return err
	}
	if err := bigint.Dump(cw, bigint.FromUint64(uint64(len(db.Options)))); err != nil {
		return err
	}
	for _, o := range db.Options {
		if err := writeString(cw, o); err != nil {
			return err
		}
	}
	checkOrder := byte(0)
	if db.CheckOrderAsked {
		checkOrder = 1
	}
	if _, err := cw.Write([]byte{checkOrder}); err != nil {
		return err
	}
	if err := writeString(cw, db.Compression); err != nil {
		return err
	}
	if err := bigint.Dump(cw, bigint.FromUint64(uint64(db.CompressionLevel))); err != nil {
		return err
	}
	_, err := cw.w.Write(cw.crc.Bytes())
	return err
}

func dumpTree(w io.Writer, root *node) error {
	cw := &crcWriter{w: w}
	if err := dumpChildren(cw, root); err != nil {
		return err
	}
	_, err := cw.w.Write(cw.crc.Bytes())
	return err
}

func dumpChildren(w *crcWriter, n *node) error {
	for _, c := range n.Children {
		if err := dumpNode(w, c); err != nil {
			return err
		}
	}
	_, err := w.Write([]byte{sentinelEndOfNodes})
	return err
}

func dumpNode(w *crcWriter, n *node) error {
	tag := byte(nodeTagLeaf)
	if n.isDir() {
		tag = nodeTagDir
	}
	if _, err := w.Write([]byte{tag}); err != nil {
		return err
	}
	if err := writeString(w, n.Name); err != nil {
		return err
	}
	if err := dumpRecords(w, n.lastMod); err != nil {
		return err
	}
	if err := dumpRecords(w, n.lastChange); err != nil {
		return err
	}
	if n.isDir() {
		return dumpChildren(w, n)
	}
	return nil
}

func dumpRecords(w *crcWriter, m map[ArchiveNum]record) error {
	nums := make([]ArchiveNum, 0, len(m))
	for num := range m {
		nums = append(nums, num)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	if err := bigint.Dump(w, bigint.FromUint64(uint64(len(nums)))); err != nil {
		return err
	}
	for _, num := range nums {
		var buf [2]byte
		binary.BigEndian.PutUint16(buf[:], uint16(num))
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
		r := m[num]
		if err := writeDate(w, r.Date); err != nil {
			return err
		}
		if _, err := w.Write([]byte{byte(r.Present)}); err != nil {
			return err
		}
	}
	return nil
}

func writeString(w io.Writer, s string) error {
	return writeBytes(w, []byte(s))
}

func writeBytes(w io.Writer, b []byte) error {
	if err := bigint.Dump(w, bigint.FromUint64(uint64(len(b)))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func writeDate(w io.Writer, d dartime.Date) error {
	if _, err := w.Write([]byte{byte(d.Unit)}); err != nil {
		return err
	}
	if err := bigint.Dump(w, bigint.FromInt64(d.Seconds)); err != nil {
		return err
	}
	return bigint.Dump(w, bigint.FromInt64(d.Frac))
}

// Load reconstructs a DB from r per opt.
func Load(r *bufio.Reader, opt LoadOptions) (*DB, error) {
	db, err := loadHeader(r)
	if err != nil {
		return nil, err
	}
	if opt.ReadOnly {
		return db, nil
	}
	if opt.Partial {
		rest, err := io.ReadAll(r)
		if err != nil {
			return nil, derr.E(derr.Data, err, "dardb: read tree section")
		}
		db.rawTree = rest
		return db, nil
	}
	root, err := loadTree(r)
	if err != nil {
		return nil, err
	}
	db.root = root
	return db, nil
}

func loadHeader(r *bufio.Reader) (*DB, error) {
	cr := &crcReader{r: r}
	var verBuf [1]byte
	if _, err := cr.Read(verBuf[:]); err != nil {
		return nil, derr.E(derr.Data, err, "dardb: read format version")
	}
	if verBuf[0] != formatVersion {
		return nil, derr.E(derr.Data, "dardb: unsupported database format version")
	}
	n, err := bigint.Load(cr)
	if err != nil {
		return nil, err
	}
	db := &DB{}
	for i := uint64(0); i < n.Uint64(); i++ {
		path, err := readString(cr)
		if err != nil {
			return nil, err
		}
		basename, err := readString(cr)
		if err != nil {
			return nil, err
		}
		rootLastMod, err := readDate(cr)
		if err != nil {
			return nil, err
		}
		db.Archives = append(db.Archives, ArchiveInfo{Path: path, Basename: basename, RootLastMod: rootLastMod})
	}
	if db.DarPath, err = readString(cr); err != nil {
		return nil, err
	}
	numOpts, err := bigint.Load(cr)
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < numOpts.Uint64(); i++ {
		opt, err := readString(cr)
		if err != nil {
			return nil, err
		}
		db.Options = append(db.Options, opt)
	}
	checkOrder, err := cr.ReadByte()
	if err != nil {
		return nil, derr.E(derr.Data, err, "dardb: read check_order flag")
	}
	db.CheckOrderAsked = checkOrder != 0
	if db.Compression, err = readString(cr); err != nil {
		return nil, err
	}
	level, err := bigint.Load(cr)
	if err != nil {
		return nil, err
	}
	db.CompressionLevel = int(level.Uint64())

	var tail [4]byte
	if _, err := io.ReadFull(r, tail[:]); err != nil {
		return nil, derr.E(derr.Data, err, "dardb: short read of header CRC")
	}
	got, err := dcrc.FromBytes(tail[:], cr.crc.Size())
	if err != nil {
		return nil, err
	}
	if !got.Equal(cr.crc) {
		return nil, derr.E(derr.Data, "dardb: header CRC mismatch")
	}
	return db, nil
}

func loadTree(r *bufio.Reader) (*node, error) {
	cr := &crcReader{r: r}
	root := newNode("", true)
	if err := loadChildren(cr, root); err != nil {
		return nil, err
	}
	var tail [4]byte
	if _, err := io.ReadFull(r, tail[:]); err != nil {
		return nil, derr.E(derr.Data, err, "dardb: short read of tree CRC")
	}
	got, err := dcrc.FromBytes(tail[:], cr.crc.Size())
	if err != nil {
		return nil, err
	}
	if !got.Equal(cr.crc) {
		return nil, derr.E(derr.Data, "dardb: tree CRC mismatch")
	}
	return root, nil
}

func loadChildren(cr *crcReader, parent *node) error {
	for {
		tag, err := cr.ReadByte()
		if err != nil {
			return derr.E(derr.Data, err, "dardb: read node tag")
		}
		if tag == sentinelEndOfNodes {
			return nil
		}
		n, err := loadNode(cr, tag)
		if err != nil {
			return err
		}
		parent.Children = append(parent.Children, n)
	}
}

func loadNode(cr *crcReader, tag byte) (*node, error) {
	name, err := readString(cr)
	if err != nil {
		return nil, err
	}
	n := newNode(name, tag == nodeTagDir)
	if n.lastMod, err = loadRecords(cr); err != nil {
		return nil, err
	}
	if n.lastChange, err = loadRecords(cr); err != nil {
		return nil, err
	}
	if tag == nodeTagDir {
		if err := loadChildren(cr, n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func loadRecords(cr *crcReader) (map[ArchiveNum]record, error) {
	count, err := bigint.Load(cr)
	if err != nil {
		return nil, err
	}
	m := make(map[ArchiveNum]record, count.Uint64())
	for i := uint64(0); i < count.Uint64(); i++ {
		var buf [2]byte
		if _, err := cr.Read(buf[:]); err != nil {
			return nil, derr.E(derr.Data, err, "dardb: read archive number")
		}
		num := ArchiveNum(binary.BigEndian.Uint16(buf[:]))
		date, err := readDate(cr)
		if err != nil {
			return nil, err
		}
		present, err := cr.ReadByte()
		if err != nil {
			return nil, derr.E(derr.Data, err, "dardb: read record state")
		}
		m[num] = record{Date: date, Present: State(present)}
	}
	return m, nil
}

func readString(cr *crcReader) (string, error) {
	b, err := readBytes(cr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readBytes(cr *crcReader) ([]byte, error) {
	n, err := bigint.Load(cr)
	if err != nil {
		return nil, err
	}
	b := make([]byte, n.Uint64())
	if _, err := cr.Read(b); err != nil {
		return nil, derr.E(derr.Data, err, "dardb: short read of bytes")
	}
	return b, nil
}

func readDate(cr *crcReader) (dartime.Date, error) {
	unit, err := cr.ReadByte()
	if err != nil {
		return dartime.Date{}, derr.E(derr.Data, err, "dardb: read date unit")
	}
	sec, err := bigint.Load(cr)
	if err != nil {
		return dartime.Date{}, err
	}
	frac, err := bigint.Load(cr)
	if err != nil {
		return dartime.Date{}, err
	}
	return dartime.Date{Seconds: int64(sec.Uint64()), Frac: int64(frac.Uint64()), Unit: dartime.Unit(unit)}, nil
}
