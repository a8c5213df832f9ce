// Package bigint implements the unbounded non-negative integer value used
// throughout dar for sizes, offsets, and dates. It wraps math/big.Int for
// arithmetic and implements a variable-length big-endian binary encoding: a
// prefix byte whose population count gives the number of big-endian
// payload bytes that follow, recursing through a nested length prefix when
// the prefix byte is all-ones. This gives O(log N) bytes for value N with
// no fixed ceiling, matching the varint idiom in recordio/header.go
// (headerEncoder.putUint) generalized to arbitrary width.
package bigint

import (
	"bytes"
	"fmt"
	"io"
	"math/big"
	"math/bits"

	"github.com/dar-go/dar/derr"
)

// Int is an unbounded non-negative integer.
type Int struct {
	v big.Int
}

// Zero is the integer 0.
var Zero = Int{}

// FromUint64 constructs an Int from a uint64.
func FromUint64(v uint64) Int {
	var i Int
	i.v.SetUint64(v)
	return i
}

// FromInt64 constructs an Int from a non-negative int64; it panics on
// negative input, matching Int's non-negative-only contract.
func FromInt64(v int64) Int {
	if v < 0 {
		panic("bigint: FromInt64 with negative value")
	}
	return FromUint64(uint64(v))
}

// FromBytes constructs an Int from its big-endian magnitude.
func FromBytes(b []byte) Int {
	var i Int
	i.v.SetBytes(b)
	return i
}

// Uint64 returns v as a uint64. It panics if v does not fit; callers on the
// boundary should use Unstack instead.
func (i Int) Uint64() uint64 {
	if !i.v.IsUint64() {
		panic("bigint: value does not fit in uint64")
	}
	return i.v.Uint64()
}

// IsZero reports whether i is zero.
func (i Int) IsZero() bool { return i.v.Sign() == 0 }

// Cmp compares i and j, returning -1, 0, or +1.
func (i Int) Cmp(j Int) int { return i.v.Cmp(&j.v) }

// Add returns i+j.
func (i Int) Add(j Int) Int {
	var r Int
	r.v.Add(&i.v, &j.v)
	return r
}

// Sub returns i-j. It panics if the result would be negative, since Int is
// non-negative only.
func (i Int) Sub(j Int) Int {
	var r Int
	r.v.Sub(&i.v, &j.v)
	if r.v.Sign() < 0 {
		panic("bigint: subtraction underflow")
	}
	return r
}

// Mul returns i*j.
func (i Int) Mul(j Int) Int {
	var r Int
	r.v.Mul(&i.v, &j.v)
	return r
}

// DivMod returns (i/j, i%j). It panics if j is zero.
func (i Int) DivMod(j Int) (Int, Int) {
	if j.IsZero() {
		panic("bigint: division by zero")
	}
	var q, m Int
	q.v.DivMod(&i.v, &j.v, &m.v)
	return q, m
}

// Unstack moves the low nbits bits of i into a machine uint64, leaving the
// remaining high bits in the returned Int. It is used to peel off, e.g.,
// the low 32 bits of an offset for use with a
// fixed-width syscall while retaining the rest.
func (i Int) Unstack(nbits uint) (low uint64, rest Int) {
	if nbits > 64 {
		panic("bigint: Unstack nbits > 64")
	}
	var mask big.Int
	mask.Lsh(big.NewInt(1), nbits)
	mask.Sub(&mask, big.NewInt(1))
	var lowBig big.Int
	lowBig.And(&i.v, &mask)
	low = lowBig.Uint64()
	var r Int
	r.v.Rsh(&i.v, nbits)
	return low, r
}

// String returns the decimal representation of i.
func (i Int) String() string { return i.v.String() }

// Bytes returns the big-endian magnitude of i, with no leading zero byte
// (empty for zero).
func (i Int) Bytes() []byte { return i.v.Bytes() }

// popcountPrefix returns a byte whose population count is exactly n, for n
// in [0,8]: the top n bits set, rest clear. n==8 yields 0xFF, the
// recursion-trigger sentinel.
func popcountPrefix(n int) byte {
	if n == 0 {
		return 0
	}
	return byte(0xFF << uint(8-n))
}

// writeRaw writes value (a big-endian magnitude with no leading zero byte)
// using the recursive popcount-prefix scheme above.
func writeRaw(buf *bytes.Buffer, value []byte) {
	k := len(value)
	if k < 8 {
		buf.WriteByte(popcountPrefix(k))
		buf.Write(value)
		return
	}
	buf.WriteByte(0xFF)
	lenBytes := uintToMinimalBytes(uint64(k))
	writeRaw(buf, lenBytes)
	buf.Write(value)
}

func uintToMinimalBytes(v uint64) []byte {
	if v == 0 {
		return nil
	}
	var tmp [8]byte
	for i := 7; i >= 0; i-- {
		tmp[i] = byte(v)
		v >>= 8
	}
	i := 0
	for i < 8 && tmp[i] == 0 {
		i++
	}
	return tmp[i:]
}

// MarshalBinary implements encoding.BinaryMarshaler using the
// popcount-prefix encoding.
func (i Int) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	writeRaw(&buf, i.v.Bytes())
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (i *Int) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	v, err := readRaw(r)
	if err != nil {
		return err
	}
	i.v.SetBytes(v)
	if r.Len() != 0 {
		return derr.E(derr.Data, "bigint: trailing bytes after decode")
	}
	return nil
}

// Dump writes i's popcount-prefix encoding to w.
func Dump(w io.Writer, i Int) error {
	enc, _ := i.MarshalBinary()
	_, err := w.Write(enc)
	return err
}

// Load reads one popcount-prefix-encoded Int from r, which must support
// ReadByte (as bufio.Reader and bytes.Reader do).
func Load(r ByteReader) (Int, error) {
	raw, err := readRaw(r)
	if err != nil {
		return Int{}, err
	}
	return FromBytes(raw), nil
}

// ByteReader is the minimal interface Load needs.
type ByteReader interface {
	ReadByte() (byte, error)
}

func readRaw(r ByteReader) ([]byte, error) {
	b, err := r.ReadByte()
	if err != nil {
		return nil, derr.E(derr.Data, "bigint: read prefix byte", err)
	}
	k := bits.OnesCount8(b)
	if k < 8 {
		return readN(r, k)
	}
	lenBytes, err := readRaw(r)
	if err != nil {
		return nil, err
	}
	if len(lenBytes) > 8 {
		return nil, derr.E(derr.LimitOverflow, "bigint: encoded length too large")
	}
	var n uint64
	for _, c := range lenBytes {
		n = n<<8 | uint64(c)
	}
	return readN(r, int(n))
}

func readN(r ByteReader, n int) ([]byte, error) {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return nil, derr.E(derr.Data, fmt.Sprintf("bigint: short read at byte %d of %d", i, n), err)
		}
		out[i] = b
	}
	return out, nil
}
