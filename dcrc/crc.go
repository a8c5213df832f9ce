// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package dcrc implements dar's fixed-size checksum value: a CRC-32
// checksum that supports equality and Combine (concatenation of two
// covered byte ranges without re-scanning the underlying bytes). It is
// modeled on the digest package's shape (digest/digest.go: a small,
// serializable, comparable checksum value type), narrowed from digest's
// arbitrary crypto.Hash surface to CRC-32 specifically, since CRC-32 is a
// linear code over GF(2) and so admits a closed-form Combine the way a
// generic cryptographic digest cannot.
package dcrc

import (
	"encoding/hex"
	"hash/crc32"

	"github.com/dar-go/dar/derr"
)

// table is the polynomial table used throughout dar. IEEE matches the
// reference implementation's on-disk CRCs.
var table = crc32.MakeTable(crc32.IEEE)

// CRC is a CRC-32/IEEE checksum covering a known number of bytes. The byte
// count is tracked because Combine needs it to align the second
// checksum's contribution algebraically.
type CRC struct {
	sum  uint32
	size int64
}

// New returns the CRC of an empty (zero-length) stream.
func New() CRC { return CRC{} }

// Update folds p into c, which must have been computed over the bytes
// immediately preceding p.
func (c CRC) Update(p []byte) CRC {
	return CRC{sum: crc32.Update(c.sum, table, p), size: c.size + int64(len(p))}
}

// Size returns the number of bytes this CRC covers.
func (c CRC) Size() int64 { return c.size }

// Equal reports whether c and d are the same checksum over the same number
// of bytes.
func (c CRC) Equal(d CRC) bool {
	return c.sum == d.sum && c.size == d.size
}

// String renders the checksum as 8 lowercase hex digits, the standard text
// format used for hash side-files when algo=crc32.
func (c CRC) String() string {
	var buf [4]byte
	buf[0] = byte(c.sum >> 24)
	buf[1] = byte(c.sum >> 16)
	buf[2] = byte(c.sum >> 8)
	buf[3] = byte(c.sum)
	return hex.EncodeToString(buf[:])
}

// Bytes returns the raw 4-byte big-endian checksum, dar's on-disk
// representation of a data or patch-base/result CRC in a catalogue file
// entry.
func (c CRC) Bytes() []byte {
	return []byte{byte(c.sum >> 24), byte(c.sum >> 16), byte(c.sum >> 8), byte(c.sum)}
}

// FromBytes reconstructs a CRC from its 4-byte big-endian form and known
// size (the size is not itself stored on disk in dar's file-entry layout;
// callers that need Combine after loading must supply it from the entry's
// recorded file size).
func FromBytes(b []byte, size int64) (CRC, error) {
	if len(b) != 4 {
		return CRC{}, derr.E(derr.Data, "dcrc: want 4 bytes")
	}
	sum := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	return CRC{sum: sum, size: size}, nil
}

// gf2MatrixTimes multiplies an 32-bit vector by the bit-matrix mat,
// represented as 32 uint32 rows (bit i of the result is whether row i of
// mat*vec has odd parity), the standard zlib crc32_combine construction.
func gf2MatrixTimes(mat *[32]uint32, vec uint32) uint32 {
	var sum uint32
	for i := 0; vec != 0; i++ {
		if vec&1 != 0 {
			sum ^= mat[i]
		}
		vec >>= 1
	}
	return sum
}

func gf2MatrixSquare(square, mat *[32]uint32) {
	for n := 0; n < 32; n++ {
		square[n] = gf2MatrixTimes(mat, mat[n])
	}
}

// Combine computes the CRC-32 of the concatenation of a stream with
// checksum a (covering the preceding bytes) and a stream with checksum b
// covering lenB bytes, without re-reading either stream.
func Combine(a, b CRC) CRC {
	if b.size == 0 {
		return a
	}
	len2 := b.size

	var even, odd [32]uint32
	// odd[n] holds the CRC-32 polynomial's "multiply by x" bit matrix.
	odd[0] = 0xedb88320 // CRC-32 polynomial, reflected
	row := uint32(1)
	for n := 1; n < 32; n++ {
		odd[n] = row
		row <<= 1
	}
	gf2MatrixSquare(&even, &odd) // even = odd^2 = squares
	gf2MatrixSquare(&odd, &even) // odd = even^2 = quads

	crc1 := a.sum
	for len2 != 0 {
		gf2MatrixSquare(&even, &odd)
		if len2&1 != 0 {
			crc1 = gf2MatrixTimes(&even, crc1)
		}
		len2 >>= 1
		if len2 == 0 {
			break
		}
		gf2MatrixSquare(&odd, &even)
		if len2&1 != 0 {
			crc1 = gf2MatrixTimes(&odd, crc1)
		}
		len2 >>= 1
	}
	crc1 ^= b.sum
	return CRC{sum: crc1, size: a.size + b.size}
}
