// Package dartime implements dar's timestamp value: a pair
// (seconds-since-epoch, sub-second fraction expressed in one of {second,
// microsecond, nanosecond}), with comparison, difference, and a "loose
// difference" that compares at the coarser of the two operands' units.
// Modeled on the digest package's small-value, comparable, serializable
// type shape (digest/digest.go), specialized to a timestamp instead of a
// hash.
package dartime

import (
	"fmt"
	"time"
)

// Unit is the sub-second precision a Date was recorded at.
type Unit int

const (
	// Second means the Date has no sub-second precision.
	Second Unit = iota
	// Microsecond means the sub-second fraction is in microseconds.
	Microsecond
	// Nanosecond means the sub-second fraction is in nanoseconds.
	Nanosecond
)

func (u Unit) scale() int64 {
	switch u {
	case Second:
		return 1000000000
	case Microsecond:
		return 1000
	case Nanosecond:
		return 1
	default:
		panic("dartime: invalid unit")
	}
}

// coarser returns whichever of a, b has less precision (Second is
// coarsest, Nanosecond is finest).
func coarser(a, b Unit) Unit {
	if a < b {
		return a
	}
	return b
}

// Date is a point in time: seconds since the Unix epoch plus a sub-second
// fraction recorded at a given Unit. The zero Date is 1970-01-01T00:00:00Z;
// dar never uses a sentinel Date to mean "absent", since that would be
// indistinguishable from a real, very old timestamp. Absence is represented
// out-of-band instead, e.g. by a missing map entry in a database node.
type Date struct {
	Seconds int64
	Frac    int64 // sub-second fraction, in Unit's scale
	Unit    Unit
}

// FromTime constructs a Date from a time.Time at nanosecond precision.
func FromTime(t time.Time) Date {
	return Date{Seconds: t.Unix(), Frac: int64(t.Nanosecond()), Unit: Nanosecond}
}

// AtSecond constructs a Date with no sub-second precision.
func AtSecond(seconds int64) Date {
	return Date{Seconds: seconds, Unit: Second}
}

// nanos returns d's sub-second fraction normalized to nanoseconds.
func (d Date) nanos() int64 {
	switch d.Unit {
	case Second:
		return 0
	case Microsecond:
		return d.Frac * 1000
	case Nanosecond:
		return d.Frac
	default:
		panic("dartime: invalid unit")
	}
}

// Time converts d to a time.Time.
func (d Date) Time() time.Time {
	return time.Unix(d.Seconds, d.nanos()).UTC()
}

// Cmp compares d and e at nanosecond precision, returning -1, 0, or +1.
func (d Date) Cmp(e Date) int {
	if d.Seconds != e.Seconds {
		if d.Seconds < e.Seconds {
			return -1
		}
		return 1
	}
	dn, en := d.nanos(), e.nanos()
	switch {
	case dn < en:
		return -1
	case dn > en:
		return 1
	default:
		return 0
	}
}

// Equal reports whether d and e represent the same instant.
func (d Date) Equal(e Date) bool { return d.Cmp(e) == 0 }

// Sub returns d-e as a time.Duration, at nanosecond precision.
func (d Date) Sub(e Date) time.Duration {
	return d.Time().Sub(e.Time())
}

// LooseCmp compares d and e at the coarser of the two operands' sub-second
// units: e.g. comparing a microsecond-precision mtime recorded by a
// filesystem walk against a second-precision mtime recorded in an older
// archive's catalogue ignores sub-second noise below the coarser unit.
func (d Date) LooseCmp(e Date) int {
	unit := coarser(d.Unit, e.Unit)
	if d.Seconds != e.Seconds {
		if d.Seconds < e.Seconds {
			return -1
		}
		return 1
	}
	df, ef := d.fracAt(unit), e.fracAt(unit)
	switch {
	case df < ef:
		return -1
	case df > ef:
		return 1
	default:
		return 0
	}
}

func (d Date) fracAt(unit Unit) int64 {
	n := d.nanos()
	return n / unit.scale()
}

// AddHours returns d advanced by h hours (h may be negative or fractional),
// used by the overwriting policy's in-place-data-more-recent(H) criterion.
func (d Date) AddHours(h float64) Date {
	t := d.Time().Add(time.Duration(h * float64(time.Hour)))
	return FromTime(t)
}

// String renders d as an RFC3339 timestamp with sub-second precision
// matching its Unit, for use in list/get_version output.
func (d Date) String() string {
	switch d.Unit {
	case Second:
		return d.Time().Format(time.RFC3339)
	case Microsecond:
		return fmt.Sprintf("%s.%06d", d.Time().Format("2006-01-02T15:04:05"), d.Frac)
	case Nanosecond:
		return fmt.Sprintf("%s.%09d", d.Time().Format("2006-01-02T15:04:05"), d.Frac)
	default:
		panic("dartime: invalid unit")
	}
}
