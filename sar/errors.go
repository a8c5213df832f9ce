package sar

import "github.com/dar-go/dar/derr"

// sliceMissingError carries the expected slice number of a slice that
// could not be opened for reading, so lax mode can report it as a hole
// of the expected size and strict mode can surface it verbatim.
type sliceMissingError struct {
	n int
}

func (e *sliceMissingError) Error() string {
	return "sar: missing slice"
}

// SliceMissing wraps err as a fatal "next slice absent or unreadable"
// condition carrying the expected 1-based slice number n.
func SliceMissing(n int, err error) error {
	return derr.E(derr.Data, err, &sliceMissingError{n: n})
}

// MissingSliceNumber reports the expected slice number of an error
// produced by SliceMissing, and whether err is such an error.
func MissingSliceNumber(err error) (n int, ok bool) {
	var sm *sliceMissingError
	derr.Visit(err, func(e error) {
		if m, isSM := e.(*sliceMissingError); isSM {
			sm = m
		}
	})
	if sm == nil {
		return 0, false
	}
	return sm.n, true
}
