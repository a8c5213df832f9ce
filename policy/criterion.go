// Package policy implements the overwriting policy engine: given two
// candidate catalogue entries for the same name (the "in-place" entry
// already present and the "candidate" entry being added), decide
// independently a DataVerdict and an EAVerdict. A Policy is either a
// constant pair of verdicts or a Conditional built from a Criterion and
// two sub-policies, mirroring the small-interface-plus-constructor-
// functions composition style of retry.Policy (retry/retry.go:
// Backoff/Jitter/MaxRetries each wrap or build a Policy value).
package policy

import (
	"github.com/dar-go/dar/catalog"
)

// Criterion is a pure predicate over a collision pair.
type Criterion interface {
	Eval(inPlace, candidate *catalog.Entry) bool
}

// CriterionFunc adapts a function to a Criterion.
type CriterionFunc func(inPlace, candidate *catalog.Entry) bool

// Eval calls f.
func (f CriterionFunc) Eval(inPlace, candidate *catalog.Entry) bool { return f(inPlace, candidate) }

// InPlaceDataMoreRecent reports whether in-place's mtime is more than h
// hours newer than candidate's.
func InPlaceDataMoreRecent(h float64) Criterion {
	return CriterionFunc(func(inPlace, candidate *catalog.Entry) bool {
		threshold := candidate.Mtime.AddHours(h)
		return inPlace.Mtime.Cmp(threshold) > 0
	})
}

// InPlaceDataBigger reports whether in-place is a regular file bigger
// than candidate.
var InPlaceDataBigger Criterion = CriterionFunc(func(inPlace, candidate *catalog.Entry) bool {
	if inPlace.Kind != catalog.KindFile || candidate.Kind != catalog.KindFile {
		return false
	}
	return inPlace.Size.Cmp(candidate.Size) > 0
})

// InPlaceIsInode reports whether in-place is any inode kind, i.e. not a
// tombstone.
var InPlaceIsInode Criterion = CriterionFunc(func(inPlace, _ *catalog.Entry) bool {
	return inPlace.Kind != catalog.KindTombstone
})

// InPlaceIsDir reports whether in-place is a directory.
var InPlaceIsDir Criterion = CriterionFunc(func(inPlace, _ *catalog.Entry) bool {
	return inPlace.Kind == catalog.KindDirectory
})

// SameType reports whether in-place and candidate have the same Kind.
var SameType Criterion = CriterionFunc(func(inPlace, candidate *catalog.Entry) bool {
	return inPlace.Kind == candidate.Kind
})

// InPlaceEAMoreRecent reports whether in-place's ctime is newer than
// candidate's.
var InPlaceEAMoreRecent Criterion = CriterionFunc(func(inPlace, candidate *catalog.Entry) bool {
	return inPlace.Ctime.Cmp(candidate.Ctime) > 0
})

// Invert negates c.
func Invert(c Criterion) Criterion {
	return CriterionFunc(func(inPlace, candidate *catalog.Entry) bool {
		return !c.Eval(inPlace, candidate)
	})
}

// And is true when every criterion in cs is true. And() with no
// criteria is vacuously true.
func And(cs ...Criterion) Criterion {
	return CriterionFunc(func(inPlace, candidate *catalog.Entry) bool {
		for _, c := range cs {
			if !c.Eval(inPlace, candidate) {
				return false
			}
		}
		return true
	})
}

// Or is true when any criterion in cs is true. Or() with no criteria is
// vacuously false.
func Or(cs ...Criterion) Criterion {
	return CriterionFunc(func(inPlace, candidate *catalog.Entry) bool {
		for _, c := range cs {
			if c.Eval(inPlace, candidate) {
				return true
			}
		}
		return false
	})
}
