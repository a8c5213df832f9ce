package policy

import (
	"testing"

	"github.com/dar-go/dar/bigint"
	"github.com/dar-go/dar/catalog"
	"github.com/dar-go/dar/dartime"
)

func entryAt(kind catalog.Kind, size uint64, mtimeSec int64) *catalog.Entry {
	e := &catalog.Entry{Kind: kind}
	e.Mtime = dartime.AtSecond(mtimeSec)
	if kind == catalog.KindFile {
		e.Size = bigint.FromUint64(size)
	}
	return e
}

func TestConditionalPolicyOnMtime(t *testing.T) {
	pol := Conditional{
		Criterion: InPlaceDataMoreRecent(0),
		Then:      Constant{Data: DataPreserve, EA: EAPreserve},
		Else:      Constant{Data: DataOverwrite, EA: EAOverwrite},
	}

	inPlace := entryAt(catalog.KindFile, 10, 200)
	candidate := entryAt(catalog.KindFile, 10, 100)
	data, ea := pol.Evaluate(inPlace, candidate)
	if data != DataPreserve || ea != EAPreserve {
		t.Fatalf("want preserve/preserve, got %v/%v", data, ea)
	}

	data, ea = pol.Evaluate(candidate, inPlace)
	if data != DataOverwrite || ea != EAOverwrite {
		t.Fatalf("want overwrite/overwrite, got %v/%v", data, ea)
	}
}

func TestAndOrInvert(t *testing.T) {
	dir := entryAt(catalog.KindDirectory, 0, 0)
	file := entryAt(catalog.KindFile, 0, 0)

	if !And(InPlaceIsDir, Invert(SameType)).Eval(dir, file) {
		t.Fatalf("want And(isDir, not sameType) true")
	}
	if !Or(SameType, InPlaceIsDir).Eval(file, file) {
		t.Fatalf("want Or(sameType,...) true for matching kinds")
	}
	if !And().Eval(dir, file) {
		t.Fatalf("And() with no criteria must be vacuously true")
	}
	if Or().Eval(dir, file) {
		t.Fatalf("Or() with no criteria must be vacuously false")
	}
}

func TestInPlaceDataBiggerRequiresBothFiles(t *testing.T) {
	big := entryAt(catalog.KindFile, 100, 0)
	small := entryAt(catalog.KindFile, 10, 0)
	dir := entryAt(catalog.KindDirectory, 0, 0)

	if !InPlaceDataBigger.Eval(big, small) {
		t.Fatalf("want bigger file to satisfy InPlaceDataBigger")
	}
	if InPlaceDataBigger.Eval(dir, small) {
		t.Fatalf("non-file in-place must not satisfy InPlaceDataBigger")
	}
}
