package dartime

import "testing"

func TestZeroDateIsEpoch(t *testing.T) {
	var d Date
	if d.Seconds != 0 || !d.Time().Equal(d.Time()) {
		t.Fatal("zero Date should be representable, not a sentinel")
	}
	if d.Cmp(AtSecond(1)) >= 0 {
		t.Fatal("epoch should compare before second 1")
	}
}

func TestCmp(t *testing.T) {
	a := AtSecond(100)
	b := AtSecond(200)
	if a.Cmp(b) != -1 || b.Cmp(a) != 1 || a.Cmp(a) != 0 {
		t.Fatal("Cmp failed")
	}
}

func TestLooseCmpIgnoresSubsecondBelowCoarserUnit(t *testing.T) {
	sec := AtSecond(100)
	nanos := Date{Seconds: 100, Frac: 500, Unit: Nanosecond}
	if sec.LooseCmp(nanos) != 0 {
		t.Fatal("loose compare should ignore sub-second noise at coarser unit")
	}
	if sec.Cmp(nanos) == 0 {
		t.Fatal("strict compare should see the nanosecond difference")
	}
}

func TestAddHours(t *testing.T) {
	base := AtSecond(0)
	later := base.AddHours(1)
	if later.Sub(base).Hours() != 1 {
		t.Fatalf("AddHours mismatch: %v", later.Sub(base))
	}
}
