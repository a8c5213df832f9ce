package bigint

import (
	"testing"
)

func TestRoundTripSmall(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 255, 256, 1 << 20, 1<<63 - 1} {
		i := FromUint64(v)
		enc, err := i.MarshalBinary()
		if err != nil {
			t.Fatal(err)
		}
		var got Int
		if err := got.UnmarshalBinary(enc); err != nil {
			t.Fatalf("unmarshal %d: %v", v, err)
		}
		if got.Uint64() != v {
			t.Fatalf("round trip %d -> %d", v, got.Uint64())
		}
	}
}

func TestRoundTripHuge(t *testing.T) {
	huge := make([]byte, 200)
	for i := range huge {
		huge[i] = byte(i*7 + 3)
	}
	i := FromBytes(huge)
	enc, err := i.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	var got Int
	if err := got.UnmarshalBinary(enc); err != nil {
		t.Fatal(err)
	}
	if got.Cmp(i) != 0 {
		t.Fatalf("round trip mismatch for huge value")
	}
}

func TestUnstack(t *testing.T) {
	i := FromUint64(0x1_0000_0001)
	low, rest := i.Unstack(32)
	if low != 1 {
		t.Fatalf("low = %d, want 1", low)
	}
	if rest.Uint64() != 1 {
		t.Fatalf("rest = %s, want 1", rest.String())
	}
}

func TestArithmetic(t *testing.T) {
	a := FromUint64(100)
	b := FromUint64(30)
	if a.Add(b).Uint64() != 130 {
		t.Fatal("add failed")
	}
	if a.Sub(b).Uint64() != 70 {
		t.Fatal("sub failed")
	}
	if a.Mul(b).Uint64() != 3000 {
		t.Fatal("mul failed")
	}
	q, m := a.DivMod(b)
	if q.Uint64() != 3 || m.Uint64() != 10 {
		t.Fatalf("divmod = %d, %d", q.Uint64(), m.Uint64())
	}
}

func TestSubUnderflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on underflow")
		}
	}()
	FromUint64(1).Sub(FromUint64(2))
}
