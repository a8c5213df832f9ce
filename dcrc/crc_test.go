package dcrc

import "testing"

func TestUpdateMatchesWhole(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	whole := New().Update(data)

	split := len(data) / 3
	a := New().Update(data[:split])
	b := New().Update(data[split:])
	combined := Combine(a, b)

	if !whole.Equal(combined) {
		t.Fatalf("combine mismatch: whole=%s combined=%s", whole, combined)
	}
}

func TestEqualRequiresSameSize(t *testing.T) {
	a := New().Update([]byte("abc"))
	b := New().Update([]byte("abcabc"))
	if a.Equal(b) {
		t.Fatal("expected mismatch for different sizes")
	}
}

func TestBytesRoundTrip(t *testing.T) {
	c := New().Update([]byte("hello"))
	got, err := FromBytes(c.Bytes(), c.Size())
	if err != nil {
		t.Fatal(err)
	}
	if !c.Equal(got) {
		t.Fatal("round trip mismatch")
	}
}

func TestCombineWithEmpty(t *testing.T) {
	a := New().Update([]byte("abc"))
	empty := New()
	if !Combine(a, empty).Equal(a) {
		t.Fatal("combine with empty should be identity")
	}
}
