package dpath

import "testing"

func TestNewAndString(t *testing.T) {
	p := New("/a/b/c")
	if !p.IsAbsolute() || p.String() != "/a/b/c" {
		t.Fatalf("got %q absolute=%v", p.String(), p.IsAbsolute())
	}
}

func TestPushPop(t *testing.T) {
	p := Root.Push("a").Push("f")
	name, rest, err := p.PopFront()
	if err != nil || name != "a" || rest.String() != "/f" {
		t.Fatalf("PopFront: %q %q %v", name, rest.String(), err)
	}
	rest2, base, err := p.PopBack()
	if err != nil || base != "f" || rest2.String() != "/a" {
		t.Fatalf("PopBack: %q %q %v", rest2.String(), base, err)
	}
}

func TestPopFrontSingleComponentAbsoluteErrors(t *testing.T) {
	_, _, err := Root.Push("a").PopFront()
	if err == nil {
		t.Fatal("expected error popping the only component of an absolute path")
	}
}

func TestIsSubdirOf(t *testing.T) {
	base := New("/a/b")
	child := New("/a/b/c/d")
	if !child.IsSubdirOf(base) {
		t.Fatal("expected child to be a subdir of base")
	}
	if base.IsSubdirOf(child) {
		t.Fatal("base should not be a subdir of child")
	}
}

func TestUndisclosed(t *testing.T) {
	p := Undisclosed("weird/name/with/slashes")
	if p.Len() != 1 || p.String() != "weird/name/with/slashes" {
		t.Fatalf("undisclosed path mangled: %q len=%d", p.String(), p.Len())
	}
}

func TestGlob(t *testing.T) {
	p := New("/home/user/file.txt")
	ok, err := p.Glob("/home/*/file.txt")
	if err != nil || !ok {
		t.Fatalf("expected glob match, got %v err=%v", ok, err)
	}
	ok, err = p.Glob("/home/*/other.txt")
	if err != nil || ok {
		t.Fatalf("expected no match, got %v", ok)
	}
}
