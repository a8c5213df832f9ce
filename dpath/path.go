// Package dpath implements dar's Unix-style Path value: an ordered
// sequence of non-empty components plus an absolute/relative flag and an
// "undisclosed" flag marking strings that must not be split on "/".
// Modeled on file/path.go's ParsePath/Base/Dir component handling,
// generalized from its "local path or scheme://suffix" model to dar's
// push/pop/subdir model.
package dpath

import (
	"strings"

	"github.com/dar-go/dar/derr"
)

// Path is an ordered sequence of path components.
type Path struct {
	components []string
	absolute   bool
	// undisclosed marks a Path built from a single opaque string (e.g. a
	// Windows drive-letter path, or any string the caller has asserted must
	// never be split on "/"). An undisclosed Path has exactly one
	// component, which is never subject to Push/Pop decomposition rules.
	undisclosed bool
}

// Root is the absolute path "/".
var Root = Path{absolute: true}

// New parses s as a "/"-separated path. A leading "/" makes the result
// absolute. Empty components (from "//" or a trailing "/") are dropped,
// except that "/" alone parses as Root.
func New(s string) Path {
	abs := strings.HasPrefix(s, "/")
	parts := strings.Split(s, "/")
	var comps []string
	for _, p := range parts {
		if p != "" {
			comps = append(comps, p)
		}
	}
	return Path{components: comps, absolute: abs}
}

// Undisclosed wraps an opaque string as a single-component Path that must
// never be split on "/".
func Undisclosed(s string) Path {
	return Path{components: []string{s}, undisclosed: true}
}

// IsAbsolute reports whether p is rooted.
func (p Path) IsAbsolute() bool { return p.absolute }

// IsUndisclosed reports whether p was built with Undisclosed.
func (p Path) IsUndisclosed() bool { return p.undisclosed }

// Len returns the number of components in p.
func (p Path) Len() int { return len(p.components) }

// Components returns a copy of p's components.
func (p Path) Components() []string {
	out := make([]string, len(p.components))
	copy(out, p.components)
	return out
}

// String renders p as a "/"-separated string.
func (p Path) String() string {
	if p.undisclosed {
		return p.components[0]
	}
	s := strings.Join(p.components, "/")
	if p.absolute {
		return "/" + s
	}
	return s
}

// Push returns a new Path with name appended as the last component.
func (p Path) Push(name string) Path {
	if name == "" {
		panic("dpath: Push of empty component")
	}
	comps := make([]string, len(p.components), len(p.components)+1)
	copy(comps, p.components)
	comps = append(comps, name)
	return Path{components: comps, absolute: p.absolute}
}

// PopFront removes and returns the first component. It errors on an
// absolute single-component path: popping the last component of "/" must
// not silently yield an empty (and therefore ambiguous, relative-vs-root)
// Path.
func (p Path) PopFront() (name string, rest Path, err error) {
	if p.undisclosed {
		return "", Path{}, derr.E(derr.Range, "dpath: PopFront on undisclosed path")
	}
	if len(p.components) == 0 {
		return "", Path{}, derr.E(derr.Range, "dpath: PopFront on empty path")
	}
	if p.absolute && len(p.components) == 1 {
		return "", Path{}, derr.E(derr.Range, "dpath: PopFront would empty an absolute path")
	}
	name = p.components[0]
	rest = Path{components: append([]string(nil), p.components[1:]...), absolute: p.absolute}
	return name, rest, nil
}

// PopBack removes and returns the last component (the Base) and the
// remaining directory Path.
func (p Path) PopBack() (rest Path, name string, err error) {
	if p.undisclosed || len(p.components) == 0 {
		return Path{}, "", derr.E(derr.Range, "dpath: PopBack on empty or undisclosed path")
	}
	n := len(p.components)
	rest = Path{components: append([]string(nil), p.components[:n-1]...), absolute: p.absolute}
	name = p.components[n-1]
	return rest, name, nil
}

// Base returns the last component, or "" for an empty relative path.
func (p Path) Base() string {
	if len(p.components) == 0 {
		return ""
	}
	return p.components[len(p.components)-1]
}

// IsSubdirOf reports whether p is equal to or nested within base (both
// must share the same absolute/relative-ness).
func (p Path) IsSubdirOf(base Path) bool {
	if p.absolute != base.absolute || len(base.components) > len(p.components) {
		return false
	}
	for i, c := range base.components {
		if p.components[i] != c {
			return false
		}
	}
	return true
}

// Equal reports whether p and q denote the same path.
func (p Path) Equal(q Path) bool {
	if p.absolute != q.absolute || p.undisclosed != q.undisclosed || len(p.components) != len(q.components) {
		return false
	}
	for i := range p.components {
		if p.components[i] != q.components[i] {
			return false
		}
	}
	return true
}
