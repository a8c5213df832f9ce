// Package dardb implements dar_manager's cross-archive database: a
// per-path version tree recording, for every path ever seen across a set
// of added archives, which archive holds which version of that path's
// data and extended attributes. Ported from original_source's
// data_tree.cpp/data_tree.hpp (the data_tree/data_dir pair) and
// database.cpp/i_database.hpp (the top-level operations), not translated
// line-by-line: the map<archive_num,status> pairs become Go maps keyed
// by ArchiveNum, and the data_tree/data_dir subclass split becomes a
// single node type with a nil-vs-non-nil Children distinguishing file
// from directory, matching catalog.Entry's own Kind-discriminated shape.
package dardb

import "github.com/dar-go/dar/dartime"

// ArchiveNum identifies one archive within a database, 1-based; 0 is the
// reserved "no archive" sentinel (data_tree.hpp's archive_num).
type ArchiveNum uint16

// MaxArchiveNum is the largest assignable archive number.
const MaxArchiveNum ArchiveNum = 65534

// State is a per-archive record's kind (data_tree.hpp's enum etat, plus
// the et_absent state data_tree.cpp maintains alongside it for synthetic
// "not present in this archive" markers).
type State uint8

const (
	// StateSaved means the data/EA was saved in this archive.
	StateSaved State = iota
	// StatePresent means the file/EA existed in this archive but its
	// data was not saved (unchanged-since-reference, differential
	// backup context).
	StatePresent
	// StateRemoved means the archive recorded this path as deleted
	// (a tombstone).
	StateRemoved
	// StateAbsent is a synthetic record added by finalize to mark that
	// a path known from an earlier archive was not present at all in a
	// later one.
	StateAbsent
)

func (s State) String() string {
	switch s {
	case StateSaved:
		return "saved"
	case StatePresent:
		return "present"
	case StateRemoved:
		return "removed"
	case StateAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// Lookup is the result of a get_data/get_EA query at a point in time.
type Lookup int

const (
	// FoundPresent means a valid version is available and current.
	FoundPresent Lookup = iota
	// FoundRemoved means the path was deleted as of the query date.
	FoundRemoved
	// NotFound means the path has no record at all.
	NotFound
	// NotRestorable means the most recent qualifying record is
	// StatePresent (unchanged-since-reference) with no earlier
	// StateSaved baseline in the database, so the chain is broken.
	NotRestorable
)

func (l Lookup) String() string {
	switch l {
	case FoundPresent:
		return "found_present"
	case FoundRemoved:
		return "found_removed"
	case NotFound:
		return "not_found"
	case NotRestorable:
		return "not_restorable"
	default:
		return "unknown"
	}
}

// record is one archive's entry in a node's last_mod or last_change map.
type record struct {
	Date    dartime.Date
	Present State
}

// node is one path component in the database's version tree: data_tree
// when Children is nil, data_dir when non-nil. last_mod/last_change are
// the archive_num-keyed maps from the original's data_tree.
type node struct {
	Name     string
	Children []*node // nil for a leaf (file/symlink/device/...) node

	lastMod    map[ArchiveNum]record
	lastChange map[ArchiveNum]record
}

func newNode(name string, isDir bool) *node {
	n := &node{Name: name, lastMod: map[ArchiveNum]record{}, lastChange: map[ArchiveNum]record{}}
	if isDir {
		n.Children = []*node{}
	}
	return n
}

func (n *node) isDir() bool { return n.Children != nil }

func (n *node) child(name string) *node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// findOrAdd returns the child named name, creating it (as isDir) if
// absent (data_dir::find_or_addition).
func (n *node) findOrAdd(name string, isDir bool) *node {
	if c := n.child(name); c != nil {
		return c
	}
	c := newNode(name, isDir)
	n.Children = append(n.Children, c)
	return c
}

func (n *node) removeChild(name string) {
	for i, c := range n.Children {
		if c.Name == name {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return
		}
	}
}

func (n *node) setData(num ArchiveNum, date dartime.Date, present State) {
	n.lastMod[num] = record{Date: date, Present: present}
}

func (n *node) setEA(num ArchiveNum, date dartime.Date, present State) {
	n.lastChange[num] = record{Date: date, Present: present}
}

func (n *node) readData(num ArchiveNum) (record, bool) { r, ok := n.lastMod[num]; return r, ok }
func (n *node) readEA(num ArchiveNum) (record, bool)   { r, ok := n.lastChange[num]; return r, ok }

// lookup implements get_data/get_EA: find, among records at or before
// at (nil at means "most recent, no filter"), the archive that holds the
// applicable version, distinguishing a genuine baseline from a
// present-but-not-saved record that has no earlier baseline behind it.
func lookup(m map[ArchiveNum]record, at *dartime.Date) (ArchiveNum, Lookup) {
	var archiveSeen, archiveReal ArchiveNum
	var maxSeen, maxReal dartime.Date
	var haveSeen, haveReal bool
	var presenceSeen, presenceReal bool

	qualifies := func(d dartime.Date) bool { return at == nil || d.Cmp(*at) <= 0 }

	for num, r := range m {
		if !qualifies(r.Date) {
			continue
		}
		if !haveSeen || r.Date.Cmp(maxSeen) > 0 || (r.Date.Equal(maxSeen) && num > archiveSeen) {
			maxSeen = r.Date
			archiveSeen = num
			haveSeen = true
			presenceSeen = r.Present == StateSaved || r.Present == StatePresent
		}
		if r.Present != StatePresent {
			if !haveReal || r.Date.Cmp(maxReal) > 0 || (r.Date.Equal(maxReal) && num > archiveReal) {
				maxReal = r.Date
				archiveReal = num
				haveReal = true
				presenceReal = r.Present == StateSaved
			}
		}
	}

	switch {
	case !haveReal:
		if haveSeen {
			return archiveSeen, NotRestorable
		}
		return 0, NotFound
	case presenceSeen != presenceReal:
		return archiveSeen, NotRestorable
	case presenceReal:
		return archiveReal, FoundPresent
	default:
		return archiveReal, FoundRemoved
	}
}

func (n *node) getData(at *dartime.Date) (ArchiveNum, Lookup) { return lookup(n.lastMod, at) }
func (n *node) getEA(at *dartime.Date) (ArchiveNum, Lookup)   { return lookup(n.lastChange, at) }

// finalizeExceptSelf implements data_tree::finalize: if archive has no
// record for this path (or only a synthetic absent one), and an earlier
// archive shows the path present, a synthetic StateAbsent record is
// appended dated at or after that earlier record so later lookups see
// the path as removed as of this archive.
func (n *node) finalizeExceptSelf(archive ArchiveNum, deletedDate dartime.Date) {
	n.finalizeMap(n.lastMod, archive, deletedDate)
	n.finalizeMap(n.lastChange, archive, deletedDate)
}

func (n *node) finalizeMap(m map[ArchiveNum]record, archive ArchiveNum, deletedDate dartime.Date) {
	if r, ok := m[archive]; ok && r.Present != StateAbsent {
		return
	}
	var maxNum ArchiveNum
	var lastDate dartime.Date
	presenceMax := false
	found := false
	for num, r := range m {
		if num > maxNum {
			maxNum = num
			found = true
			lastDate = r.Date
			presenceMax = r.Present == StateSaved || r.Present == StatePresent
		}
	}
	if !found {
		return
	}
	if presenceMax {
		date := deletedDate
		if lastDate.Cmp(deletedDate) >= 0 {
			date = dartime.AtSecond(lastDate.Time().Unix() + 1)
		}
		m[archive] = record{Date: date, Present: StateAbsent}
	} else if r, ok := m[archive]; ok && r.Present == StateAbsent {
		delete(m, archive)
	}
}

// removeAllFrom implements data_tree::remove_all_from: drops archive's
// record from both maps, first propagating a "removed" record forward
// to archive+1 if archive+1 has no record of its own, so the
// "was-deleted" fact survives the removal. Reports whether the node is
// now empty on both maps (meaning the caller should prune it).
func (n *node) removeAllFrom(archive, lastArchive ArchiveNum) bool {
	if archive < lastArchive {
		if r, ok := n.lastMod[archive]; ok && r.Present == StateRemoved {
			if _, ok := n.lastMod[archive+1]; !ok {
				n.lastMod[archive+1] = record{Date: r.Date, Present: StateRemoved}
			}
		}
		if r, ok := n.lastChange[archive]; ok && r.Present == StateRemoved {
			if _, ok := n.lastChange[archive+1]; !ok {
				n.lastChange[archive+1] = record{Date: r.Date, Present: StateRemoved}
			}
		}
	}
	delete(n.lastMod, archive)
	delete(n.lastChange, archive)
	return len(n.lastMod) == 0 && len(n.lastChange) == 0
}

// permute implements data_tree_permutation: archive x's new number after
// moving src to sit at position dst, shifting the intervening slots.
func permute(src, dst, x ArchiveNum) ArchiveNum {
	switch {
	case src < dst:
		if x < src || x > dst {
			return x
		}
		if x == src {
			return dst
		}
		return x - 1
	case src == dst:
		return x
	default: // src > dst
		if x > src || x < dst {
			return x
		}
		if x == src {
			return dst
		}
		return x + 1
	}
}

// applyPermutation implements data_tree::apply_permutation: remaps every
// record's archive number under permute(src, dst, ·).
func (n *node) applyPermutation(src, dst ArchiveNum) {
	n.lastMod = remapRecords(n.lastMod, src, dst)
	n.lastChange = remapRecords(n.lastChange, src, dst)
}

func remapRecords(m map[ArchiveNum]record, src, dst ArchiveNum) map[ArchiveNum]record {
	out := make(map[ArchiveNum]record, len(m))
	for num, r := range m {
		out[permute(src, dst, num)] = r
	}
	return out
}

// skipOut implements data_tree::skip_out: after an archive numbered num
// is dropped outright (not merely set-permutation'd), every higher
// archive number decrements by one to close the gap.
func (n *node) skipOut(num ArchiveNum) {
	n.lastMod = shiftDown(n.lastMod, num)
	n.lastChange = shiftDown(n.lastChange, num)
}

func shiftDown(m map[ArchiveNum]record, num ArchiveNum) map[ArchiveNum]record {
	out := make(map[ArchiveNum]record, len(m))
	for k, r := range m {
		if k > num {
			out[k-1] = r
		} else {
			out[k] = r
		}
	}
	return out
}
