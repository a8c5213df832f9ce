package dardb

import (
	"sort"

	"github.com/dar-go/dar/bitset"
	"github.com/dar-go/dar/catalog"
	"github.com/dar-go/dar/dartime"
	"github.com/dar-go/dar/derr"
	"github.com/dar-go/dar/dlog"
)

// ArchiveInfo is one archive's entry in the database's coordinate list
// (i_database::archive_data).
type ArchiveInfo struct {
	Path         string
	Basename     string
	RootLastMod  dartime.Date
}

// DB is a cross-archive database: dar_manager's persistent index over a
// set of archives (i_database). A DB loaded in partial mode has a nil
// root and cannot answer path queries, only archive-list/option edits;
// see LoadOptions.Partial.
type DB struct {
	Archives        []ArchiveInfo
	Options         []string
	DarPath         string
	Compression     string
	CompressionLevel int
	CheckOrderAsked bool

	root    *node // nil in partial mode
	rawTree []byte // retained verbatim when partial, for re-dump without reparsing
}

// New returns an empty database.
func New() *DB {
	return &DB{root: newNode("", true), CheckOrderAsked: true}
}

func (db *DB) requireTree() error {
	if db.root == nil {
		return derr.E(derr.Feature, "dardb: operation unavailable on a partially-loaded database")
	}
	return nil
}

// AddArchive folds arch's catalogue into the database as the next
// archive number (i_database::add_archive + data_tree_update_with +
// finalize_except_self).
func (db *DB) AddArchive(arch *catalog.Catalog, path, basename string) (ArchiveNum, error) {
	if err := db.requireTree(); err != nil {
		return 0, err
	}
	num := ArchiveNum(len(db.Archives) + 1)
	if num > MaxArchiveNum {
		return 0, derr.E(derr.LimitOverflow, "dardb: archive number limit exceeded")
	}
	rootMtime := arch.Root.Mtime
	db.updateWith(arch.Root, num, db.root)
	db.finalizeAll(num, rootMtime)
	db.Archives = append(db.Archives, ArchiveInfo{Path: path, Basename: basename, RootLastMod: rootMtime})
	return num, nil
}

// updateWith ports data_tree_update_with: for every catalogue child, find
// or create the matching database node and record this archive's
// (data, EA) status for it, recursing into directories.
func (db *DB) updateWith(dir *catalog.Entry, archive ArchiveNum, dbDir *node) {
	for _, c := range dir.Children {
		dbNode := dbDir.findOrAdd(c.Name, c.Kind == catalog.KindDirectory)

		switch c.Kind {
		case catalog.KindTombstone:
			dbNode.setData(archive, c.DeletedAt, StateRemoved)
		default:
			dbNode.setData(archive, c.Mtime, dataState(c))
		}
		if st, ok := eaState(c); ok {
			dbNode.setEA(archive, c.Ctime, st)
		}

		if c.Kind == catalog.KindDirectory {
			db.updateWith(c, archive, dbNode)
		}
	}
}

func dataState(e *catalog.Entry) State {
	if e.Kind != catalog.KindFile {
		return StateSaved
	}
	switch e.SavedState {
	case catalog.Saved:
		return StateSaved
	default: // NotSaved, UnchangedSinceRef: present but data not (re)written
		return StatePresent
	}
}

func eaState(e *catalog.Entry) (State, bool) {
	switch e.EA.State {
	case catalog.EAFull, catalog.EAPartial:
		return StateSaved, true
	case catalog.EAFake:
		return StatePresent, true
	case catalog.EARemoved:
		return StateRemoved, true
	default:
		return 0, false
	}
}

// finalizeAll applies finalize_except_self to every node already in the
// database tree (not just the ones arch touched), so paths known from
// earlier archives but absent from this one get a synthetic "absent"
// record.
func (db *DB) finalizeAll(archive ArchiveNum, deletedDate dartime.Date) {
	for _, c := range db.root.Children {
		finalizeSubtree(c, archive, deletedDate)
	}
}

func finalizeSubtree(n *node, archive ArchiveNum, deletedDate dartime.Date) {
	n.finalizeExceptSelf(archive, deletedDate)
	for _, c := range n.Children {
		finalizeSubtree(c, archive, deletedDate)
	}
}

// RemoveArchive drops archives [min, max] (inclusive, 1-based) from the
// database, propagating removed-date information forward one archive at
// a time (data_tree::remove_all_from) before renumbering the survivors
// down to close the gap.
func (db *DB) RemoveArchive(min, max ArchiveNum) error {
	if err := db.requireTree(); err != nil {
		return err
	}
	if min < 1 || max < min || int(max) > len(db.Archives) {
		return derr.E(derr.Range, "dardb: remove_archive range out of bounds")
	}
	last := ArchiveNum(len(db.Archives))
	for num := min; num <= max; num++ {
		pruneAfterRemove(db.root, num, last)
	}
	shift := max - min + 1
	renumberAbove(db.root, max, shift)
	db.Archives = append(append([]ArchiveInfo{}, db.Archives[:min-1]...), db.Archives[max:]...)
	return nil
}

func pruneAfterRemove(n *node, archive, last ArchiveNum) {
	for i := 0; i < len(n.Children); i++ {
		c := n.Children[i]
		empty := c.removeAllFrom(archive, last)
		if c.isDir() {
			pruneAfterRemove(c, archive, last)
			empty = empty && len(c.Children) == 0
		}
		if empty {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			i--
		}
	}
}

func renumberAbove(n *node, max, shift ArchiveNum) {
	n.lastMod = shiftAbove(n.lastMod, max, shift)
	n.lastChange = shiftAbove(n.lastChange, max, shift)
	for _, c := range n.Children {
		renumberAbove(c, max, shift)
	}
}

func shiftAbove(m map[ArchiveNum]record, max, shift ArchiveNum) map[ArchiveNum]record {
	out := make(map[ArchiveNum]record, len(m))
	for k, r := range m {
		if k > max {
			out[k-shift] = r
		} else {
			out[k] = r
		}
	}
	return out
}

// SetPermutation moves archive src to position dst, shifting intervening
// archives, then recomputes the synthetic absent records on the affected
// boundary (data_tree::apply_permutation + i_database::set_permutation).
func (db *DB) SetPermutation(src, dst ArchiveNum) error {
	if err := db.requireTree(); err != nil {
		return err
	}
	n := ArchiveNum(len(db.Archives))
	if src < 1 || src > n || dst < 1 || dst > n {
		return derr.E(derr.Range, "dardb: set_permutation archive number out of bounds")
	}
	applyPermutationTree(db.root, src, dst)
	db.Archives = permuteArchiveInfo(db.Archives, src, dst)

	lo, hi := src, dst
	if lo > hi {
		lo, hi = hi, lo
	}
	for _, boundary := range []ArchiveNum{lo, hi, hi + 1} {
		if boundary >= 1 && int(boundary) <= len(db.Archives) {
			finalizeAllAt(db.root, boundary, db.Archives[boundary-1].RootLastMod)
		}
	}
	return nil
}

func applyPermutationTree(n *node, src, dst ArchiveNum) {
	n.applyPermutation(src, dst)
	for _, c := range n.Children {
		applyPermutationTree(c, src, dst)
	}
}

func finalizeAllAt(n *node, archive ArchiveNum, deletedDate dartime.Date) {
	for _, c := range n.Children {
		finalizeSubtree(c, archive, deletedDate)
	}
}

func permuteArchiveInfo(archives []ArchiveInfo, src, dst ArchiveNum) []ArchiveInfo {
	out := make([]ArchiveInfo, len(archives))
	for i, info := range archives {
		x := ArchiveNum(i + 1)
		out[int(permute(src, dst, x))-1] = info
	}
	return out
}

// RenameArchive changes archive num's recorded basename without
// renumbering (the original_source operation folded back per
// SPEC_FULL.md's §4.8 additions).
func (db *DB) RenameArchive(num ArchiveNum, basename string) error {
	if int(num) < 1 || int(num) > len(db.Archives) {
		return derr.E(derr.Range, "dardb: rename_archive archive number out of bounds")
	}
	db.Archives[num-1].Basename = basename
	return nil
}

// SetPath changes archive num's recorded path.
func (db *DB) SetPath(num ArchiveNum, path string) error {
	if int(num) < 1 || int(num) > len(db.Archives) {
		return derr.E(derr.Range, "dardb: set_path archive number out of bounds")
	}
	db.Archives[num-1].Path = path
	return nil
}

// FileFlags is the 2-bit (data-available, ea-available) pair get_files
// returns for one path in one archive, backed by the same bitset package
// archive.findHoles uses for sparse-hole bitmaps.
type FileFlags struct {
	bits []uintptr
}

func newFileFlags(data, ea bool) FileFlags {
	b := bitset.NewClearBits(2)
	if data {
		bitset.Set(b, 0)
	}
	if ea {
		bitset.Set(b, 1)
	}
	return FileFlags{bits: b}
}

// DataAvailable reports whether this archive holds the file's data.
func (f FileFlags) DataAvailable() bool { return bitset.Test(f.bits, 0) }

// EAAvailable reports whether this archive holds the file's EA.
func (f FileFlags) EAAvailable() bool { return bitset.Test(f.bits, 1) }

// GetFiles streams every path with a record in archive num, in path
// order, with the flags describing whether that archive holds its data
// and/or its EA.
func (db *DB) GetFiles(num ArchiveNum, fn func(path string, flags FileFlags) error) error {
	if err := db.requireTree(); err != nil {
		return err
	}
	return walkPaths(db.root, "", func(path string, n *node) error {
		dr, hasData := n.readData(num)
		er, hasEA := n.readEA(num)
		if !hasData && !hasEA {
			return nil
		}
		data := hasData && dr.Present == StateSaved
		ea := hasEA && er.Present == StateSaved
		return fn(path, newFileFlags(data, ea))
	})
}

func walkPaths(n *node, path string, fn func(path string, n *node) error) error {
	for _, c := range n.Children {
		p := joinPath(path, c.Name)
		if err := fn(p, c); err != nil {
			return err
		}
		if c.isDir() {
			if err := walkPaths(c, p, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "/" + name
}

// VersionEntry is one archive's record for a path, returned by
// GetVersion.
type VersionEntry struct {
	Archive ArchiveNum
	HasData bool
	Data    State
	DataAt  dartime.Date
	HasEA   bool
	EA      State
	EAAt    dartime.Date
}

// GetVersion returns, for path, one VersionEntry per archive in which it
// has a data or EA record, ascending by archive number.
func (db *DB) GetVersion(path string) ([]VersionEntry, error) {
	if err := db.requireTree(); err != nil {
		return nil, err
	}
	n, err := db.find(path)
	if err != nil {
		return nil, err
	}
	seen := map[ArchiveNum]bool{}
	for num := range n.lastMod {
		seen[num] = true
	}
	for num := range n.lastChange {
		seen[num] = true
	}
	nums := make([]ArchiveNum, 0, len(seen))
	for num := range seen {
		nums = append(nums, num)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })

	out := make([]VersionEntry, 0, len(nums))
	for _, num := range nums {
		ve := VersionEntry{Archive: num}
		if dr, ok := n.lastMod[num]; ok {
			ve.HasData, ve.Data, ve.DataAt = true, dr.Present, dr.Date
		}
		if er, ok := n.lastChange[num]; ok {
			ve.HasEA, ve.EA, ve.EAAt = true, er.Present, er.Date
		}
		out = append(out, ve)
	}
	return out, nil
}

func (db *DB) find(path string) (*node, error) {
	cur := db.root
	for _, part := range splitPath(path) {
		c := cur.child(part)
		if c == nil {
			return nil, derr.E(derr.Data, "dardb: no such path "+path)
		}
		cur = c
	}
	return cur, nil
}

func splitPath(path string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if i > start {
				out = append(out, path[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// CheckOrder walks the whole tree verifying that, within each node's
// data and EA maps, dates increase monotonically with archive number;
// violations are logged once via dlog and otherwise silenced for the
// rest of the pass (check_map_order's one-shot warning behaviour). It
// reports whether the whole tree was found in order.
func (db *DB) CheckOrder() (bool, error) {
	if err := db.requireTree(); err != nil {
		return false, err
	}
	warn := true
	ok := checkOrderSubtree(db.root, "", &warn)
	return ok, nil
}

func checkOrderSubtree(n *node, path string, warnLeft *bool) bool {
	ok := checkMapOrder(n.lastMod, path, "data", warnLeft) && checkMapOrder(n.lastChange, path, "EA", warnLeft)
	for _, c := range n.Children {
		if !checkOrderSubtree(c, joinPath(path, c.Name), warnLeft) {
			ok = false
		}
	}
	return ok
}

func checkMapOrder(m map[ArchiveNum]record, path, field string, warnLeft *bool) bool {
	nums := make([]ArchiveNum, 0, len(m))
	for num := range m {
		nums = append(nums, num)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	ok := true
	for i := 1; i < len(nums); i++ {
		prev, cur := m[nums[i-1]], m[nums[i]]
		if cur.Date.Cmp(prev.Date) < 0 {
			ok = false
			if *warnLeft {
				dlog.Error.Printf("dardb: %s order violation at %q (%s): archive %d dated before archive %d", field, path, field, nums[i], nums[i-1])
				*warnLeft = false
			}
		}
	}
	return ok
}
