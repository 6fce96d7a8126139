package join

import (
	"math"

	"github.com/google/btree"
)

// asofEntry is one (asof value, RowRef) pair stored in an AsofIndex leaf.
// Values are the monotonic uint64 encoding asofKeyValue produces, covering
// every signed/unsigned/float width the narrow Column trait exposes (spec
// §4.3).
//
// seq disambiguates entries sharing the same value: google/btree's
// ReplaceOrInsert treats any two items that are mutually "not less" as the
// same key and overwrites one with the other, so ordering purely by value
// would silently collapse a multimap down to one RowRef per value. Ordering
// by (value, seq) keeps every inserted entry distinct while preserving
// value order for the boundary scans Lookup performs. Real entries get seq
// in [0, math.MaxInt64); Lookup uses the reserved extremes below as
// exclusive/inclusive pivots so a single Ascend/Descend call, with no
// follow-up scan, lands on the correct boundary.
type asofEntry struct {
	value uint64
	seq   int64
	ref   RowRef
}

const (
	seqBelowAll = math.MinInt64 // pivot seq: excludes every real entry at this value from below
	seqAboveAll = math.MaxInt64 // pivot seq: excludes every real entry at this value from above
)

func (a asofEntry) Less(other btree.Item) bool {
	o := other.(asofEntry)
	if a.value != o.value {
		return a.value < o.value
	}
	return a.seq < o.seq
}

// AsofIndex is the per-equi-key ordered multimap from asof-column value to
// RowRef that backs Asof strictness (spec §4.3). Each distinct equi-join
// key gets its own AsofIndex; the build engine keys a map[string]*AsofIndex
// by the same buildKey bytes used for the main table.
type AsofIndex struct {
	tree *btree.BTree
	seq  int64
}

// NewAsofIndex returns an empty index.
func NewAsofIndex() *AsofIndex {
	return &AsofIndex{tree: btree.New(32)}
}

// Insert records ref under asof value v (the encoding asofKeyValue produces).
func (idx *AsofIndex) Insert(v uint64, ref RowRef) {
	idx.tree.ReplaceOrInsert(asofEntry{value: v, seq: idx.seq, ref: ref})
	idx.seq++
}

// Lookup returns the nearest RowRef to v under ineq, or ok=false if none
// qualifies (spec §4.3). For Less/LessOrEqual it returns the greatest
// qualifying value; for Greater/GreaterOrEqual the least.
func (idx *AsofIndex) Lookup(v uint64, ineq Inequality) (ref RowRef, ok bool) {
	var pivot asofEntry
	var found asofEntry
	hasFound := false
	visit := func(item btree.Item) bool {
		found = item.(asofEntry)
		hasFound = true
		return false
	}
	switch ineq {
	case Less:
		// Pivot strictly below every real entry at value v: the descend
		// walk's first hit is the greatest entry with value < v.
		pivot = asofEntry{value: v, seq: seqBelowAll}
		idx.tree.DescendLessOrEqual(pivot, visit)
	case LessOrEqual:
		pivot = asofEntry{value: v, seq: seqAboveAll}
		idx.tree.DescendLessOrEqual(pivot, visit)
	case Greater:
		pivot = asofEntry{value: v, seq: seqAboveAll}
		idx.tree.AscendGreaterOrEqual(pivot, visit)
	case GreaterOrEqual:
		pivot = asofEntry{value: v, seq: seqBelowAll}
		idx.tree.AscendGreaterOrEqual(pivot, visit)
	default:
		return RowRef{}, false
	}
	if !hasFound {
		return RowRef{}, false
	}
	return found.ref, true
}

// Len reports the number of entries inserted.
func (idx *AsofIndex) Len() int {
	return idx.tree.Len()
}
