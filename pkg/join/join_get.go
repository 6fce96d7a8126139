package join

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// JoinGet performs a single-row dictionary-style point lookup against the
// build side: given one KeyBytes-encoded value per right-side key column,
// which it combines into a lookup key the same way buildKey does, it
// returns the named right-side column's value for
// the matching row (spec §4.9/Glossary). It is only defined for Left kind
// combined with Any or RightAny strictness, mirroring the teacher's
// narrowly-scoped dictGet-style helper.
func (hj *HashJoin) JoinGet(keys [][]byte, column string) (value []byte, isNull bool, found bool, err error) {
	hj.mu.RLock()
	defer hj.mu.RUnlock()

	if hj.desc.Kind != Left || (hj.desc.Strictness != Any && hj.desc.Strictness != RightAny) {
		return nil, false, false, errIncompatibleJoin("JoinGet requires Left kind with Any or RightAny strictness, got %s/%s", hj.desc.Kind, hj.desc.Strictness)
	}
	if len(keys) != len(hj.desc.RightKeys) {
		return nil, false, false, errArgCount("JoinGet expected %d key values, got %d", len(hj.desc.RightKeys), len(keys))
	}

	col, _, ok := hj.sampleRight.ColumnByName(column)
	if !ok {
		return nil, false, false, errNoSuchColumn("column %q not found on the right-side table", column)
	}

	key := concatKeyBytes(keys)
	if hj.method == MethodHashed {
		var digest [8]byte
		binary.LittleEndian.PutUint64(digest[:], xxhash.Sum64(key))
		key = digest[:]
	}
	ref, ok := hj.lookupOne(key)
	if !ok {
		return nil, false, false, nil
	}

	rightBlock := hj.blocks.Get(ref.Block)
	rightCol, _, ok := rightBlock.ColumnByName(column)
	if !ok {
		return nil, false, false, errNoSuchColumn("column %q not found in stored block", column)
	}
	if underlying(rightCol).Type() != underlying(col).Type() {
		return nil, false, false, errTypeMismatch("column %q type mismatch between sample and stored block", column)
	}

	row := int(ref.Row)
	if rightCol.IsNull(row) {
		return nil, true, true, nil
	}
	return rightCol.KeyBytes(row), false, true, nil
}

// concatKeyBytes mirrors rawKey's multi-column length-prefixed encoding
// for callers that already hold per-column key bytes (e.g. a planner
// evaluating literal arguments to JoinGet).
func concatKeyBytes(segs [][]byte) []byte {
	if len(segs) == 1 {
		return segs[0]
	}
	total := 0
	for _, s := range segs {
		total += 4 + len(s)
	}
	out := make([]byte, 0, total)
	var lenBuf [4]byte
	for _, s := range segs {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
		out = append(out, lenBuf[:]...)
		out = append(out, s...)
	}
	return out
}
