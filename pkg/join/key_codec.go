package join

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/sqlkit/joinengine/pkg/block"
)

// rawKey concatenates the key bytes of cols at row into a single lookup
// key. A single fixed-width or single-string column is returned verbatim
// (the common case, and what lets MethodKey8..64/KeyString/KeyFixedString
// avoid any allocation beyond what KeyBytes itself does); two or more
// columns are length-prefixed per segment so variable-width segments
// cannot be confused with a differently-split multi-column key (spec
// §4.1/§4.2, "Method" governs only this encoding, not the table shape).
func rawKey(cols []block.Column, row int) []byte {
	if len(cols) == 1 {
		return cols[0].KeyBytes(row)
	}

	total := 0
	segs := make([][]byte, len(cols))
	for i, c := range cols {
		segs[i] = c.KeyBytes(row)
		total += 4 + len(segs[i])
	}
	out := make([]byte, 0, total)
	var lenBuf [4]byte
	for _, seg := range segs {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(seg)))
		out = append(out, lenBuf[:]...)
		out = append(out, seg...)
	}
	return out
}

// buildKey is rawKey's caller-facing counterpart: for MethodHashed — the
// fallback chosen once a key's columns no longer fit any fixed-width
// packing (spec §4.1) — it collapses the (possibly long) concatenated
// key down to a fixed 8-byte xxhash digest before it ever reaches the
// table, so a wide multi-column hashed key costs the same map-entry
// overhead as a single int64 key. Every other Method keeps rawKey's bytes
// verbatim, since they're already fixed-width or a single natural key.
func buildKey(method Method, cols []block.Column, row int) []byte {
	raw := rawKey(cols, row)
	if method != MethodHashed {
		return raw
	}
	var digest [8]byte
	binary.LittleEndian.PutUint64(digest[:], xxhash.Sum64(raw))
	return digest[:]
}

// rowHasNullKey reports whether any of cols is null at row: such a row
// never participates in equi-join matching; on the build side it is kept
// out of the table and recorded in the NullmapStash instead (spec §3, §4.4).
func rowHasNullKey(cols []block.Column, row int) bool {
	for _, c := range cols {
		if c.IsNull(row) {
			return true
		}
	}
	return false
}

// asofKeyValue converts the asof column's value at row to the monotonic
// uint64 representation AsofIndex orders by: signed integers are shifted
// into the unsigned range by flipping the sign bit, and IEEE-754 floats are
// remapped so unsigned integer comparison of the result matches
// floating-point comparison of the original value (spec §4.3). A uint64
// total order, rather than int64, is required so 64-bit floats round-trip
// correctly across the whole range without the crossover discontinuity a
// signed cast would introduce at the sign boundary.
func asofKeyValue(col block.Column, row int) uint64 {
	raw := col.KeyBytes(row)
	switch col.Type() {
	case block.TypeInt8:
		return uint64(uint8(raw[0]) ^ 0x80)
	case block.TypeInt16:
		return uint64(binary.LittleEndian.Uint16(raw) ^ 0x8000)
	case block.TypeInt32:
		return uint64(binary.LittleEndian.Uint32(raw) ^ 0x80000000)
	case block.TypeInt64:
		return binary.LittleEndian.Uint64(raw) ^ 0x8000000000000000
	case block.TypeFloat32:
		bits := binary.LittleEndian.Uint32(raw)
		return uint64(orderedFloatBits32(bits))
	case block.TypeFloat64:
		bits := binary.LittleEndian.Uint64(raw)
		return orderedFloatBits64(bits)
	default:
		return 0
	}
}

// orderedFloatBits32/64 flip IEEE-754 bit patterns so unsigned integer
// comparison of the result matches floating-point comparison of the
// original value: negative numbers (sign bit set) get every bit inverted,
// positive numbers just get the sign bit set.
func orderedFloatBits32(bits uint32) uint32 {
	if bits&0x80000000 != 0 {
		return ^bits
	}
	return bits | 0x80000000
}

func orderedFloatBits64(bits uint64) uint64 {
	if bits&0x8000000000000000 != 0 {
		return ^bits
	}
	return bits | 0x8000000000000000
}
