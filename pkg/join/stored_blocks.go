package join

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/sqlkit/joinengine/pkg/block"
)

// StoredBlockList is the append-only list of right-side blocks the build
// engine has ingested. Addresses (indices) stay stable for the engine's
// lifetime once assigned; RowRef.Block indexes into it (spec §3).
type StoredBlockList struct {
	blocks []block.Block
}

// Append stores b and returns its stable index.
func (s *StoredBlockList) Append(b block.Block) int32 {
	s.blocks = append(s.blocks, b)
	return int32(len(s.blocks) - 1)
}

// Get returns the block stored at idx.
func (s *StoredBlockList) Get(idx int32) block.Block {
	return s.blocks[idx]
}

// Len returns the number of stored blocks.
func (s *StoredBlockList) Len() int { return len(s.blocks) }

// nullmapStashEntry records one build block's "excluded from the table"
// row mask: a row with a null key, or one that failed the right-side
// condition mask, is never inserted, but Right/Full still must surface it
// during the non-joined scan (spec §3 NullmapStash, §4.4 bullet 6).
type nullmapStashEntry struct {
	blockIdx int32
	mask     *bitset.BitSet // bit set => row excluded from the table and must resurface
}

// NullmapStash is the append-only list of excluded-row masks accumulated
// during build.
type NullmapStash struct {
	entries []nullmapStashEntry
}

func (n *NullmapStash) append(blockIdx int32, mask *bitset.BitSet) {
	if mask.Count() == 0 {
		return
	}
	n.entries = append(n.entries, nullmapStashEntry{blockIdx: blockIdx, mask: mask})
}

// Len reports the number of stashed entries (not rows).
func (n *NullmapStash) Len() int { return len(n.entries) }
