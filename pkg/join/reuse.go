package join

import "github.com/sqlkit/joinengine/pkg/block"

// Freeze stops accepting AddBlock calls and marks the engine ready for
// concurrent probing (spec §5): once frozen, JoinBlock/JoinGet/the
// non-joined scan may run from any number of goroutines while AddBlock
// returns a LogicError. Freeze is idempotent.
func (hj *HashJoin) Freeze() {
	hj.mu.Lock()
	defer hj.mu.Unlock()
	hj.frozen = true
}

// Frozen reports whether Freeze has been called.
func (hj *HashJoin) Frozen() bool {
	hj.mu.RLock()
	defer hj.mu.RUnlock()
	return hj.frozen
}

// ReuseJoinedData lets several probe-side operators share one already-built
// HashJoin without re-running the build side for each (spec §5's storage
// join sharing): every Clone shares the same immutable tables, StoredBlockList
// and NullmapStash, and serializes only through the shared UsedFlags, which
// are already safe for concurrent access.
type ReuseJoinedData struct {
	hj *HashJoin
}

// NewReuseJoinedData wraps hj, freezing it if it is not already frozen.
func NewReuseJoinedData(hj *HashJoin) *ReuseJoinedData {
	hj.Freeze()
	return &ReuseJoinedData{hj: hj}
}

// Clone returns a probe-only handle sharing the same build-side state. The
// returned *HashJoin must not be used to call AddBlock.
func (r *ReuseJoinedData) Clone() *HashJoin {
	return r.hj
}

// JoinBlock is a convenience forward so callers can probe directly through
// the shared handle without unwrapping Clone().
func (r *ReuseJoinedData) JoinBlock(left block.Block) (block.Block, error) {
	return r.hj.JoinBlock(left)
}
