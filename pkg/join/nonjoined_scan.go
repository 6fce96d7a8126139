package join

import "github.com/sqlkit/joinengine/pkg/block"

// NonJoinedScanner walks every build-side row that never matched a probe
// (spec §4.8): hash-table slots whose UsedFlags bit is still clear, plus
// every row stashed in the NullmapStash (null key or failed condition,
// which never reached the table at all). It is meaningful only for
// Right/Full kind, or RightAny strictness; callers drive it once, after
// every left-side block has been probed.
type NonJoinedScanner struct {
	hj         *HashJoin
	sampleLeft block.Block
	pending    []RowRef
	pos        int
}

// NewNonJoinedScanner snapshots the set of unmatched right rows.
// sampleLeft describes the left-side schema used to null-pad the left
// columns of each emitted row.
func (hj *HashJoin) NewNonJoinedScanner(sampleLeft block.Block) *NonJoinedScanner {
	hj.mu.RLock()
	defer hj.mu.RUnlock()

	s := &NonJoinedScanner{hj: hj, sampleLeft: sampleLeft}

	switch {
	case hj.tableOne != nil:
		hj.tableOne.ForEach(func(slot uint32, p *RowRef) bool {
			if !hj.usedFlags.Get(slot) {
				s.pending = append(s.pending, *p)
			}
			return true
		})
	case hj.tableAll != nil:
		hj.tableAll.ForEach(func(slot uint32, p *RowRefList) bool {
			if !hj.usedFlags.Get(slot) {
				p.ForEach(func(ref RowRef) bool {
					s.pending = append(s.pending, ref)
					return true
				})
			}
			return true
		})
	}

	for _, entry := range hj.nullStash.entries {
		for i, ok := entry.mask.NextSet(0); ok; i, ok = entry.mask.NextSet(i + 1) {
			s.pending = append(s.pending, RowRef{Block: entry.blockIdx, Row: uint32(i)})
		}
	}

	return s
}

// Next produces the next chunk of unmatched right rows, bounded by
// Descriptor.MaxBlockSize (0 means unbounded, one call drains everything).
// ok is false once every unmatched row has been emitted.
func (s *NonJoinedScanner) Next() (out block.Block, ok bool, err error) {
	if s.pos >= len(s.pending) {
		return nil, false, nil
	}

	limit := s.hj.desc.MaxBlockSize
	end := len(s.pending)
	if limit > 0 && s.pos+limit < end {
		end = s.pos + limit
	}

	builder := s.hj.newNonJoinedOutputBuilder(s.sampleLeft)
	n := s.sampleLeft.NumColumns()
	for _, ref := range s.pending[s.pos:end] {
		rightBlock := s.hj.blocks.Get(ref.Block)
		for i := 0; i < n; i++ {
			builder.Builder(i).AppendNull(1)
		}
		for j, i := range s.hj.outputRightCols {
			builder.Builder(n + j).AppendFrom(rightBlock.Column(i), int(ref.Row), 1)
		}
	}
	s.pos = end

	return builder.Build(), true, nil
}

func (hj *HashJoin) newNonJoinedOutputBuilder(sampleLeft block.Block) block.BlockBuilder {
	names := make([]string, 0, sampleLeft.NumColumns()+len(hj.outputRightCols))
	builders := make([]block.Builder, 0, cap(names))
	for i := 0; i < sampleLeft.NumColumns(); i++ {
		col := sampleLeft.Column(i)
		names = append(names, sampleLeft.Name(i))
		builders = append(builders, block.NewBuilder(col.Type(), col.FixedLen(), 0, true))
	}
	for _, i := range hj.outputRightCols {
		col := hj.sampleRight.Column(i)
		names = append(names, hj.sampleRight.Name(i))
		builders = append(builders, block.NewBuilder(col.Type(), col.FixedLen(), 0, col.Nullable()))
	}
	return block.NewChunkBuilder(names, builders)
}
