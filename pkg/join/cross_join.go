package join

import "github.com/sqlkit/joinengine/pkg/block"

// CrossJoinStreamer emits the cross product of one left-side block against
// every stored right-side block, resuming across calls to Next so a single
// left block can be spread over many bounded output blocks (spec §4.7).
type CrossJoinStreamer struct {
	hj   *HashJoin
	left block.Block

	leftRow  int
	blockIdx int32
	rightRow int
	done     bool
}

// NewCrossJoinStreamer starts streaming left against the engine's stored
// right-side blocks. hj must be a Cross-kind engine.
func (hj *HashJoin) NewCrossJoinStreamer(left block.Block) (*CrossJoinStreamer, error) {
	if hj.desc.Kind != Cross {
		return nil, errLogic("NewCrossJoinStreamer called on a non-Cross engine")
	}
	return &CrossJoinStreamer{hj: hj, left: left}, nil
}

// Next produces the next output block, bounded by Descriptor.
// MaxJoinedBlockRows (0 means unbounded, emitting everything in one call).
// ok is false once every pair has been emitted.
func (s *CrossJoinStreamer) Next() (out block.Block, ok bool, err error) {
	if s.done {
		return nil, false, nil
	}

	s.hj.mu.RLock()
	defer s.hj.mu.RUnlock()

	limit := s.hj.desc.MaxJoinedBlockRows
	builder := s.hj.newCrossOutputBuilder(s.left)
	emitted := 0
	totalRight := s.hj.blocks.Len()

	for s.leftRow < s.left.NumRows() {
		if int(s.blockIdx) >= totalRight {
			s.leftRow++
			s.blockIdx = 0
			s.rightRow = 0
			continue
		}
		rightBlock := s.hj.blocks.Get(s.blockIdx)
		if s.rightRow >= rightBlock.NumRows() {
			s.blockIdx++
			s.rightRow = 0
			continue
		}

		s.hj.emitCrossRow(builder, s.left, s.leftRow, rightBlock, s.rightRow)
		emitted++
		s.rightRow++

		if limit > 0 && emitted >= limit {
			return builder.Build(), true, nil
		}
	}

	s.done = true
	if emitted == 0 {
		return nil, false, nil
	}
	return builder.Build(), true, nil
}

func (hj *HashJoin) newCrossOutputBuilder(left block.Block) block.BlockBuilder {
	names := make([]string, 0, left.NumColumns()+len(hj.outputRightCols))
	builders := make([]block.Builder, 0, cap(names))
	for i := 0; i < left.NumColumns(); i++ {
		col := left.Column(i)
		names = append(names, left.Name(i))
		builders = append(builders, block.NewBuilder(col.Type(), col.FixedLen(), 0, col.Nullable()))
	}
	for _, i := range hj.outputRightCols {
		col := hj.sampleRight.Column(i)
		names = append(names, hj.sampleRight.Name(i))
		builders = append(builders, block.NewBuilder(col.Type(), col.FixedLen(), 0, col.Nullable()))
	}
	return block.NewChunkBuilder(names, builders)
}

func (hj *HashJoin) emitCrossRow(out block.BlockBuilder, left block.Block, leftRow int, right block.Block, rightRow int) {
	n := left.NumColumns()
	for i := 0; i < n; i++ {
		out.Builder(i).AppendFrom(left.Column(i), leftRow, 1)
	}
	for j, i := range hj.outputRightCols {
		out.Builder(n + j).AppendFrom(right.Column(i), rightRow, 1)
	}
}
