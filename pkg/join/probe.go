package join

import (
	"github.com/sqlkit/joinengine/pkg/block"
)

// JoinBlock probes one left-side block against the build side and returns
// the joined output block (spec §4.5). Cross kind must use
// NewCrossJoinStreamer instead; calling JoinBlock on a Cross-kind engine is
// a logic error.
func (hj *HashJoin) JoinBlock(left block.Block) (block.Block, error) {
	hj.mu.RLock()
	defer hj.mu.RUnlock()

	if hj.desc.Kind == Cross {
		return nil, errLogic("JoinBlock called on a Cross-kind engine; use NewCrossJoinStreamer")
	}
	if hj.method == MethodDict {
		return hj.joinBlockDict(left)
	}

	leftKeyCols, _, err := resolveColumns(left, hj.desc.LeftKeys)
	if err != nil {
		return nil, err
	}
	equiLeftCols := leftKeyCols
	var asofLeftCol block.Column
	if hj.desc.Strictness == Asof {
		equiLeftCols = leftKeyCols[:len(leftKeyCols)-1]
		asofLeftCol = leftKeyCols[len(leftKeyCols)-1]
	}
	condCol, err := resolveConditionColumn(left, hj.desc.LeftConditionColumn)
	if err != nil {
		return nil, err
	}

	padRight := hj.desc.Kind == Left || hj.desc.Kind == Full
	out := hj.newOutputBuilder(left, padRight)

	nrows := left.NumRows()
	for row := 0; row < nrows; row++ {
		if (condCol != nil && !boolAt(condCol, row)) || rowHasNullKey(equiLeftCols, row) {
			// Semi never pads: an unacceptable probe row has no match by
			// definition, and Semi emits nothing for a row with no match
			// (spec §4.5 step 2, "For (Left/Full, not Semi)").
			hj.emitNoMatch(out, left, row, padRight && hj.desc.Strictness != Semi)
			continue
		}

		key := buildKey(hj.method, equiLeftCols, row)

		switch hj.desc.Strictness {
		case All:
			list, found := hj.lookupAll(key)
			if !found {
				hj.emitNoMatch(out, left, row, padRight)
				continue
			}
			list.ForEach(func(ref RowRef) bool {
				hj.markUsed(key)
				hj.emitMatch(out, left, row, ref)
				return true
			})

		case Semi:
			ref, found := hj.lookupOne(key)
			if !found {
				continue
			}
			if hj.rightSideDedup() {
				if !hj.claimOnce(key) {
					continue
				}
			} else {
				hj.markUsed(key)
			}
			hj.emitMatch(out, left, row, ref)

		case Anti:
			if _, found := hj.lookupOne(key); !found {
				hj.emitNoMatch(out, left, row, true)
			}

		case Asof:
			v := asofKeyValue(asofLeftCol, row)
			ref, found := hj.lookupAsof(key, v)
			if found {
				hj.emitMatch(out, left, row, ref)
			} else {
				hj.emitNoMatch(out, left, row, padRight)
			}

		default: // Any, RightAny
			ref, found := hj.lookupOne(key)
			if !found {
				hj.emitNoMatch(out, left, row, padRight)
				continue
			}
			if hj.rightSideDedup() {
				if !hj.claimOnce(key) {
					hj.emitNoMatch(out, left, row, padRight)
					continue
				}
			} else {
				hj.markUsed(key)
			}
			hj.emitMatch(out, left, row, ref)
		}
	}

	return out.Build(), nil
}

func (hj *HashJoin) lookupOne(key []byte) (RowRef, bool) {
	if hj.tableOne == nil {
		return RowRef{}, false
	}
	return hj.tableOne.Find(key)
}

func (hj *HashJoin) lookupAll(key []byte) (RowRefList, bool) {
	if hj.tableAll == nil {
		return RowRefList{}, false
	}
	return hj.tableAll.Find(key)
}

func (hj *HashJoin) lookupAsof(key []byte, v uint64) (RowRef, bool) {
	idx, ok := hj.asofTables[string(key)]
	if !ok {
		return RowRef{}, false
	}
	return idx.Lookup(v, hj.desc.AsofInequality)
}

// rightSideDedup reports whether this (kind, strictness) combination must
// emit each build-side row at most once no matter how many left rows probe
// it: Any/Semi/RightAny on a Right or Full join (spec §4.5, §4.6 "Any/Semi
// on Right side"). All other combinations already emit each matching left
// row unconditionally and need no claim.
func (hj *HashJoin) rightSideDedup() bool {
	switch hj.desc.Kind {
	case Right, Full:
	default:
		return false
	}
	switch hj.desc.Strictness {
	case Any, Semi, RightAny:
		return true
	}
	return false
}

// claimOnce marks the table slot addressed by key as consumed and reports
// whether this call won the race to do so (spec §4.5 set_used_once). A key
// with no addressable slot is treated as unconditionally claimable.
func (hj *HashJoin) claimOnce(key []byte) bool {
	if hj.tableOne == nil {
		return true
	}
	slot, ok := hj.tableOne.SlotOf(key)
	if !ok {
		return true
	}
	return hj.usedFlags.SetOnce(slot)
}

// markUsed flags the hash-table slot addressed by key as consumed, for the
// (kind, strictness) combinations that need a non-joined scan afterward.
// It is a no-op under NewUsedFlags(false).
func (hj *HashJoin) markUsed(key []byte) {
	switch {
	case hj.tableAll != nil:
		if slot, ok := hj.tableAll.SlotOf(key); ok {
			hj.usedFlags.Set(slot)
		}
	case hj.tableOne != nil:
		if slot, ok := hj.tableOne.SlotOf(key); ok {
			hj.usedFlags.Set(slot)
		}
	}
}

// emitMatch appends one joined row: left columns from row, right columns
// from the stored block/row ref addresses.
func (hj *HashJoin) emitMatch(out block.BlockBuilder, left block.Block, row int, ref RowRef) {
	rightBlock := hj.blocks.Get(ref.Block)
	n := left.NumColumns()
	for i := 0; i < n; i++ {
		out.Builder(i).AppendFrom(left.Column(i), row, 1)
	}
	for j, i := range hj.outputRightCols {
		out.Builder(n + j).AppendFrom(rightBlock.Column(i), int(ref.Row), 1)
	}
}

// emitNoMatch appends one row with left columns from row and, if padRight,
// null right columns; padRight=false means the row is dropped instead.
// Anti passes padRight=true for every kind, since an Anti row is emitted
// exactly when it has no match.
func (hj *HashJoin) emitNoMatch(out block.BlockBuilder, left block.Block, row int, padRight bool) {
	if !padRight {
		return
	}
	n := left.NumColumns()
	for i := 0; i < n; i++ {
		out.Builder(i).AppendFrom(left.Column(i), row, 1)
	}
	for j := range hj.outputRightCols {
		out.Builder(n + j).AppendNull(1)
	}
}

// newOutputBuilder assembles a BlockBuilder whose schema is left's columns
// followed by the projected right-side columns (spec §4.4 saved_block_sample,
// §4.5). padRight forces the right-hand builders nullable so an outer join
// can pad unmatched rows.
func (hj *HashJoin) newOutputBuilder(left block.Block, padRight bool) block.BlockBuilder {
	names := make([]string, 0, left.NumColumns()+len(hj.outputRightCols))
	builders := make([]block.Builder, 0, cap(names))

	for i := 0; i < left.NumColumns(); i++ {
		col := left.Column(i)
		names = append(names, left.Name(i))
		builders = append(builders, block.NewBuilder(col.Type(), col.FixedLen(), left.NumRows(), col.Nullable()||hj.desc.ForceNullableLeft))
	}
	for _, i := range hj.outputRightCols {
		col := hj.sampleRight.Column(i)
		names = append(names, hj.sampleRight.Name(i))
		nullable := col.Nullable() || hj.desc.ForceNullableRight || padRight
		builders = append(builders, block.NewBuilder(col.Type(), col.FixedLen(), left.NumRows(), nullable))
	}

	return block.NewChunkBuilder(names, builders)
}
