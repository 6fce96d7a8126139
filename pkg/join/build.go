package join

import (
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/pingcap/failpoint"
	"go.uber.org/zap"

	"github.com/sqlkit/joinengine/pkg/block"
)

// AddBlock ingests one right-side block into the build side (spec §4.4). It
// returns false (with no error) once a hard MaxRows/MaxBytes limit is
// reached; the caller is expected to stop feeding blocks. A soft limit only
// logs a warning and returns true.
func (hj *HashJoin) AddBlock(b block.Block) (bool, error) {
	hj.mu.Lock()
	defer hj.mu.Unlock()

	if hj.frozen {
		return false, errLogic("AddBlock called after the join was frozen for reuse")
	}
	if hj.desc.Kind == Cross || hj.desc.Dictionary != nil {
		return hj.addBlockUnkeyed(b)
	}

	keyCols, _, err := resolveColumns(b, hj.desc.RightKeys)
	if err != nil {
		return false, err
	}
	equiKeyCols := keyCols
	var asofCol block.Column
	if hj.desc.Strictness == Asof {
		equiKeyCols = keyCols[:len(keyCols)-1]
		asofCol = keyCols[len(keyCols)-1]
		if !hj.asofValidated {
			if err := validateAsofColumn(asofCol); err != nil {
				return false, err
			}
			hj.asofValidated = true
		}
	}

	if hj.method == MethodEmpty {
		hj.method = chooseMethod(equiKeyCols)
	}

	condCol, err := resolveConditionColumn(b, hj.desc.RightConditionColumn)
	if err != nil {
		return false, err
	}

	nrows := b.NumRows()
	if uint64(nrows) > math.MaxUint32 {
		return false, errNotImplemented("build block has %d rows, exceeding the %d a RowRef can address", nrows, uint32(math.MaxUint32))
	}

	blockIdx := hj.blocks.Append(b)
	mask := bitset.New(uint(nrows))

	for row := 0; row < nrows; row++ {
		if rowHasNullKey(equiKeyCols, row) || (condCol != nil && !boolAt(condCol, row)) {
			mask.Set(uint(row))
			continue
		}
		ref := RowRef{Block: blockIdx, Row: uint32(row)}
		hj.insertRow(equiKeyCols, asofCol, row, ref)
	}
	hj.nullStash.append(blockIdx, mask)

	hj.usedFlags.Resize(hj.currentSlotCount())

	hj.rows.Add(uint64(nrows))
	sz := blockByteSize(b)
	hj.bytes.Add(sz)

	return hj.checkLimits()
}

// addBlockUnkeyed stores b for Cross-join streaming or Dict lookups, which
// need no hash table entries at all.
func (hj *HashJoin) addBlockUnkeyed(b block.Block) (bool, error) {
	hj.blocks.Append(b)
	hj.rows.Add(uint64(b.NumRows()))
	hj.bytes.Add(blockByteSize(b))
	return hj.checkLimits()
}

// insertRow inserts one accepted row into whichever table is active.
func (hj *HashJoin) insertRow(equiKeyCols []block.Column, asofCol block.Column, row int, ref RowRef) {
	key := buildKey(hj.method, equiKeyCols, row)

	switch {
	case hj.asofTables != nil:
		idx, ok := hj.asofTables[string(key)]
		if !ok {
			idx = NewAsofIndex()
			hj.asofTables[string(key)] = idx
		}
		idx.Insert(asofKeyValue(asofCol, row), ref)

	case hj.tableAll != nil:
		list, _ := hj.tableAll.Emplace(key)
		list.Append(hj.arena, ref)

	default: // tableOne
		slot, inserted := hj.tableOne.Emplace(key)
		if inserted || hj.wantsOverwrite() {
			*slot = ref
		}
	}
}

// wantsOverwrite reports whether a fresh insert into an occupied MapsOne
// slot should replace the existing payload (spec Descriptor.AnyTakeLastRow,
// SPEC_FULL §12.3: RightAny always keeps the first row regardless).
func (hj *HashJoin) wantsOverwrite() bool {
	if hj.desc.Strictness == RightAny {
		return false
	}
	return hj.desc.AnyTakeLastRow
}

// currentSlotCount reports how many UsedFlags slots the active table now
// needs.
func (hj *HashJoin) currentSlotCount() uint32 {
	switch {
	case hj.tableAll != nil:
		return uint32(hj.tableAll.Len())
	case hj.tableOne != nil:
		return uint32(hj.tableOne.Len())
	default:
		return 0
	}
}

func (hj *HashJoin) checkLimits() (bool, error) {
	rows, bytesUsed := hj.rows.Load(), hj.bytes.Load()

	forceBreach := false
	failpoint.Inject("hashJoinForceSizeLimit", func() {
		forceBreach = true
	})
	if forceBreach {
		hj.logger.Warn("build side hard limit exceeded", zap.Error(errSizeLimit("build side row limit exceeded (forced by failpoint): %d", rows)))
		return false, nil
	}

	if hj.desc.SoftMaxRows != 0 && rows > hj.desc.SoftMaxRows {
		hj.logger.Warn("build side exceeded soft row limit", zapRows(rows), zapLimit(hj.desc.SoftMaxRows))
	}
	if hj.desc.SoftMaxBytes != 0 && bytesUsed > hj.desc.SoftMaxBytes {
		hj.logger.Warn("build side exceeded soft byte limit", zapBytes(bytesUsed), zapLimit(hj.desc.SoftMaxBytes))
	}

	if hj.desc.MaxRows != 0 && rows > hj.desc.MaxRows {
		hj.logger.Warn("build side hard limit exceeded", zap.Error(errSizeLimit("build side row limit exceeded: %d > %d", rows, hj.desc.MaxRows)))
		return false, nil
	}
	if hj.desc.MaxBytes != 0 && bytesUsed > hj.desc.MaxBytes {
		hj.logger.Warn("build side hard limit exceeded", zap.Error(errSizeLimit("build side byte limit exceeded: %d > %d", bytesUsed, hj.desc.MaxBytes)))
		return false, nil
	}
	return true, nil
}

// resolveColumns returns the columns named by names, in order, exactly as
// found in b (Const/LowCardinality wrappers are left in place; KeyBytes
// resolves them per row), or a NoSuchColumnInTable error.
func resolveColumns(b block.Block, names []string) ([]block.Column, []int, error) {
	cols := make([]block.Column, len(names))
	idxs := make([]int, len(names))
	for i, name := range names {
		col, idx, ok := b.ColumnByName(name)
		if !ok {
			return nil, nil, errNoSuchColumn("column %q not found in block", name)
		}
		cols[i] = col
		idxs[i] = idx
	}
	return cols, idxs, nil
}

// resolveConditionColumn returns the named bool mask column, or nil if name
// is empty (no condition configured).
func resolveConditionColumn(b block.Block, name string) (block.Column, error) {
	if name == "" {
		return nil, nil
	}
	col, _, ok := b.ColumnByName(name)
	if !ok {
		return nil, errNoSuchColumn("condition column %q not found in block", name)
	}
	return col, nil
}

// boolAt reads a bool-typed mask column (stored as TypeInt8, 0/1) at row.
func boolAt(col block.Column, row int) bool {
	if col.IsNull(row) {
		return false
	}
	return col.KeyBytes(row)[0] != 0
}

// validateAsofColumn checks the asof key column once, at the first build
// block, rather than re-checking its type/nullability on every row (spec
// SPEC_FULL §12.4): it must be a fixed-width integral or floating type, and
// must not be nullable on the right, since asofKeyValue has no encoding for
// a missing asof value.
func validateAsofColumn(col block.Column) error {
	if col.Nullable() {
		return errNotImplemented("asof join requires a non-nullable right-side asof column")
	}
	switch underlying(col).Type() {
	case block.TypeInt8, block.TypeInt16, block.TypeInt32, block.TypeInt64,
		block.TypeFloat32, block.TypeFloat64:
		return nil
	default:
		return errNotImplemented("asof join requires a fixed-width integral or floating asof column")
	}
}

// blockByteSize estimates b's memory footprint by summing each column's
// per-row key-byte width (spec §4.4 byte accounting feeds MaxBytes/
// SoftMaxBytes).
func blockByteSize(b block.Block) uint64 {
	var total uint64
	for i := 0; i < b.NumColumns(); i++ {
		col := b.Column(i)
		n := col.Len()
		for row := 0; row < n; row++ {
			total += uint64(len(col.KeyBytes(row)))
		}
	}
	return total
}
