package join

import (
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/sqlkit/joinengine/pkg/block"
)

// HashJoin is the build-and-probe engine for one join. One instance is
// built from the right-hand side via repeated AddBlock calls, then probed
// concurrently from the left-hand side via JoinBlock (spec §1, §5).
type HashJoin struct {
	desc   Descriptor
	method Method
	logger *zap.Logger

	sampleRight block.Block
	// outputRightCols holds sampleRight's column indices that survive
	// into joined output (spec §4.4 saved_block_sample projection).
	outputRightCols []int

	blocks    StoredBlockList
	nullStash NullmapStash
	arena     *rowRefArena

	// At most one of these is populated (none for Cross or Dict), chosen
	// by desc.Strictness
	// (spec §4.2): tableOne for Any/Semi/Anti/RightAny (existence plus a
	// single payload row suffices), tableAll for All (every match must be
	// emitted), asofTables for Asof (ordered per-key index).
	tableOne   *Table[RowRef]
	tableAll   *Table[RowRefList]
	asofTables map[string]*AsofIndex

	usedFlags UsedFlags

	// asofValidated guards validateAsofColumn so the asof column's type and
	// nullability are checked once, at the first build block, rather than
	// per row (SPEC_FULL §12.4).
	asofValidated bool

	rows  atomic.Uint64
	bytes atomic.Uint64

	// mu guards the transition between building and probing for
	// ReuseJoinedData sharing (spec §5): AddBlock takes it for writing,
	// JoinBlock/the non-joined scan take it for reading.
	mu     sync.RWMutex
	frozen bool
}

// New validates desc and constructs an empty HashJoin ready for AddBlock.
// sampleRight describes the right-side block shape (column names/types)
// used to validate desc's column references up front (SPEC_FULL §10.3);
// it contributes no rows.
func New(desc Descriptor, sampleRight block.Block, logger *zap.Logger) (*HashJoin, error) {
	if err := desc.validate(); err != nil {
		return nil, err
	}
	for _, name := range desc.RightKeys {
		if _, _, ok := sampleRight.ColumnByName(name); !ok {
			return nil, errNoSuchColumn("right-side key column %q not found", name)
		}
	}
	for _, name := range desc.RequiredRightKeys {
		if _, _, ok := sampleRight.ColumnByName(name); !ok {
			return nil, errNoSuchColumn("required right-side key column %q not found", name)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	hj := &HashJoin{
		desc:            desc,
		logger:          logger,
		sampleRight:     sampleRight,
		outputRightCols: computeOutputRightCols(desc, sampleRight),
		arena:           newRowRefArena(),
		usedFlags:       NewUsedFlags(needsUsedFlags(desc.Kind, desc.Strictness)),
	}

	switch {
	case desc.Kind == Cross:
		hj.method = MethodCross
	case desc.Dictionary != nil:
		hj.method = MethodDict
	case desc.Strictness == Asof:
		hj.asofTables = make(map[string]*AsofIndex)
	case desc.Strictness == All:
		hj.tableAll = NewTable[RowRefList]()
	default:
		hj.tableOne = NewTable[RowRef]()
	}

	return hj, nil
}

// computeOutputRightCols lists sampleRight's column indices, in order,
// that survive into joined output. A right-side equi-join key column is
// dropped when it would merely echo its matching left-side key column:
// true for every kind except Right/Full, where an unmatched left row
// makes the right key carry information the left side cannot (spec §4.4
// saved_block_sample). The Asof column never duplicates its left
// counterpart and is never dropped. A column named in RequiredRightKeys
// is always kept (spec Glossary).
func computeOutputRightCols(desc Descriptor, sampleRight block.Block) []int {
	drop := make(map[string]bool)
	if desc.Kind != Right && desc.Kind != Full {
		required := make(map[string]bool, len(desc.RequiredRightKeys))
		for _, name := range desc.RequiredRightKeys {
			required[name] = true
		}
		equiKeys := desc.RightKeys
		if desc.Strictness == Asof && len(equiKeys) > 0 {
			equiKeys = equiKeys[:len(equiKeys)-1]
		}
		for _, name := range equiKeys {
			if !required[name] {
				drop[name] = true
			}
		}
	}
	cols := make([]int, 0, sampleRight.NumColumns())
	for i := 0; i < sampleRight.NumColumns(); i++ {
		if !drop[sampleRight.Name(i)] {
			cols = append(cols, i)
		}
	}
	return cols
}

// Stats is a point-in-time snapshot of build-side size (SPEC_FULL §12.1).
type Stats struct {
	Rows   uint64
	Bytes  uint64
	Method Method
}

// Stats returns the current build-side row/byte counters.
func (hj *HashJoin) Stats() Stats {
	return Stats{Rows: hj.rows.Load(), Bytes: hj.bytes.Load(), Method: hj.method}
}

// GetTotalRowCount reports the total number of right-side rows ingested,
// including rows excluded from the table by a null key or failed
// condition (spec §4.4).
func (hj *HashJoin) GetTotalRowCount() uint64 { return hj.rows.Load() }

// GetTotalByteCount reports the approximate memory footprint of stored
// right-side blocks (spec §4.4).
func (hj *HashJoin) GetTotalByteCount() uint64 { return hj.bytes.Load() }
