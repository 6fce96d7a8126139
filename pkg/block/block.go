// Package block defines the narrow columnar-block trait the join engine
// consumes. The engine reads its input blocks only through Column and
// Block (column lookup by index or name, row count, constant/low-cardinality
// unwrapping, null tests and key bytes), so any columnar store can supply
// input by implementing them.
//
// This package also ships a small reference implementation (FixedColumn,
// StringColumn, ConstColumn, LowCardinalityColumn, and Chunk/ChunkBuilder)
// good enough to build and probe join blocks in tests and in cmd/joinbench.
// The engine assembles its output blocks with this implementation's
// builders (NewBuilder, NewChunkBuilder, NewChunk).
package block

// Type tags the logical type of a column, independent of how nulls or
// dictionary-encoding are layered on top of it.
type Type int

// Supported column types. Width() reports the fixed byte width used by the
// join engine's key-strategy selection (join §4.1); -1 means variable width.
const (
	TypeInt8 Type = iota
	TypeInt16
	TypeInt32
	TypeInt64
	TypeFloat32
	TypeFloat64
	TypeString
	TypeFixedString
)

// Width returns the fixed byte width for t, or -1 for variable-width types.
// fixedLen is only consulted for TypeFixedString.
func (t Type) Width(fixedLen int) int {
	switch t {
	case TypeInt8:
		return 1
	case TypeInt16:
		return 2
	case TypeInt32, TypeFloat32:
		return 4
	case TypeInt64, TypeFloat64:
		return 8
	case TypeFixedString:
		return fixedLen
	default:
		return -1
	}
}

// Column is a read-only view over one named series of values. All
// operations the join engine needs — null testing, wrapper unwrapping, and
// producing a comparable/hashable key representation — are exposed here;
// nothing else.
type Column interface {
	// Len reports the number of logical rows.
	Len() int
	// Type reports the column's logical type, after peeling Const and
	// LowCardinality wrappers (never after peeling nullability).
	Type() Type
	// FixedLen is the byte width for TypeFixedString columns; 0 otherwise.
	FixedLen() int
	// IsNull reports whether row is NULL. Always false for a column that
	// cannot contain nulls.
	IsNull(row int) bool
	// Nullable reports whether the column can hold NULL at all, regardless
	// of whether any row currently does. Output-schema construction uses
	// this to decide whether a builder needs a null bitmap.
	Nullable() bool
	// Unwrap peels one layer of Const or LowCardinality wrapping, reporting
	// the underlying column and which kind of wrapper it was. ok is false
	// for a column carrying no such wrapper (including Nullable — nulls are
	// intrinsic, not a wrapper, see DESIGN.md).
	Unwrap() (under Column, wasConst bool, wasLowCardinality bool, ok bool)
	// KeyBytes returns a byte representation of row suitable for hashing
	// and byte-wise equality comparison (little-endian for fixed-width
	// numeric types, raw bytes for strings). The slice must not be
	// retained past the next call with a different row on columns that
	// reuse a scratch buffer.
	KeyBytes(row int) []byte
	// Clone returns a new Column with identical contents; builders never
	// alias a Column handed to them by a caller.
	Clone() Column
}

// Builder assembles a new Column one (possibly replicated) row at a time.
type Builder interface {
	Len() int
	// AppendFrom copies row srcRow of src, including nullness, n times
	// (n==1 for a plain append; n>1 implements replication by a row's
	// offset-vector count in one call).
	AppendFrom(src Column, srcRow int, n int)
	// AppendNull appends n NULL rows. Only valid for nullable builders.
	AppendNull(n int)
	// AppendDefault appends n rows holding the type's zero value
	// (non-null).
	AppendDefault(n int)
	Build() Column
}

// Block is an ordered set of same-length named columns.
type Block interface {
	NumColumns() int
	NumRows() int
	Column(i int) Column
	Name(i int) string
	// ColumnByName returns the column and its index, or ok=false.
	ColumnByName(name string) (col Column, index int, ok bool)
}

// BlockBuilder assembles a Block column-by-column.
type BlockBuilder interface {
	NumColumns() int
	Builder(i int) Builder
	Build() Block
}
