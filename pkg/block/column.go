package block

import (
	"encoding/binary"
	"math"

	"github.com/bits-and-blooms/bitset"
)

// numeric is the set of Go types FixedColumn can hold.
type numeric interface {
	int8 | int16 | int32 | int64 | float32 | float64
}

func typeOf[T numeric]() Type {
	var zero T
	switch any(zero).(type) {
	case int8:
		return TypeInt8
	case int16:
		return TypeInt16
	case int32:
		return TypeInt32
	case int64:
		return TypeInt64
	case float32:
		return TypeFloat32
	case float64:
		return TypeFloat64
	default:
		panic("block: unsupported numeric type")
	}
}

// FixedColumn is a fixed-width numeric column. Nulls are carried in an
// optional bitmap (nil means "not nullable"); this is intrinsic nullability
// rather than a wrapper layer, so no Unwrap step is needed for it.
type FixedColumn[T numeric] struct {
	values []T
	nulls  *bitset.BitSet // nil => never null
	scratch [8]byte
}

// NewFixedColumn builds a FixedColumn from values with no nulls possible.
func NewFixedColumn[T numeric](values []T) *FixedColumn[T] {
	return &FixedColumn[T]{values: values}
}

// NewNullableFixedColumn builds a FixedColumn whose i-th value is NULL iff
// nulls.Test(uint(i)); nulls may be nil for "no nulls present, but nullable".
func NewNullableFixedColumn[T numeric](values []T, nulls *bitset.BitSet) *FixedColumn[T] {
	if nulls == nil {
		nulls = bitset.New(uint(len(values)))
	}
	return &FixedColumn[T]{values: values, nulls: nulls}
}

func (c *FixedColumn[T]) Len() int  { return len(c.values) }
func (c *FixedColumn[T]) Type() Type { return typeOf[T]() }
func (c *FixedColumn[T]) FixedLen() int { return 0 }

func (c *FixedColumn[T]) IsNull(row int) bool {
	return c.nulls != nil && c.nulls.Test(uint(row))
}

func (c *FixedColumn[T]) Nullable() bool { return c.nulls != nil }

func (c *FixedColumn[T]) Unwrap() (Column, bool, bool, bool) { return nil, false, false, false }

func (c *FixedColumn[T]) Value(row int) T { return c.values[row] }

func (c *FixedColumn[T]) KeyBytes(row int) []byte {
	v := c.values[row]
	switch x := any(v).(type) {
	case int8:
		c.scratch[0] = byte(x)
		return c.scratch[:1]
	case int16:
		binary.LittleEndian.PutUint16(c.scratch[:2], uint16(x))
		return c.scratch[:2]
	case int32:
		binary.LittleEndian.PutUint32(c.scratch[:4], uint32(x))
		return c.scratch[:4]
	case int64:
		binary.LittleEndian.PutUint64(c.scratch[:8], uint64(x))
		return c.scratch[:8]
	case float32:
		binary.LittleEndian.PutUint32(c.scratch[:4], math.Float32bits(x))
		return c.scratch[:4]
	case float64:
		binary.LittleEndian.PutUint64(c.scratch[:8], math.Float64bits(x))
		return c.scratch[:8]
	default:
		panic("block: unsupported numeric type")
	}
}

func (c *FixedColumn[T]) Clone() Column {
	values := make([]T, len(c.values))
	copy(values, c.values)
	var nulls *bitset.BitSet
	if c.nulls != nil {
		nulls = c.nulls.Clone()
	}
	return &FixedColumn[T]{values: values, nulls: nulls}
}

// StringColumn holds variable-length (or fixed-length, when fixedLen > 0)
// byte strings with an optional null bitmap.
type StringColumn struct {
	data     [][]byte
	nulls    *bitset.BitSet
	fixedLen int
}

// NewStringColumn builds a non-nullable variable-width string column.
func NewStringColumn(data [][]byte) *StringColumn {
	return &StringColumn{data: data}
}

// NewNullableStringColumn builds a string column with an explicit null
// bitmap (nil allowed, meaning "nullable but none present yet").
func NewNullableStringColumn(data [][]byte, nulls *bitset.BitSet) *StringColumn {
	if nulls == nil {
		nulls = bitset.New(uint(len(data)))
	}
	return &StringColumn{data: data, nulls: nulls}
}

// NewFixedStringColumn builds a fixed-width string column; every entry in
// data must have length fixedLen.
func NewFixedStringColumn(data [][]byte, fixedLen int) *StringColumn {
	return &StringColumn{data: data, fixedLen: fixedLen}
}

func (c *StringColumn) Len() int { return len(c.data) }
func (c *StringColumn) Type() Type {
	if c.fixedLen > 0 {
		return TypeFixedString
	}
	return TypeString
}
func (c *StringColumn) FixedLen() int { return c.fixedLen }

func (c *StringColumn) IsNull(row int) bool {
	return c.nulls != nil && c.nulls.Test(uint(row))
}

func (c *StringColumn) Nullable() bool { return c.nulls != nil }

func (c *StringColumn) Unwrap() (Column, bool, bool, bool) { return nil, false, false, false }

func (c *StringColumn) Value(row int) []byte { return c.data[row] }

func (c *StringColumn) KeyBytes(row int) []byte { return c.data[row] }

func (c *StringColumn) Clone() Column {
	data := make([][]byte, len(c.data))
	for i, v := range c.data {
		cp := make([]byte, len(v))
		copy(cp, v)
		data[i] = cp
	}
	var nulls *bitset.BitSet
	if c.nulls != nil {
		nulls = c.nulls.Clone()
	}
	return &StringColumn{data: data, nulls: nulls, fixedLen: c.fixedLen}
}

// ConstColumn repeats a single row len times. KeyBytes resolves the
// repeated value directly for every row, so the join engine's build and
// probe paths never need to expand a ConstColumn via Materialize; that
// helper exists for callers that do need a concrete, per-row column.
type ConstColumn struct {
	value Column // length-1 column holding the repeated value
	n     int
}

// NewConstColumn wraps a length-1 column to logically repeat n times.
func NewConstColumn(value Column, n int) *ConstColumn {
	if value.Len() != 1 {
		panic("block: ConstColumn requires a length-1 underlying column")
	}
	return &ConstColumn{value: value, n: n}
}

func (c *ConstColumn) Len() int      { return c.n }
func (c *ConstColumn) Type() Type    { return c.value.Type() }
func (c *ConstColumn) FixedLen() int { return c.value.FixedLen() }
func (c *ConstColumn) IsNull(int) bool   { return c.value.IsNull(0) }
func (c *ConstColumn) Nullable() bool    { return c.value.Nullable() }
func (c *ConstColumn) Unwrap() (Column, bool, bool, bool) { return c.value, true, false, true }
func (c *ConstColumn) KeyBytes(int) []byte { return c.value.KeyBytes(0) }
func (c *ConstColumn) Clone() Column {
	return &ConstColumn{value: c.value.Clone(), n: c.n}
}

// LowCardinalityColumn dictionary-encodes a column with few distinct
// values: indices[row] selects into dict.
type LowCardinalityColumn struct {
	dict    Column
	indices []int32
}

// NewLowCardinalityColumn builds a dictionary-encoded column.
func NewLowCardinalityColumn(dict Column, indices []int32) *LowCardinalityColumn {
	return &LowCardinalityColumn{dict: dict, indices: indices}
}

func (c *LowCardinalityColumn) Len() int      { return len(c.indices) }
func (c *LowCardinalityColumn) Type() Type    { return c.dict.Type() }
func (c *LowCardinalityColumn) FixedLen() int { return c.dict.FixedLen() }
func (c *LowCardinalityColumn) IsNull(row int) bool {
	return c.dict.IsNull(int(c.indices[row]))
}

func (c *LowCardinalityColumn) Nullable() bool { return c.dict.Nullable() }
func (c *LowCardinalityColumn) Unwrap() (Column, bool, bool, bool) {
	return c.dict, false, true, true
}
func (c *LowCardinalityColumn) KeyBytes(row int) []byte {
	return c.dict.KeyBytes(int(c.indices[row]))
}
func (c *LowCardinalityColumn) Clone() Column {
	indices := make([]int32, len(c.indices))
	copy(indices, c.indices)
	return &LowCardinalityColumn{dict: c.dict.Clone(), indices: indices}
}
