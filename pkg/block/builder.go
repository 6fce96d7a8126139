package block

import (
	"encoding/binary"
	"math"

	"github.com/bits-and-blooms/bitset"
)

func decodeFixed[T numeric](b []byte) T {
	var zero T
	switch any(zero).(type) {
	case int8:
		return any(int8(b[0])).(T)
	case int16:
		return any(int16(binary.LittleEndian.Uint16(b))).(T)
	case int32:
		return any(int32(binary.LittleEndian.Uint32(b))).(T)
	case int64:
		return any(int64(binary.LittleEndian.Uint64(b))).(T)
	case float32:
		return any(math.Float32frombits(binary.LittleEndian.Uint32(b))).(T)
	case float64:
		return any(math.Float64frombits(binary.LittleEndian.Uint64(b))).(T)
	default:
		panic("block: unsupported numeric type")
	}
}

// FixedColumnBuilder assembles a FixedColumn[T] row by row. It only ever
// touches its source through Column's narrow trait (IsNull/KeyBytes), so it
// can append from a FixedColumn, a ConstColumn, or a LowCardinalityColumn
// without type-switching on the concrete source.
type FixedColumnBuilder[T numeric] struct {
	values []T
	nulls  *bitset.BitSet
}

// NewFixedColumnBuilder creates a builder with pre-reserved capacity.
// nullable controls whether a null bitmap is tracked from the start.
func NewFixedColumnBuilder[T numeric](capacity int, nullable bool) *FixedColumnBuilder[T] {
	b := &FixedColumnBuilder[T]{values: make([]T, 0, capacity)}
	if nullable {
		b.nulls = bitset.New(uint(capacity))
	}
	return b
}

func (b *FixedColumnBuilder[T]) Len() int { return len(b.values) }

func (b *FixedColumnBuilder[T]) ensureNulls() {
	if b.nulls == nil {
		b.nulls = bitset.New(uint(len(b.values)))
	}
}

func (b *FixedColumnBuilder[T]) AppendFrom(src Column, srcRow int, n int) {
	isNull := src.IsNull(srcRow)
	var v T
	if !isNull {
		v = decodeFixed[T](src.KeyBytes(srcRow))
	}
	start := len(b.values)
	for i := 0; i < n; i++ {
		b.values = append(b.values, v)
	}
	if isNull {
		b.ensureNulls()
	}
	if b.nulls != nil && isNull {
		for i := 0; i < n; i++ {
			b.nulls.Set(uint(start + i))
		}
	}
}

func (b *FixedColumnBuilder[T]) AppendNull(n int) {
	b.ensureNulls()
	start := len(b.values)
	var zero T
	for i := 0; i < n; i++ {
		b.values = append(b.values, zero)
		b.nulls.Set(uint(start + i))
	}
}

func (b *FixedColumnBuilder[T]) AppendDefault(n int) {
	var zero T
	for i := 0; i < n; i++ {
		b.values = append(b.values, zero)
	}
}

func (b *FixedColumnBuilder[T]) Build() Column {
	if b.nulls != nil {
		return NewNullableFixedColumn(b.values, b.nulls)
	}
	return NewFixedColumn(b.values)
}

// StringColumnBuilder assembles a StringColumn row by row.
type StringColumnBuilder struct {
	data     [][]byte
	nulls    *bitset.BitSet
	fixedLen int
}

// NewStringColumnBuilder creates a builder; fixedLen > 0 produces a
// fixed-string column.
func NewStringColumnBuilder(capacity int, fixedLen int) *StringColumnBuilder {
	return &StringColumnBuilder{data: make([][]byte, 0, capacity), fixedLen: fixedLen}
}

func (b *StringColumnBuilder) Len() int { return len(b.data) }

func (b *StringColumnBuilder) ensureNulls() {
	if b.nulls == nil {
		b.nulls = bitset.New(uint(len(b.data)))
	}
}

func (b *StringColumnBuilder) AppendFrom(src Column, srcRow int, n int) {
	isNull := src.IsNull(srcRow)
	var v []byte
	if !isNull {
		raw := src.KeyBytes(srcRow)
		v = make([]byte, len(raw))
		copy(v, raw)
	} else if b.fixedLen > 0 {
		v = make([]byte, b.fixedLen)
	}
	start := len(b.data)
	for i := 0; i < n; i++ {
		b.data = append(b.data, v)
	}
	if isNull {
		b.ensureNulls()
	}
	if b.nulls != nil && isNull {
		for i := 0; i < n; i++ {
			b.nulls.Set(uint(start + i))
		}
	}
}

func (b *StringColumnBuilder) AppendNull(n int) {
	b.ensureNulls()
	start := len(b.data)
	empty := make([]byte, b.fixedLen)
	for i := 0; i < n; i++ {
		b.data = append(b.data, empty)
		b.nulls.Set(uint(start + i))
	}
}

func (b *StringColumnBuilder) AppendDefault(n int) {
	empty := make([]byte, b.fixedLen)
	for i := 0; i < n; i++ {
		b.data = append(b.data, empty)
	}
}

func (b *StringColumnBuilder) Build() Column {
	if b.fixedLen > 0 {
		return &StringColumn{data: b.data, nulls: b.nulls, fixedLen: b.fixedLen}
	}
	if b.nulls != nil {
		return NewNullableStringColumn(b.data, b.nulls)
	}
	return NewStringColumn(b.data)
}

// NewBuilder returns a Builder matching the logical type t (and fixedLen,
// for TypeFixedString). The join engine creates every output-column builder
// through this function rather than switching on Type() itself.
func NewBuilder(t Type, fixedLen int, capacity int, nullable bool) Builder {
	switch t {
	case TypeInt8:
		return NewFixedColumnBuilder[int8](capacity, nullable)
	case TypeInt16:
		return NewFixedColumnBuilder[int16](capacity, nullable)
	case TypeInt32:
		return NewFixedColumnBuilder[int32](capacity, nullable)
	case TypeInt64:
		return NewFixedColumnBuilder[int64](capacity, nullable)
	case TypeFloat32:
		return NewFixedColumnBuilder[float32](capacity, nullable)
	case TypeFloat64:
		return NewFixedColumnBuilder[float64](capacity, nullable)
	case TypeString, TypeFixedString:
		if t == TypeString {
			fixedLen = 0
		}
		sb := NewStringColumnBuilder(capacity, fixedLen)
		if nullable {
			sb.ensureNulls()
		}
		return sb
	default:
		panic("block: unsupported type")
	}
}
