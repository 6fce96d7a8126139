package block

import (
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/require"
)

func TestFixedColumnBasics(t *testing.T) {
	col := NewFixedColumn([]int64{1, 2, 3})
	require.Equal(t, 3, col.Len())
	require.Equal(t, TypeInt64, col.Type())
	require.False(t, col.IsNull(0))
	require.Equal(t, int64(2), col.Value(1))
}

func TestNullableFixedColumn(t *testing.T) {
	nulls := bitset.New(3)
	nulls.Set(1)
	col := NewNullableFixedColumn([]int64{1, 0, 3}, nulls)
	require.False(t, col.IsNull(0))
	require.True(t, col.IsNull(1))
	require.False(t, col.IsNull(2))
}

func TestConstColumnUnwrap(t *testing.T) {
	base := NewFixedColumn([]int32{7})
	c := NewConstColumn(base, 5)
	require.Equal(t, 5, c.Len())
	require.Equal(t, TypeInt32, c.Type())
	under, wasConst, wasLC, ok := c.Unwrap()
	require.True(t, ok)
	require.True(t, wasConst)
	require.False(t, wasLC)
	require.Same(t, base, under)
}

func TestMaterializeConst(t *testing.T) {
	base := NewFixedColumn([]int64{42})
	c := NewConstColumn(base, 4)
	m := Materialize(c)
	require.Equal(t, 4, m.Len())
	for i := 0; i < 4; i++ {
		require.False(t, m.IsNull(i))
	}
	fc, ok := m.(*FixedColumn[int64])
	require.True(t, ok)
	for i := 0; i < 4; i++ {
		require.Equal(t, int64(42), fc.Value(i))
	}
}

func TestLowCardinalityColumn(t *testing.T) {
	dict := NewStringColumn([][]byte{[]byte("a"), []byte("b")})
	lc := NewLowCardinalityColumn(dict, []int32{0, 1, 1, 0})
	require.Equal(t, 4, lc.Len())
	require.Equal(t, []byte("b"), lc.KeyBytes(1))
	m := Materialize(lc)
	sc, ok := m.(*StringColumn)
	require.True(t, ok)
	require.Equal(t, []byte("a"), sc.Value(0))
	require.Equal(t, []byte("b"), sc.Value(2))
}

func TestFilter(t *testing.T) {
	k := NewFixedColumn([]int64{1, 2, 3, 4})
	v := NewStringColumn([][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d")})
	ch := NewChunk([]string{"k", "v"}, []Column{k, v})
	out := Filter(ch, []bool{false, true, false, true})
	require.Equal(t, 2, out.NumRows())
	require.Equal(t, int64(2), out.Column(0).(*FixedColumn[int64]).Value(0))
	require.Equal(t, int64(4), out.Column(0).(*FixedColumn[int64]).Value(1))
}

func TestReplicate(t *testing.T) {
	k := NewFixedColumn([]int64{10, 20, 30})
	ch := NewChunk([]string{"k"}, []Column{k})
	// row0 -> 2 copies, row1 -> 0 copies, row2 -> 1 copy
	out := Replicate(ch, []int{2, 2, 3})
	require.Equal(t, 3, out.NumRows())
	fc := out.Column(0).(*FixedColumn[int64])
	require.Equal(t, int64(10), fc.Value(0))
	require.Equal(t, int64(10), fc.Value(1))
	require.Equal(t, int64(30), fc.Value(2))
}

func TestColumnsByNames(t *testing.T) {
	k := NewFixedColumn([]int64{1})
	v := NewStringColumn([][]byte{[]byte("x")})
	ch := NewChunk([]string{"k", "v"}, []Column{k, v})
	cols, idx, ok := ColumnsByNames(ch, []string{"v", "k"})
	require.True(t, ok)
	require.Equal(t, []int{1, 0}, idx)
	require.Equal(t, TypeString, cols[0].Type())
	_, _, ok = ColumnsByNames(ch, []string{"nope"})
	require.False(t, ok)
}
