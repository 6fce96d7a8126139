package join

import (
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/require"

	"github.com/sqlkit/joinengine/pkg/block"
)

// JoinGet performs a single-row point lookup against an already-built
// Left/Any engine, returning the named right-side column's value.
func TestJoinGetReturnsMatchingColumnValue(t *testing.T) {
	right := keyBlock([]string{"rk", "rv"}, []int64{1, 2}, []int64{10, 20})
	desc := Descriptor{Kind: Left, Strictness: Any, LeftKeys: []string{"lk"}, RightKeys: []string{"rk"}}

	hj, err := New(desc, right, nil)
	require.NoError(t, err)
	_, err = hj.AddBlock(right)
	require.NoError(t, err)

	keyCol := block.NewFixedColumn([]int64{2})
	value, isNull, found, err := hj.JoinGet([][]byte{keyCol.KeyBytes(0)}, "rv")
	require.NoError(t, err)
	require.True(t, found)
	require.False(t, isNull)

	fc, ok := right.Column(1).(*block.FixedColumn[int64])
	require.True(t, ok)
	require.Equal(t, fc.KeyBytes(1), value)
}

// JoinGet reports found=false for a key that was never built, and rejects
// calls against a (kind, strictness) it does not support.
func TestJoinGetMissingKeyAndUnsupportedKind(t *testing.T) {
	right := keyBlock([]string{"rk", "rv"}, []int64{1}, []int64{10})
	desc := Descriptor{Kind: Left, Strictness: Any, LeftKeys: []string{"lk"}, RightKeys: []string{"rk"}}

	hj, err := New(desc, right, nil)
	require.NoError(t, err)
	_, err = hj.AddBlock(right)
	require.NoError(t, err)

	keyCol := block.NewFixedColumn([]int64{99})
	_, _, found, err := hj.JoinGet([][]byte{keyCol.KeyBytes(0)}, "rv")
	require.NoError(t, err)
	require.False(t, found)

	innerDesc := Descriptor{Kind: Inner, Strictness: All, LeftKeys: []string{"lk"}, RightKeys: []string{"rk"}}
	innerHJ, err := New(innerDesc, right, nil)
	require.NoError(t, err)
	_, _, _, err = innerHJ.JoinGet([][]byte{keyCol.KeyBytes(0)}, "rv")
	require.Error(t, err)
	var je *Error
	require.ErrorAs(t, err, &je)
	require.Equal(t, IncompatibleTypeOfJoin, je.Kind)
}

// RightAny keeps the first-built row at a key even when AnyTakeLastRow
// would normally prefer the last one.
func TestRightAnyKeepsFirstBuiltRow(t *testing.T) {
	right := keyBlock([]string{"rk", "rv"}, []int64{1, 1}, []int64{10, 20})
	desc := Descriptor{
		Kind: Right, Strictness: RightAny,
		LeftKeys: []string{"lk"}, RightKeys: []string{"rk"},
		AnyTakeLastRow: true,
	}

	hj, err := New(desc, right, nil)
	require.NoError(t, err)
	_, err = hj.AddBlock(right)
	require.NoError(t, err)

	left := keyBlock([]string{"lk", "lv"}, []int64{1}, []int64{100})
	out, err := hj.JoinBlock(left)
	require.NoError(t, err)
	require.Equal(t, 1, out.NumRows())

	rv, _, ok := out.ColumnByName("rv")
	require.True(t, ok)
	fc, ok := rv.(*block.FixedColumn[int64])
	require.True(t, ok)
	require.Equal(t, int64(10), fc.Value(0))
}

// Right+Any emits a matched build row at most once even when several left
// rows probe the same key, instead of once per matching left row.
func TestRightAnyEmitsBuildRowAtMostOnce(t *testing.T) {
	right := keyBlock([]string{"rk", "rv"}, []int64{1}, []int64{10})
	desc := Descriptor{Kind: Right, Strictness: Any, LeftKeys: []string{"lk"}, RightKeys: []string{"rk"}}

	hj, err := New(desc, right, nil)
	require.NoError(t, err)
	_, err = hj.AddBlock(right)
	require.NoError(t, err)

	left := keyBlock([]string{"lk", "lv"}, []int64{1, 1}, []int64{100, 200})
	out, err := hj.JoinBlock(left)
	require.NoError(t, err)
	require.Equal(t, 1, out.NumRows())
}

// ReuseJoinedData freezes the build side once and lets multiple probes
// share it; AddBlock after freezing is a logic error.
func TestReuseJoinedDataFreezesAndShares(t *testing.T) {
	right := keyBlock([]string{"rk", "rv"}, []int64{1}, []int64{10})
	desc := Descriptor{Kind: Inner, Strictness: Any, LeftKeys: []string{"lk"}, RightKeys: []string{"rk"}}

	hj, err := New(desc, right, nil)
	require.NoError(t, err)
	_, err = hj.AddBlock(right)
	require.NoError(t, err)

	reused := NewReuseJoinedData(hj)
	require.True(t, hj.Frozen())

	left := keyBlock([]string{"lk", "lv"}, []int64{1}, []int64{100})
	out, err := reused.JoinBlock(left)
	require.NoError(t, err)
	require.Equal(t, 1, out.NumRows())

	clone := reused.Clone()
	out2, err := clone.JoinBlock(left)
	require.NoError(t, err)
	require.Equal(t, 1, out2.NumRows())

	_, err = hj.AddBlock(right)
	require.Error(t, err)
	var je *Error
	require.ErrorAs(t, err, &je)
	require.Equal(t, LogicError, je.Kind)
}

// stubDictionary implements DictionaryReader over a small in-memory map,
// keyed the same way rawKey would encode a single int64 column.
type stubDictionary struct {
	rows map[int64][]any
}

func (d *stubDictionary) Lookup(key []byte) ([]any, bool) {
	for k, row := range d.rows {
		ref := block.NewFixedColumn([]int64{k})
		if string(ref.KeyBytes(0)) == string(key) {
			return row, true
		}
	}
	return nil, false
}

// Method Dict looks up Descriptor.Dictionary instead of a hash table and
// behaves like Left+Any regardless of the configured Strictness.
func TestDictMethodLooksUpExternalDictionary(t *testing.T) {
	right := keyBlock([]string{"rk", "rv"}, nil, nil)
	dict := &stubDictionary{rows: map[int64][]any{
		1: {int64(1), int64(10)},
	}}
	desc := Descriptor{
		Kind: Left, Strictness: All,
		LeftKeys: []string{"lk"}, RightKeys: []string{"rk"},
		Dictionary: dict,
	}

	hj, err := New(desc, right, nil)
	require.NoError(t, err)

	left := keyBlock([]string{"lk", "lv"}, []int64{1, 2}, []int64{100, 200})
	out, err := hj.JoinBlock(left)
	require.NoError(t, err)
	require.Equal(t, 2, out.NumRows())

	rv, _, ok := out.ColumnByName("rv")
	require.True(t, ok)
	require.False(t, rv.IsNull(0))
	require.True(t, rv.IsNull(1))
}

// Semi strictness against a Right-kind engine emits a joined row for a
// left row that finds a match (each build-side row at most once) and
// nothing for a left row without one.
func TestSemiStrictnessEmitsOnlyMatchedPayload(t *testing.T) {
	right := keyBlock([]string{"rk", "rv"}, []int64{1, 2}, []int64{10, 20})
	desc := Descriptor{Kind: Right, Strictness: Semi, LeftKeys: []string{"lk"}, RightKeys: []string{"rk"}}

	hj, err := New(desc, right, nil)
	require.NoError(t, err)
	_, err = hj.AddBlock(right)
	require.NoError(t, err)

	left := keyBlock([]string{"lk", "lv"}, []int64{1, 3}, []int64{100, 300})
	out, err := hj.JoinBlock(left)
	require.NoError(t, err)
	require.Equal(t, 1, out.NumRows())
}

// A nullable right-side asof column is rejected at the first build block
// rather than silently producing wrong lookups later.
func TestAsofRejectsNullableRightColumn(t *testing.T) {
	nulls := bitset.New(2)
	nulls.Set(1)
	right := block.NewChunk([]string{"rk", "ts", "rv"}, []block.Column{
		block.NewFixedColumn([]int64{1, 1}),
		block.NewNullableFixedColumn([]int64{10, 20}, nulls),
		block.NewFixedColumn([]int64{100, 200}),
	})
	desc := Descriptor{
		Kind: Left, Strictness: Asof,
		LeftKeys: []string{"lk", "lts"}, RightKeys: []string{"rk", "ts"},
		AsofInequality: LessOrEqual,
	}

	hj, err := New(desc, right, nil)
	require.NoError(t, err)
	_, err = hj.AddBlock(right)
	require.Error(t, err)
	var je *Error
	require.ErrorAs(t, err, &je)
	require.Equal(t, NotImplemented, je.Kind)
}
