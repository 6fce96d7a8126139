package join

import (
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/require"

	"github.com/sqlkit/joinengine/pkg/block"
)

func keyBlock(names []string, key []int64, value []int64) block.Block {
	return block.NewChunk(names, []block.Column{
		block.NewFixedColumn(key),
		block.NewFixedColumn(value),
	})
}

func nullableKeyBlock(names []string, key []int64, nulls *bitset.BitSet, value []int64) block.Block {
	return block.NewChunk(names, []block.Column{
		block.NewNullableFixedColumn(key, nulls),
		block.NewFixedColumn(value),
	})
}

// S1: Inner/All with duplicate right-side keys replicates one output row
// per match.
func TestInnerAllReplicatesMatches(t *testing.T) {
	right := keyBlock([]string{"rk", "rv"}, []int64{1, 1, 2}, []int64{10, 11, 20})
	desc := Descriptor{Kind: Inner, Strictness: All, LeftKeys: []string{"lk"}, RightKeys: []string{"rk"}}

	hj, err := New(desc, right, nil)
	require.NoError(t, err)
	ok, err := hj.AddBlock(right)
	require.NoError(t, err)
	require.True(t, ok)

	left := keyBlock([]string{"lk", "lv"}, []int64{1, 2, 3}, []int64{100, 200, 300})
	out, err := hj.JoinBlock(left)
	require.NoError(t, err)
	require.Equal(t, 3, out.NumRows())
}

// S2: Left/Any pads unmatched left rows with null right columns.
func TestLeftAnyPadsUnmatched(t *testing.T) {
	right := keyBlock([]string{"rk", "rv"}, []int64{1}, []int64{10})
	desc := Descriptor{Kind: Left, Strictness: Any, LeftKeys: []string{"lk"}, RightKeys: []string{"rk"}}

	hj, err := New(desc, right, nil)
	require.NoError(t, err)
	_, err = hj.AddBlock(right)
	require.NoError(t, err)

	left := keyBlock([]string{"lk", "lv"}, []int64{1, 2}, []int64{100, 200})
	out, err := hj.JoinBlock(left)
	require.NoError(t, err)
	require.Equal(t, 2, out.NumRows())

	rvCol, idx, ok := out.ColumnByName("rv")
	require.True(t, ok)
	_ = idx
	require.False(t, rvCol.IsNull(0))
	require.True(t, rvCol.IsNull(1))
}

// S3: Right/All surfaces a null-keyed right row via the non-joined scanner,
// since it never entered the table during build.
func TestRightAllNonJoinedScanSurfacesNullKeyRow(t *testing.T) {
	nulls := bitset.New(3)
	nulls.Set(2)
	right := nullableKeyBlock([]string{"rk", "rv"}, []int64{1, 2, 0}, nulls, []int64{10, 20, 99})
	desc := Descriptor{Kind: Right, Strictness: All, LeftKeys: []string{"lk"}, RightKeys: []string{"rk"}}

	hj, err := New(desc, right, nil)
	require.NoError(t, err)
	_, err = hj.AddBlock(right)
	require.NoError(t, err)

	left := keyBlock([]string{"lk", "lv"}, []int64{1}, []int64{100})
	_, err = hj.JoinBlock(left)
	require.NoError(t, err)
	hj.Freeze()

	sampleLeft := keyBlock([]string{"lk", "lv"}, nil, nil)
	scanner := hj.NewNonJoinedScanner(sampleLeft)

	var total int
	for {
		out, ok, err := scanner.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		total += out.NumRows()
	}
	// row 0 (key=1) matched and is excluded; row 1 (key=2) and row 2
	// (null key) both resurface.
	require.Equal(t, 2, total)
}

// Semi-Left never pads: a left row with a null key (or a failed condition
// mask) is unmatchable by definition and must emit nothing, not a
// left-only row, same as a left row that simply found no match.
func TestSemiLeftNullKeyEmitsNothing(t *testing.T) {
	right := keyBlock([]string{"rk", "rv"}, []int64{1}, []int64{10})
	desc := Descriptor{Kind: Left, Strictness: Semi, LeftKeys: []string{"lk"}, RightKeys: []string{"rk"}}

	hj, err := New(desc, right, nil)
	require.NoError(t, err)
	_, err = hj.AddBlock(right)
	require.NoError(t, err)

	nulls := bitset.New(2)
	nulls.Set(0)
	left := nullableKeyBlock([]string{"lk", "lv"}, []int64{0, 1}, nulls, []int64{100, 200})
	out, err := hj.JoinBlock(left)
	require.NoError(t, err)
	require.Equal(t, 1, out.NumRows())
}

// S4: Anti-Left emits only left rows with no match.
func TestAntiLeftEmitsOnlyUnmatched(t *testing.T) {
	right := keyBlock([]string{"rk", "rv"}, []int64{1}, []int64{10})
	desc := Descriptor{Kind: Left, Strictness: Anti, LeftKeys: []string{"lk"}, RightKeys: []string{"rk"}}

	hj, err := New(desc, right, nil)
	require.NoError(t, err)
	_, err = hj.AddBlock(right)
	require.NoError(t, err)

	left := keyBlock([]string{"lk", "lv"}, []int64{1, 2, 3}, []int64{100, 200, 300})
	out, err := hj.JoinBlock(left)
	require.NoError(t, err)
	require.Equal(t, 2, out.NumRows())
}

// S5: Asof-Left with <= finds the greatest build-side timestamp not after
// the probe's timestamp.
func TestAsofLeftLessOrEqual(t *testing.T) {
	right := block.NewChunk([]string{"rk", "ts", "rv"}, []block.Column{
		block.NewFixedColumn([]int64{1, 1, 1}),
		block.NewFixedColumn([]int64{10, 20, 30}),
		block.NewFixedColumn([]int64{100, 200, 300}),
	})
	desc := Descriptor{
		Kind: Left, Strictness: Asof,
		LeftKeys: []string{"lk", "lts"}, RightKeys: []string{"rk", "ts"},
		AsofInequality: LessOrEqual,
	}
	hj, err := New(desc, right, nil)
	require.NoError(t, err)
	_, err = hj.AddBlock(right)
	require.NoError(t, err)

	left := block.NewChunk([]string{"lk", "lts", "lv"}, []block.Column{
		block.NewFixedColumn([]int64{1}),
		block.NewFixedColumn([]int64{25}),
		block.NewFixedColumn([]int64{1000}),
	})
	out, err := hj.JoinBlock(left)
	require.NoError(t, err)
	require.Equal(t, 1, out.NumRows())

	rv, _, ok := out.ColumnByName("rv")
	require.True(t, ok)
	fc, ok := rv.(*block.FixedColumn[int64])
	require.True(t, ok)
	require.Equal(t, int64(200), fc.Value(0))
}

// S6: Cross join streams in bounded chunks when MaxJoinedBlockRows is set.
func TestCrossJoinStreamsInBoundedChunks(t *testing.T) {
	right := keyBlock([]string{"rk", "rv"}, []int64{1, 2, 3}, []int64{10, 20, 30})
	desc := Descriptor{Kind: Cross, MaxJoinedBlockRows: 2}

	hj, err := New(desc, right, nil)
	require.NoError(t, err)
	_, err = hj.AddBlock(right)
	require.NoError(t, err)

	left := keyBlock([]string{"lk", "lv"}, []int64{100, 200}, []int64{1, 2})
	streamer, err := hj.NewCrossJoinStreamer(left)
	require.NoError(t, err)

	var total, calls int
	for {
		out, ok, err := streamer.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		calls++
		require.LessOrEqual(t, out.NumRows(), 2)
		total += out.NumRows()
	}
	require.Equal(t, 6, total)
	require.Greater(t, calls, 1)
}

// Validate rejects Full+Any per the resolved Open Question.
func TestValidateRejectsFullAny(t *testing.T) {
	desc := Descriptor{Kind: Full, Strictness: Any, LeftKeys: []string{"k"}, RightKeys: []string{"k"}}
	err := desc.validate()
	require.Error(t, err)
	var je *Error
	require.ErrorAs(t, err, &je)
	require.Equal(t, SyntaxError, je.Kind)
}

func TestChooseMethodSingleInt64Key(t *testing.T) {
	col := block.NewFixedColumn([]int64{1, 2, 3})
	require.Equal(t, MethodKey64, chooseMethod([]block.Column{col}))
}

func TestChooseMethodStringKey(t *testing.T) {
	col := block.NewStringColumn([][]byte{[]byte("a"), []byte("b")})
	require.Equal(t, MethodKeyString, chooseMethod([]block.Column{col}))
}

func TestChooseMethodMultiColumnPacksIntoKeys128(t *testing.T) {
	a := block.NewFixedColumn([]int64{1, 2})
	b := block.NewFixedColumn([]int64{3, 4})
	require.Equal(t, MethodKeys128, chooseMethod([]block.Column{a, b}))
}

func TestChooseMethodMixedVariableWidthFallsBackToHashed(t *testing.T) {
	a := block.NewFixedColumn([]int64{1, 2})
	b := block.NewStringColumn([][]byte{[]byte("x"), []byte("yy")})
	require.Equal(t, MethodHashed, chooseMethod([]block.Column{a, b}))
}

// oversizedBlock reports more rows than its (tiny) backing columns
// actually hold, standing in for a build block too large for RowRef.Row
// (uint32) to address without allocating billions of real rows.
type oversizedBlock struct {
	block.Block
	numRows int
}

func (b oversizedBlock) NumRows() int { return b.numRows }

// AddBlock rejects a build block with more rows than a uint32 RowRef can
// address, rather than silently aliasing row indices (spec §4.4 guarantee
// 2, §7 NotImplemented).
func TestAddBlockRejectsOversizedBlock(t *testing.T) {
	right := keyBlock([]string{"rk", "rv"}, []int64{1}, []int64{10})
	desc := Descriptor{Kind: Inner, Strictness: Any, LeftKeys: []string{"lk"}, RightKeys: []string{"rk"}}

	hj, err := New(desc, right, nil)
	require.NoError(t, err)

	oversized := oversizedBlock{Block: right, numRows: 1 << 32}
	_, err = hj.AddBlock(oversized)
	require.Error(t, err)
	var je *Error
	require.ErrorAs(t, err, &je)
	require.Equal(t, NotImplemented, je.Kind)
}
