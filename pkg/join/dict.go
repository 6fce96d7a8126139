package join

import "github.com/sqlkit/joinengine/pkg/block"

// dictRow wraps one DictionaryReader.Lookup result into a single-row Block
// matching the sample right-side schema, so the rest of the probe path
// (emitMatch et al.) never needs to know Method Dict exists (spec §9).
func (hj *HashJoin) dictRow(values []any) block.Block {
	builders := make([]block.Builder, hj.sampleRight.NumColumns())
	names := make([]string, hj.sampleRight.NumColumns())
	for i := range builders {
		col := hj.sampleRight.Column(i)
		names[i] = hj.sampleRight.Name(i)
		builders[i] = block.NewBuilder(col.Type(), col.FixedLen(), 1, true)
	}
	for i, v := range values {
		appendScalar(builders[i], v)
	}
	cols := make([]block.Column, len(builders))
	for i, b := range builders {
		cols[i] = b.Build()
	}
	return block.NewChunk(names, cols)
}

// appendScalar appends one Go scalar to b, treating a nil value as NULL.
func appendScalar(b block.Builder, v any) {
	if v == nil {
		b.AppendNull(1)
		return
	}
	src := scalarColumn(v)
	b.AppendFrom(src, 0, 1)
}

// scalarColumn wraps a single Go scalar in a length-1 Column so it can flow
// through the same AppendFrom path every other builder call uses.
func scalarColumn(v any) block.Column {
	switch x := v.(type) {
	case int8:
		return block.NewFixedColumn([]int8{x})
	case int16:
		return block.NewFixedColumn([]int16{x})
	case int32:
		return block.NewFixedColumn([]int32{x})
	case int64:
		return block.NewFixedColumn([]int64{x})
	case int:
		return block.NewFixedColumn([]int64{int64(x)})
	case float32:
		return block.NewFixedColumn([]float32{x})
	case float64:
		return block.NewFixedColumn([]float64{x})
	case string:
		return block.NewStringColumn([][]byte{[]byte(x)})
	case []byte:
		return block.NewStringColumn([][]byte{x})
	default:
		panic("block: unsupported dictionary scalar type")
	}
}

// lookupDict consults Descriptor.Dictionary for key, returning a one-row
// right-side block on success.
func (hj *HashJoin) lookupDict(key []byte) (block.Block, bool) {
	row, ok := hj.desc.Dictionary.Lookup(key)
	if !ok {
		return nil, false
	}
	return hj.dictRow(row), true
}

// joinBlockDict probes left against Descriptor.Dictionary instead of a
// hash table: Method Dict only ever produces at most one right row per
// left row, so it follows Any semantics regardless of the configured
// Strictness (spec §9). An unmatched left row is padded with null right
// columns for Left/Full kind and dropped for any other kind.
func (hj *HashJoin) joinBlockDict(left block.Block) (block.Block, error) {
	leftKeyCols, _, err := resolveColumns(left, hj.desc.LeftKeys)
	if err != nil {
		return nil, err
	}
	padRight := hj.desc.Kind == Left || hj.desc.Kind == Full
	out := hj.newOutputBuilder(left, padRight)

	for row := 0; row < left.NumRows(); row++ {
		if rowHasNullKey(leftKeyCols, row) {
			hj.emitNoMatch(out, left, row, padRight)
			continue
		}
		key := rawKey(leftKeyCols, row)
		rightRow, found := hj.lookupDict(key)
		if !found {
			hj.emitNoMatch(out, left, row, padRight)
			continue
		}
		n := left.NumColumns()
		for i := 0; i < n; i++ {
			out.Builder(i).AppendFrom(left.Column(i), row, 1)
		}
		for j, i := range hj.outputRightCols {
			out.Builder(n + j).AppendFrom(rightRow.Column(i), 0, 1)
		}
	}

	return out.Build(), nil
}
