package block

// Materialize fully resolves Const and LowCardinality wrappers into a
// plain column of the same length and logical type. Nullable columns are
// left as-is — nullability is intrinsic, not a wrapper (see Column.Unwrap).
// The join engine's build path does not call this directly: KeyBytes
// already resolves a wrapper transparently per row, which is cheaper than
// materializing a whole column up front when most rows never key-match.
// Materialize stays as a general-purpose helper for callers (e.g. an
// expression evaluator) that do need a concrete column.
func Materialize(col Column) Column {
	if _, _, _, ok := col.Unwrap(); !ok {
		return col
	}
	b := BuilderLike(col, col.Len())
	for i := 0; i < col.Len(); i++ {
		b.AppendFrom(col, i, 1)
	}
	return b.Build()
}

// BuilderLike returns a Builder matching col's logical type, pre-sized for
// capacity rows, nullable iff col itself is nullable.
func BuilderLike(col Column, capacity int) Builder {
	return NewBuilder(col.Type(), col.FixedLen(), capacity, col.Nullable())
}

// Filter returns a new Block keeping only the rows where selected[i] is
// true. len(selected) must equal b.NumRows().
func Filter(b Block, selected []bool) Block {
	kept := 0
	for _, s := range selected {
		if s {
			kept++
		}
	}
	builders := make([]Builder, b.NumColumns())
	names := make([]string, b.NumColumns())
	for i := 0; i < b.NumColumns(); i++ {
		col := b.Column(i)
		names[i] = b.Name(i)
		builders[i] = BuilderLike(col, kept)
	}
	for row, keep := range selected {
		if !keep {
			continue
		}
		for i := range builders {
			builders[i].AppendFrom(b.Column(i), row, 1)
		}
	}
	return NewChunkBuilder(names, builders).Build()
}

// Replicate returns a new Block where source row i is repeated
// offsets[i]-offsets[i-1] times (offsets[-1] treated as 0): offsets is a
// cumulative prefix-sum vector of output row counts, matching the
// replicate-by-offsets convention of the columnar library this engine's
// Block trait stands in for. len(offsets) must equal b.NumRows().
func Replicate(b Block, offsets []int) Block {
	total := 0
	if len(offsets) > 0 {
		total = offsets[len(offsets)-1]
	}
	builders := make([]Builder, b.NumColumns())
	names := make([]string, b.NumColumns())
	for i := 0; i < b.NumColumns(); i++ {
		col := b.Column(i)
		names[i] = b.Name(i)
		builders[i] = BuilderLike(col, total)
	}
	prev := 0
	for row, end := range offsets {
		count := end - prev
		prev = end
		if count <= 0 {
			continue
		}
		for i := range builders {
			builders[i].AppendFrom(b.Column(i), row, count)
		}
	}
	return NewChunkBuilder(names, builders).Build()
}

// ColumnsByNames resolves a list of column names against b, in order.
func ColumnsByNames(b Block, names []string) ([]Column, []int, bool) {
	cols := make([]Column, len(names))
	idx := make([]int, len(names))
	for i, name := range names {
		col, j, ok := b.ColumnByName(name)
		if !ok {
			return nil, nil, false
		}
		cols[i] = col
		idx[i] = j
	}
	return cols, idx, true
}
