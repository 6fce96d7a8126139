package join

import "github.com/sqlkit/joinengine/pkg/block"

// chooseMethod picks the hash-table key strategy for a set of equi-join
// key columns, following the byte-width profile rules of spec §4.1. Asof
// callers pass keyCols with the trailing asof column already stripped.
func chooseMethod(keyCols []block.Column) Method {
	if len(keyCols) == 0 {
		return MethodCross
	}

	if len(keyCols) == 1 {
		col := underlying(keyCols[0])
		switch col.Type() {
		case block.TypeString:
			return MethodKeyString
		case block.TypeFixedString:
			return MethodKeyFixedString
		default:
			switch col.Type().Width(col.FixedLen()) {
			case 1:
				return MethodKey8
			case 2:
				return MethodKey16
			case 4:
				return MethodKey32
			case 8:
				return MethodKey64
			}
		}
	}

	if totalWidth, ok := fixedTotalWidth(keyCols); ok {
		switch {
		case totalWidth <= 16:
			return MethodKeys128
		case totalWidth <= 32:
			return MethodKeys256
		}
	}

	return MethodHashed
}

// underlying strips Const/LowCardinality wrappers to inspect the concrete
// column type a key strategy cares about.
func underlying(col block.Column) block.Column {
	for {
		under, _, _, ok := col.Unwrap()
		if !ok {
			return col
		}
		col = under
	}
}

// fixedTotalWidth reports the sum of fixed byte widths across cols, and
// whether every column has a fixed (non-string, non-variable) width.
func fixedTotalWidth(cols []block.Column) (int, bool) {
	total := 0
	for _, c := range cols {
		under := underlying(c)
		w := under.Type().Width(under.FixedLen())
		if w < 0 {
			return 0, false
		}
		total += w
	}
	return total, true
}
