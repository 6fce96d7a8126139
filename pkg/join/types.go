package join

// Kind is the join kind (spec §1).
type Kind int

const (
	Inner Kind = iota
	Left
	Right
	Full
	Cross
)

func (k Kind) String() string {
	switch k {
	case Inner:
		return "Inner"
	case Left:
		return "Left"
	case Right:
		return "Right"
	case Full:
		return "Full"
	case Cross:
		return "Cross"
	default:
		return "Unknown"
	}
}

// Strictness is how many right matches to emit per left row (spec
// Glossary).
type Strictness int

const (
	All Strictness = iota
	Any
	Semi
	Anti
	Asof
	// RightAny is the legacy strictness that always keeps the
	// first-built row regardless of Descriptor.AnyTakeLastRow (spec
	// SPEC_FULL §12.3).
	RightAny
)

func (s Strictness) String() string {
	switch s {
	case All:
		return "All"
	case Any:
		return "Any"
	case Semi:
		return "Semi"
	case Anti:
		return "Anti"
	case Asof:
		return "Asof"
	case RightAny:
		return "RightAny"
	default:
		return "Unknown"
	}
}

// Method names the hash-table variant chosen by key-strategy selection
// (spec §4.1).
type Method int

const (
	// MethodEmpty is the pre-build state: no rows have been inserted and
	// no Method has been chosen yet.
	MethodEmpty Method = iota
	MethodKey8
	MethodKey16
	MethodKey32
	MethodKey64
	MethodKeys128
	MethodKeys256
	MethodKeyString
	MethodKeyFixedString
	MethodHashed
	MethodCross
	MethodDict
)

func (m Method) String() string {
	switch m {
	case MethodEmpty:
		return "empty"
	case MethodKey8:
		return "key8"
	case MethodKey16:
		return "key16"
	case MethodKey32:
		return "key32"
	case MethodKey64:
		return "key64"
	case MethodKeys128:
		return "keys128"
	case MethodKeys256:
		return "keys256"
	case MethodKeyString:
		return "key_string"
	case MethodKeyFixedString:
		return "key_fixed_string"
	case MethodHashed:
		return "hashed"
	case MethodCross:
		return "cross"
	case MethodDict:
		return "dict"
	default:
		return "unknown"
	}
}

// Inequality is the comparison an Asof join uses against its trailing key
// column (spec §4.3).
type Inequality int

const (
	Less Inequality = iota
	LessOrEqual
	Greater
	GreaterOrEqual
)

func (ineq Inequality) String() string {
	switch ineq {
	case Less:
		return "<"
	case LessOrEqual:
		return "<="
	case Greater:
		return ">"
	case GreaterOrEqual:
		return ">="
	default:
		return "?"
	}
}

// DictionaryReader is the external collaborator for Method Dict: an
// alternative read source consulted instead of a hash table (spec §9).
type DictionaryReader interface {
	// Lookup returns the right-side row for key (encoded the same way
	// buildKey encodes equi-join keys), or ok=false if absent.
	Lookup(key []byte) (row []any, ok bool)
}

// Descriptor configures a join engine. It plays the role of the resolved
// TableJoin descriptor spec §6 says is supplied by an external planner: the
// engine only ever reads from it, never mutates it, and validates it once
// in New (SPEC_FULL §10.3).
type Descriptor struct {
	Kind       Kind
	Strictness Strictness

	// LeftKeys and RightKeys name the equi-join key columns, in order.
	// For Asof, the last entry of each is the asof key and is excluded
	// from equality.
	LeftKeys  []string
	RightKeys []string

	// AsofInequality is consulted only when Strictness == Asof.
	AsofInequality Inequality

	// RequiredRightKeys names right-side key columns to echo in the
	// output even when they duplicate a left-side key (spec Glossary).
	RequiredRightKeys []string

	// LeftConditionColumn / RightConditionColumn name an optional bool
	// mask column evaluated ahead of time by the (external) expression
	// evaluator; false excludes the row from matching (spec §4.4/§4.5).
	LeftConditionColumn  string
	RightConditionColumn string

	// AnyTakeLastRow: for Any strictness, whether a fresh build-side
	// insert overwrites an existing entry (true) or keeps the first one
	// (false). Ignored for RightAny, which always keeps the first.
	AnyTakeLastRow bool

	ForceNullableLeft  bool
	ForceNullableRight bool

	// MaxRows / MaxBytes are hard build-side limits; exceeding either
	// makes AddBlock return false (spec §7 SetSizeLimitExceeded). Zero
	// means unlimited.
	MaxRows  uint64
	MaxBytes uint64

	// SoftMaxRows / SoftMaxBytes log a warning but do not stop the build
	// (SPEC_FULL §12.5). Zero means no soft limit.
	SoftMaxRows  uint64
	SoftMaxBytes uint64

	// MaxJoinedBlockRows bounds a single cross-join output block (spec
	// §4.7). Zero means unlimited (not recommended for Cross kind).
	MaxJoinedBlockRows int

	// MaxBlockSize bounds a single non-joined-scan output block (spec
	// §4.8). Zero means unlimited.
	MaxBlockSize int

	// Dictionary, when non-nil, makes New select Method Dict, and JoinBlock
	// then consults it instead of a hash table (spec §9); nil disables the
	// dictionary path.
	Dictionary DictionaryReader
}

func (d *Descriptor) validate() error {
	if len(d.LeftKeys) != len(d.RightKeys) {
		return errSyntax("left/right key count mismatch: %d vs %d", len(d.LeftKeys), len(d.RightKeys))
	}
	if d.Strictness == Asof {
		if d.Kind != Left && d.Kind != Inner {
			return errNotImplemented("asof join only supports Left/Inner kind, got %s", d.Kind)
		}
		if len(d.LeftKeys) < 2 {
			return errSyntax("asof join requires at least one equi-join column plus the asof column")
		}
	}
	if d.Kind == Full && d.Strictness == Any {
		// spec §9 Open Question, resolved in SPEC_FULL §12.2.
		return errSyntax("Any strictness combined with Full kind is undefined; choose All or split the query")
	}
	if d.Kind == Cross && len(d.LeftKeys) != 0 {
		return errSyntax("cross join must not specify key columns")
	}
	return nil
}
