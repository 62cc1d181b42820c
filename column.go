package calmsql

// Nullability is the tri-state nullability of a result column. The zero
// value is NullUnknown so a freshly described column starts undetermined.
type Nullability int

const (
	NullUnknown Nullability = iota
	NotNull
	Nullable
)

func (n Nullability) String() string {
	switch n {
	case NotNull:
		return "not null"
	case Nullable:
		return "nullable"
	default:
		return "unknown"
	}
}

// Merge combines two nullability claims with the permissive tie-break:
// if either side claims nullable the result is nullable, unknown defers to
// the other side, and only two non-null claims stay non-null.
func (n Nullability) Merge(other Nullability) Nullability {
	if n == Nullable || other == Nullable {
		return Nullable
	}

	if n == NotNull || other == NotNull {
		return NotNull
	}

	return NullUnknown
}

// Origin identifies the base-table column a result column was read from.
type Origin struct {
	TableOID uint32
	AttNum   uint16
}

// ColumnShape is the inferred shape of one result column. Describe fills
// Name, TypeOID, Type/Supported, Origin and the alias Override; catalog and
// plan analysis refine Nullable. Once Override is set it wins over any
// inferred value.
type ColumnShape struct {
	Name      string
	TypeOID   uint32
	Type      TypeTag
	Supported bool
	Nullable  Nullability
	Origin    *Origin
	Override  Nullability // NullUnknown when no alias marker was present
}
