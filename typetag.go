package calmsql

import "fmt"

// Kind enumerates the semantic scalar kinds a PostgreSQL type OID can map to.
// KindArray is reserved for TypeTag values produced by ArrayOf.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindNumeric
	KindText
	KindBytea
	KindUUID
	KindDate
	KindTime
	KindTimestamp
	KindTimestamptz
	KindInterval
	KindJSON
	KindMoney
	KindOID
	KindArray
)

var kindNames = map[Kind]string{
	KindBool:        "bool",
	KindInt16:       "int16",
	KindInt32:       "int32",
	KindInt64:       "int64",
	KindFloat32:     "float32",
	KindFloat64:     "float64",
	KindNumeric:     "numeric",
	KindText:        "text",
	KindBytea:       "bytea",
	KindUUID:        "uuid",
	KindDate:        "date",
	KindTime:        "time",
	KindTimestamp:   "timestamp",
	KindTimestamptz: "timestamptz",
	KindInterval:    "interval",
	KindJSON:        "json",
	KindMoney:       "money",
	KindOID:         "oid",
	KindArray:       "array",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// TypeTag is the semantic type of a result column: a scalar kind, or an
// array of another TypeTag.
type TypeTag struct {
	Kind Kind
	Elem *TypeTag
}

// Scalar returns the TypeTag for a scalar kind.
func Scalar(k Kind) TypeTag {
	return TypeTag{Kind: k}
}

// ArrayOf returns the TypeTag for an array of elem.
func ArrayOf(elem TypeTag) TypeTag {
	return TypeTag{Kind: KindArray, Elem: &elem}
}

// IsArray reports whether the tag is an array type.
func (t TypeTag) IsArray() bool {
	return t.Kind == KindArray
}

// Equal compares two tags structurally, descending into array elements.
func (t TypeTag) Equal(other TypeTag) bool {
	if t.Kind != other.Kind {
		return false
	}

	if t.Kind != KindArray {
		return true
	}

	if t.Elem == nil || other.Elem == nil {
		return t.Elem == other.Elem
	}

	return t.Elem.Equal(*other.Elem)
}

func (t TypeTag) String() string {
	if t.Kind == KindArray && t.Elem != nil {
		return t.Elem.String() + "[]"
	}

	return t.Kind.String()
}

// TypeCatalog maps PostgreSQL type OIDs to semantic TypeTags. It is seeded
// with the built-in scalar and array types and can be extended with
// additional mappings (enums, domains, extension types) before use. Resolve
// must not be called concurrently with Register.
type TypeCatalog struct {
	scalars map[uint32]Kind
	arrays  map[uint32]uint32 // array OID -> element OID
}

// NewTypeCatalog returns a catalog seeded with the built-in PostgreSQL types.
func NewTypeCatalog() *TypeCatalog {
	c := &TypeCatalog{
		scalars: map[uint32]Kind{
			16:   KindBool,        // bool
			17:   KindBytea,       // bytea
			18:   KindText,        // "char"
			19:   KindText,        // name
			20:   KindInt64,       // int8
			21:   KindInt16,       // int2
			23:   KindInt32,       // int4
			25:   KindText,        // text
			26:   KindOID,         // oid
			114:  KindJSON,        // json
			700:  KindFloat32,     // float4
			701:  KindFloat64,     // float8
			790:  KindMoney,       // money
			1042: KindText,        // bpchar
			1043: KindText,        // varchar
			1082: KindDate,        // date
			1083: KindTime,        // time
			1114: KindTimestamp,   // timestamp
			1184: KindTimestamptz, // timestamptz
			1186: KindInterval,    // interval
			1700: KindNumeric,     // numeric
			2950: KindUUID,        // uuid
			3802: KindJSON,        // jsonb
		},
		arrays: map[uint32]uint32{
			199:  114,  // _json
			791:  790,  // _money
			1000: 16,   // _bool
			1001: 17,   // _bytea
			1002: 18,   // _char
			1003: 19,   // _name
			1005: 21,   // _int2
			1007: 23,   // _int4
			1009: 25,   // _text
			1014: 1042, // _bpchar
			1015: 1043, // _varchar
			1016: 20,   // _int8
			1021: 700,  // _float4
			1022: 701,  // _float8
			1028: 26,   // _oid
			1115: 1114, // _timestamp
			1182: 1082, // _date
			1183: 1083, // _time
			1185: 1184, // _timestamptz
			1187: 1186, // _interval
			1231: 1700, // _numeric
			2951: 2950, // _uuid
			3807: 3802, // _jsonb
		},
	}

	return c
}

// Register adds or replaces a scalar OID mapping.
func (c *TypeCatalog) Register(oid uint32, kind Kind) {
	c.scalars[oid] = kind
}

// RegisterArray adds or replaces an array OID mapping to its element OID.
func (c *TypeCatalog) RegisterArray(arrayOID, elemOID uint32) {
	c.arrays[arrayOID] = elemOID
}

// Resolve maps an OID to its TypeTag. Array OIDs resolve through their
// element type; an array whose element is unsupported is unsupported too.
func (c *TypeCatalog) Resolve(oid uint32) (TypeTag, bool) {
	if kind, ok := c.scalars[oid]; ok {
		return Scalar(kind), true
	}

	if elemOID, ok := c.arrays[oid]; ok {
		elem, ok := c.Resolve(elemOID)
		if !ok {
			return TypeTag{}, false
		}

		return ArrayOf(elem), true
	}

	return TypeTag{}, false
}

// Supported reports whether the OID has a TypeTag mapping.
func (c *TypeCatalog) Supported(oid uint32) bool {
	_, ok := c.Resolve(oid)
	return ok
}
