package shape

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/calmsql/calmsql"
)

type mapping struct {
	types    []calmsql.TypeTag
	nullable bool
}

func tags(kinds ...calmsql.Kind) []calmsql.TypeTag {
	out := make([]calmsql.TypeTag, len(kinds))
	for i, k := range kinds {
		out[i] = calmsql.Scalar(k)
	}

	return out
}

// wellKnown maps struct and named types that carry their own database
// semantics. pgtype and sql.Null wrappers are nullable by construction; a
// non-null column still satisfies them.
var wellKnown = map[reflect.Type]mapping{
	reflect.TypeOf((*time.Time)(nil)).Elem():     {types: tags(calmsql.KindTimestamptz, calmsql.KindTimestamp)},
	reflect.TypeOf((*time.Duration)(nil)).Elem(): {types: tags(calmsql.KindInterval)},

	reflect.TypeOf((*uuid.UUID)(nil)).Elem():     {types: tags(calmsql.KindUUID)},
	reflect.TypeOf((*uuid.NullUUID)(nil)).Elem():  {types: tags(calmsql.KindUUID), nullable: true},
	reflect.TypeOf((*decimal.Decimal)(nil)).Elem(): {types: tags(calmsql.KindNumeric)},
	reflect.TypeOf((*decimal.NullDecimal)(nil)).Elem(): {types: tags(calmsql.KindNumeric), nullable: true},

	reflect.TypeOf((*json.RawMessage)(nil)).Elem(): {types: tags(calmsql.KindJSON)},

	reflect.TypeOf((*sql.NullBool)(nil)).Elem():    {types: tags(calmsql.KindBool), nullable: true},
	reflect.TypeOf((*sql.NullInt16)(nil)).Elem():   {types: tags(calmsql.KindInt16), nullable: true},
	reflect.TypeOf((*sql.NullInt32)(nil)).Elem():   {types: tags(calmsql.KindInt32), nullable: true},
	reflect.TypeOf((*sql.NullInt64)(nil)).Elem():   {types: tags(calmsql.KindInt64), nullable: true},
	reflect.TypeOf((*sql.NullFloat64)(nil)).Elem(): {types: tags(calmsql.KindFloat64), nullable: true},
	reflect.TypeOf((*sql.NullString)(nil)).Elem():  {types: tags(calmsql.KindText), nullable: true},
	reflect.TypeOf((*sql.NullTime)(nil)).Elem():    {types: tags(calmsql.KindTimestamptz, calmsql.KindTimestamp), nullable: true},

	reflect.TypeOf((*pgtype.Bool)(nil)).Elem():        {types: tags(calmsql.KindBool), nullable: true},
	reflect.TypeOf((*pgtype.Int2)(nil)).Elem():        {types: tags(calmsql.KindInt16), nullable: true},
	reflect.TypeOf((*pgtype.Int4)(nil)).Elem():        {types: tags(calmsql.KindInt32), nullable: true},
	reflect.TypeOf((*pgtype.Int8)(nil)).Elem():        {types: tags(calmsql.KindInt64), nullable: true},
	reflect.TypeOf((*pgtype.Float4)(nil)).Elem():      {types: tags(calmsql.KindFloat32), nullable: true},
	reflect.TypeOf((*pgtype.Float8)(nil)).Elem():      {types: tags(calmsql.KindFloat64), nullable: true},
	reflect.TypeOf((*pgtype.Text)(nil)).Elem():        {types: tags(calmsql.KindText), nullable: true},
	reflect.TypeOf((*pgtype.Date)(nil)).Elem():        {types: tags(calmsql.KindDate), nullable: true},
	reflect.TypeOf((*pgtype.Time)(nil)).Elem():        {types: tags(calmsql.KindTime), nullable: true},
	reflect.TypeOf((*pgtype.Timestamp)(nil)).Elem():   {types: tags(calmsql.KindTimestamp), nullable: true},
	reflect.TypeOf((*pgtype.Timestamptz)(nil)).Elem(): {types: tags(calmsql.KindTimestamptz), nullable: true},
	reflect.TypeOf((*pgtype.Interval)(nil)).Elem():    {types: tags(calmsql.KindInterval), nullable: true},
	reflect.TypeOf((*pgtype.Numeric)(nil)).Elem():     {types: tags(calmsql.KindNumeric), nullable: true},
	reflect.TypeOf((*pgtype.UUID)(nil)).Elem():        {types: tags(calmsql.KindUUID), nullable: true},
}

func isWellKnown(t reflect.Type) bool {
	_, ok := wellKnown[t]
	return ok
}

// resolveGoType maps a declared Go field type to its acceptable TypeTags
// and nullability. A pointer allows null and unwraps to its element.
func resolveGoType(t reflect.Type) ([]calmsql.TypeTag, bool, error) {
	nullable := false

	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}

	if m, ok := wellKnown[t]; ok {
		return m.types, nullable || m.nullable, nil
	}

	// sql.Null[T] and equivalent two-field wrappers: {V T; Valid bool}.
	if t.Kind() == reflect.Struct && t.NumField() == 2 {
		v, hasV := t.FieldByName("V")
		valid, hasValid := t.FieldByName("Valid")

		if hasV && hasValid && valid.Type.Kind() == reflect.Bool {
			types, _, err := resolveGoType(v.Type)
			return types, true, err
		}
	}

	switch t.Kind() {
	case reflect.Bool:
		return tags(calmsql.KindBool), nullable, nil
	case reflect.Int8, reflect.Int16:
		return tags(calmsql.KindInt16), nullable, nil
	case reflect.Int32:
		return tags(calmsql.KindInt32), nullable, nil
	case reflect.Int, reflect.Int64:
		return tags(calmsql.KindInt64), nullable, nil
	case reflect.Float32:
		return tags(calmsql.KindFloat32), nullable, nil
	case reflect.Float64:
		return tags(calmsql.KindFloat64), nullable, nil
	case reflect.String:
		return tags(calmsql.KindText), nullable, nil
	case reflect.Map:
		if t.Key().Kind() == reflect.String {
			return tags(calmsql.KindJSON), nullable, nil
		}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return tags(calmsql.KindBytea), nullable, nil
		}

		elemTypes, _, err := resolveGoType(t.Elem())
		if err != nil {
			return nil, false, err
		}

		arrays := make([]calmsql.TypeTag, len(elemTypes))
		for i, elem := range elemTypes {
			arrays[i] = calmsql.ArrayOf(elem)
		}

		return arrays, nullable, nil
	}

	return nil, false, fmt.Errorf("%w: %s", ErrUnmappedType, t)
}
