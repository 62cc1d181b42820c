// Package describe introspects the result shape of a SQL query through the
// driver's describe capability and the system catalog, without executing the
// query.
package describe

import (
	"context"
	"fmt"

	"github.com/calmsql/calmsql"
)

// Field is the driver-reported description of one result column.
type Field struct {
	Name     string
	TableOID uint32
	AttNum   uint16
	TypeOID  uint32
}

// Statement is the driver-reported description of a prepared statement.
type Statement struct {
	Name      string
	ParamOIDs []uint32
	Fields    []Field
}

// Describer prepares a statement and reports its result shape. A describe
// must never commit data changes.
type Describer interface {
	Describe(ctx context.Context, sql string) (*Statement, error)
}

// CatalogQuerier runs a read-only query against the system catalog and
// returns the single value it produces.
type CatalogQuerier interface {
	QueryValue(ctx context.Context, sql string, args ...any) (any, error)
}

// Description is the introspected shape of one query.
type Description struct {
	// Statement is the prepared statement name, reused by the plan step.
	Statement  string
	ParamCount int
	Columns    []calmsql.ColumnShape
}

const attNotNullQuery = `SELECT attnotnull FROM pg_catalog.pg_attribute WHERE attrelid = $1 AND attnum = $2`

// Describe prepares sql and resolves each result column's display name,
// semantic type, origin and statically provable nullability. Columns
// without a traceable base column keep nullability unknown for the plan
// step to refine.
func Describe(ctx context.Context, d Describer, cq CatalogQuerier, catalog *calmsql.TypeCatalog, sql string) (*Description, error) {
	stmt, err := d.Describe(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("describe failed: %w", err)
	}

	desc := &Description{
		Statement:  stmt.Name,
		ParamCount: len(stmt.ParamOIDs),
		Columns:    make([]calmsql.ColumnShape, 0, len(stmt.Fields)),
	}

	for _, field := range stmt.Fields {
		name, override, err := ParseOverride(field.Name)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", field.Name, err)
		}

		col := calmsql.ColumnShape{
			Name:     name,
			TypeOID:  field.TypeOID,
			Override: override,
		}
		col.Type, col.Supported = catalog.Resolve(field.TypeOID)

		if field.TableOID != 0 {
			col.Origin = &calmsql.Origin{TableOID: field.TableOID, AttNum: field.AttNum}

			notNull, err := columnNotNull(ctx, cq, field.TableOID, field.AttNum)
			if err != nil {
				return nil, fmt.Errorf("catalog lookup for column %q: %w", name, err)
			}

			if notNull {
				col.Nullable = calmsql.NotNull
			} else {
				col.Nullable = calmsql.Nullable
			}
		}

		desc.Columns = append(desc.Columns, col)
	}

	return desc, nil
}

func columnNotNull(ctx context.Context, cq CatalogQuerier, tableOID uint32, attNum uint16) (bool, error) {
	value, err := cq.QueryValue(ctx, attNotNullQuery, tableOID, attNum)
	if err != nil {
		return false, err
	}

	notNull, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("pg_attribute.attnotnull: unexpected value %v (%T)", value, value)
	}

	return notNull, nil
}
