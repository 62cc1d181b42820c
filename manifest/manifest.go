// Package manifest loads a YAML file declaring queries and their expected
// shapes, for projects that keep SQL outside Go code.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/calmsql/calmsql"
	"github.com/calmsql/calmsql/shape"
	"github.com/calmsql/calmsql/validate"
)

var (
	// ErrUnknownTypeName indicates a declared column type with no kind mapping.
	ErrUnknownTypeName = errors.New("manifest: unknown column type")
	// ErrQueryIncomplete indicates a query entry missing its name or SQL.
	ErrQueryIncomplete = errors.New("manifest: query entry requires name and sql")
	// ErrShapeConflict indicates a query declaring both a scalar and columns.
	ErrShapeConflict = errors.New("manifest: query declares both scalar and columns")
)

// Manifest is the root of the query manifest document.
type Manifest struct {
	Queries []QueryEntry `yaml:"queries"`
}

// QueryEntry declares one query. Either Scalar or Columns describes the
// expected shape; leaving both empty registers the query for describe-only
// checks.
type QueryEntry struct {
	Name    string        `yaml:"name"`
	SQL     string        `yaml:"sql"`
	Scalar  *ColumnEntry  `yaml:"scalar"`
	Columns []ColumnEntry `yaml:"columns"`
}

// ColumnEntry declares one expected column. Type uses the semantic type
// names (bool, int16, int32, int64, float32, float64, numeric, text,
// bytea, uuid, date, time, timestamp, timestamptz, interval, json, money,
// oid) with a "[]" suffix for arrays; common SQL aliases are accepted.
type ColumnEntry struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Nullable bool   `yaml:"nullable"`
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return Parse(data)
}

// Parse parses manifest YAML.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest

	if err := yaml.UnmarshalWithOptions(data, &m, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return &m, nil
}

// Queries converts the manifest entries into registered queries.
func (m *Manifest) BuildQueries() ([]*validate.Query, error) {
	queries := make([]*validate.Query, 0, len(m.Queries))

	for _, entry := range m.Queries {
		q, err := entry.Query()
		if err != nil {
			return nil, err
		}

		queries = append(queries, q)
	}

	return queries, nil
}

// Query converts one manifest entry.
func (e QueryEntry) Query() (*validate.Query, error) {
	if e.Name == "" || strings.TrimSpace(e.SQL) == "" {
		return nil, ErrQueryIncomplete
	}

	if e.Scalar != nil && len(e.Columns) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrShapeConflict, e.Name)
	}

	q := &validate.Query{Name: e.Name, SQL: e.SQL}

	switch {
	case e.Scalar != nil:
		col, err := e.Scalar.expected()
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", e.Name, err)
		}

		col.Name = ""
		q.Shape = shape.Explicit(col)
	case len(e.Columns) > 0:
		cols := make([]shape.ExpectedColumn, 0, len(e.Columns))

		for _, c := range e.Columns {
			col, err := c.expected()
			if err != nil {
				return nil, fmt.Errorf("query %s: %w", e.Name, err)
			}

			cols = append(cols, col)
		}

		q.Shape = shape.Explicit(cols...)
	}

	return q, nil
}

func (c ColumnEntry) expected() (shape.ExpectedColumn, error) {
	tag, err := ParseType(c.Type)
	if err != nil {
		return shape.ExpectedColumn{}, err
	}

	return shape.ExpectedColumn{
		Name:     c.Name,
		Types:    []calmsql.TypeTag{tag},
		Nullable: c.Nullable,
	}, nil
}

var kindNames = map[string]calmsql.Kind{
	"bool":        calmsql.KindBool,
	"boolean":     calmsql.KindBool,
	"int16":       calmsql.KindInt16,
	"int2":        calmsql.KindInt16,
	"smallint":    calmsql.KindInt16,
	"int32":       calmsql.KindInt32,
	"int4":        calmsql.KindInt32,
	"int":         calmsql.KindInt32,
	"integer":     calmsql.KindInt32,
	"int64":       calmsql.KindInt64,
	"int8":        calmsql.KindInt64,
	"bigint":      calmsql.KindInt64,
	"float32":     calmsql.KindFloat32,
	"float4":      calmsql.KindFloat32,
	"real":        calmsql.KindFloat32,
	"float64":     calmsql.KindFloat64,
	"float8":      calmsql.KindFloat64,
	"double":      calmsql.KindFloat64,
	"numeric":     calmsql.KindNumeric,
	"decimal":     calmsql.KindNumeric,
	"text":        calmsql.KindText,
	"string":      calmsql.KindText,
	"varchar":     calmsql.KindText,
	"bytea":       calmsql.KindBytea,
	"binary":      calmsql.KindBytea,
	"uuid":        calmsql.KindUUID,
	"date":        calmsql.KindDate,
	"time":        calmsql.KindTime,
	"timestamp":   calmsql.KindTimestamp,
	"timestamptz": calmsql.KindTimestamptz,
	"datetime":    calmsql.KindTimestamptz,
	"interval":    calmsql.KindInterval,
	"json":        calmsql.KindJSON,
	"jsonb":       calmsql.KindJSON,
	"money":       calmsql.KindMoney,
	"oid":         calmsql.KindOID,
}

// ParseType maps a declared type name to its TypeTag. A "[]" suffix makes
// an array of the element type.
func ParseType(name string) (calmsql.TypeTag, error) {
	trimmed := strings.ToLower(strings.TrimSpace(name))

	if elem, ok := strings.CutSuffix(trimmed, "[]"); ok {
		elemTag, err := ParseType(elem)
		if err != nil {
			return calmsql.TypeTag{}, err
		}

		return calmsql.ArrayOf(elemTag), nil
	}

	kind, ok := kindNames[trimmed]
	if !ok {
		return calmsql.TypeTag{}, fmt.Errorf("%w: %q", ErrUnknownTypeName, name)
	}

	return calmsql.Scalar(kind), nil
}
