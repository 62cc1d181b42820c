// Package shape resolves a declared Go result type into the ordered list of
// expected columns a query must produce.
package shape

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/calmsql/calmsql"
)

var (
	// ErrUnmappedType indicates a declared field type with no TypeTag mapping.
	ErrUnmappedType = errors.New("shape: no type tag mapping for Go type")
	// ErrNotStruct indicates RowOf was instantiated with a non-struct type.
	ErrNotStruct = errors.New("shape: row type must be a struct")
)

// ExpectedColumn is one column of a declared expected shape. Types lists
// the acceptable tags for the column; a Go type that cannot distinguish two
// database types (time.Time against timestamp and timestamptz) accepts
// both.
type ExpectedColumn struct {
	Name     string
	Types    []calmsql.TypeTag
	Nullable bool
}

// Shape converts a declared result description into its ordered expected
// columns. Resolution is deterministic and happens at most once per shape.
type Shape interface {
	Columns() ([]ExpectedColumn, error)
}

// Record lets a type declare its expected columns directly instead of being
// reflected over. RowOf prefers this over reflection when implemented.
type Record interface {
	ExpectedColumns() []ExpectedColumn
}

type explicitShape struct {
	cols []ExpectedColumn
}

func (s explicitShape) Columns() ([]ExpectedColumn, error) {
	return s.cols, nil
}

// Explicit builds a shape from an explicit column list, for callers that
// declare shapes outside the Go type system (manifests, generated code).
func Explicit(cols ...ExpectedColumn) Shape {
	return explicitShape{cols: cols}
}

type lazyShape struct {
	once    sync.Once
	resolve func() ([]ExpectedColumn, error)
	cols    []ExpectedColumn
	err     error
}

func (s *lazyShape) Columns() ([]ExpectedColumn, error) {
	s.once.Do(func() {
		s.cols, s.err = s.resolve()
	})

	return s.cols, s.err
}

// RowOf builds the shape for a named-field record type T. Fields are
// enumerated in declaration order; the column name comes from the db tag,
// else the snake_case of the field name; a field tagged db:"-" is skipped.
// If T implements Record its own declaration wins over reflection.
func RowOf[T any]() Shape {
	return &lazyShape{resolve: func() ([]ExpectedColumn, error) {
		t := reflect.TypeOf((*T)(nil)).Elem()

		var zero T
		if record, ok := any(zero).(Record); ok {
			return record.ExpectedColumns(), nil
		}

		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}

		if t.Kind() != reflect.Struct || isWellKnown(t) {
			return nil, fmt.Errorf("%w: %s", ErrNotStruct, t)
		}

		cols := make([]ExpectedColumn, 0, t.NumField())

		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}

			tag := field.Tag.Get("db")
			if tag == "-" {
				continue
			}

			name := tag
			if name == "" {
				name = snakeCase(field.Name)
			}

			types, nullable, err := resolveGoType(field.Type)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", field.Name, err)
			}

			cols = append(cols, ExpectedColumn{Name: name, Types: types, Nullable: nullable})
		}

		return cols, nil
	}}
}

// ScalarOf builds the shape for a single-scalar expectation. The column is
// unnamed; nullability is derived from T (pointer and Null-wrapper types
// allow null).
func ScalarOf[T any]() Shape {
	return &lazyShape{resolve: func() ([]ExpectedColumn, error) {
		types, nullable, err := resolveGoType(reflect.TypeOf((*T)(nil)).Elem())
		if err != nil {
			return nil, err
		}

		return []ExpectedColumn{{Types: types, Nullable: nullable}}, nil
	}}
}

func snakeCase(name string) string {
	var b strings.Builder

	runes := []rune(name)

	for i, r := range runes {
		if r >= 'A' && r <= 'Z' {
			prevLower := i > 0 && runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'

			if i > 0 && (prevLower || nextLower) {
				b.WriteByte('_')
			}

			b.WriteRune(r - 'A' + 'a')

			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}
