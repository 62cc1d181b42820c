package validate

import (
	"context"
	"errors"

	"github.com/calmsql/calmsql"
	"github.com/calmsql/calmsql/describe"
	"github.com/calmsql/calmsql/explain"
	"github.com/calmsql/calmsql/shape"
)

// Session is the connection capability one validation consumes: describe,
// catalog lookup and plan collection over a single connection. A session
// must not be shared across concurrent validations.
type Session interface {
	describe.Describer
	describe.CatalogQuerier
	explain.Queryable
}

// Validator runs the full inference pipeline for one query at a time. The
// zero value is not usable; construct it with New.
type Validator struct {
	catalog *calmsql.TypeCatalog
}

// New returns a Validator using the given type catalog, or the built-in
// catalog when nil.
func New(catalog *calmsql.TypeCatalog) *Validator {
	if catalog == nil {
		catalog = calmsql.NewTypeCatalog()
	}

	return &Validator{catalog: catalog}
}

// Validate infers the actual result shape of q and diffs it against the
// declared expectation. Database failures are reported as a DatabaseError
// diagnostic, fatal for this query only. The returned error is reserved
// for caller mistakes: a nil session, a malformed override marker, a
// declared shape that cannot be resolved, or a shape on a statement that
// returns no columns.
func (v *Validator) Validate(ctx context.Context, sess Session, q *Query) ([]calmsql.Diagnostic, error) {
	if sess == nil {
		return nil, calmsql.ErrNoConnection
	}

	desc, err := describe.Describe(ctx, sess, sess, v.catalog, q.SQL)
	if err != nil {
		if errors.Is(err, calmsql.ErrConflictingOverride) {
			return nil, err
		}

		return []calmsql.Diagnostic{calmsql.DatabaseError{Err: err}}, nil
	}

	if q.Shape == nil {
		return nil, nil
	}

	expected, err := q.Shape.Columns()
	if err != nil {
		return nil, err
	}

	// A statement with no result columns (INSERT or DELETE without
	// RETURNING) cannot carry an expected shape.
	if len(desc.Columns) == 0 && len(expected) > 0 {
		return nil, calmsql.ErrNoResultColumns
	}

	plan, err := explain.Collect(ctx, sess, desc.Statement, desc.ParamCount)
	if err != nil {
		return []calmsql.Diagnostic{calmsql.DatabaseError{Err: err}}, nil
	}

	actual := mergeNullability(desc.Columns, explain.Nullable(plan))

	return diff(actual, expected), nil
}

// mergeNullability combines the catalog-derived nullability with the
// plan-derived additions. The plan only adds nullability; a column still
// unknown afterwards defaults to nullable, and an alias override fixes the
// result regardless of inference.
func mergeNullability(cols []calmsql.ColumnShape, planNullable []bool) []calmsql.ColumnShape {
	out := make([]calmsql.ColumnShape, len(cols))

	for i, col := range cols {
		if i < len(planNullable) && planNullable[i] {
			col.Nullable = col.Nullable.Merge(calmsql.Nullable)
		}

		if col.Nullable == calmsql.NullUnknown {
			col.Nullable = calmsql.Nullable
		}

		if col.Override != calmsql.NullUnknown {
			col.Nullable = col.Override
		}

		out[i] = col
	}

	return out
}

// diff zips the actual and expected columns positionally and reports every
// mismatch. Length mismatches produce MissingColumn/ExtraColumn for the
// unmatched tail. An actual non-null column against a nullable expectation
// is not an error: a guaranteed value satisfies an optional one.
func diff(actual []calmsql.ColumnShape, expected []shape.ExpectedColumn) []calmsql.Diagnostic {
	var diags []calmsql.Diagnostic

	n := min(len(actual), len(expected))

	for i := 0; i < n; i++ {
		col := actual[i]
		exp := expected[i]

		if !col.Supported {
			diags = append(diags, calmsql.UnsupportedType{Column: col.Name, OID: col.TypeOID})
			continue
		}

		if !typeAccepted(exp.Types, col.Type) {
			diags = append(diags, calmsql.TypeMismatch{
				Column:   col.Name,
				Expected: exp.Types,
				Actual:   col.Type,
			})
		}

		if col.Nullable == calmsql.Nullable && !exp.Nullable {
			diags = append(diags, calmsql.NullabilityMismatch{Column: col.Name})
		}
	}

	for _, exp := range expected[n:] {
		diags = append(diags, calmsql.MissingColumn{Name: exp.Name})
	}

	for _, col := range actual[n:] {
		diags = append(diags, calmsql.ExtraColumn{Name: col.Name})
	}

	return diags
}

func typeAccepted(accepted []calmsql.TypeTag, actual calmsql.TypeTag) bool {
	for _, t := range accepted {
		if t.Equal(actual) {
			return true
		}
	}

	return false
}
