package calmsql

import (
	"fmt"
	"strings"
)

// DiagnosticKind tags the diagnostic variants.
type DiagnosticKind string

const (
	DiagTypeMismatch        DiagnosticKind = "type_mismatch"
	DiagNullabilityMismatch DiagnosticKind = "nullability_mismatch"
	DiagUnsupportedType     DiagnosticKind = "unsupported_type"
	DiagMissingColumn       DiagnosticKind = "missing_column"
	DiagExtraColumn         DiagnosticKind = "extra_column"
	DiagDatabaseError       DiagnosticKind = "database_error"
)

// Diagnostic is one validation finding. A validation run returns zero or
// more of these; it never stops at the first one except for DatabaseError,
// which is fatal for the query because no further structural information is
// available once the describe or plan request itself failed.
type Diagnostic interface {
	Kind() DiagnosticKind
	Message() string
}

// Fatal reports whether the diagnostic aborts further checks for its query.
func Fatal(d Diagnostic) bool {
	return d.Kind() == DiagDatabaseError
}

// TypeMismatch reports a column whose actual type matches none of the
// expected tags.
type TypeMismatch struct {
	Column   string
	Expected []TypeTag
	Actual   TypeTag
}

func (d TypeMismatch) Kind() DiagnosticKind { return DiagTypeMismatch }

func (d TypeMismatch) Message() string {
	names := make([]string, len(d.Expected))
	for i, t := range d.Expected {
		names[i] = t.String()
	}

	expected := strings.Join(names, " or ")
	if len(names) == 0 {
		expected = "(none)"
	}

	return fmt.Sprintf("column %q: expected %s, got %s", d.Column, expected, d.Actual)
}

// NullabilityMismatch reports a column inferred nullable where the expected
// shape requires a value. The reverse is never reported: a guaranteed
// value satisfies an optional expectation.
type NullabilityMismatch struct {
	Column string
}

func (d NullabilityMismatch) Kind() DiagnosticKind { return DiagNullabilityMismatch }

func (d NullabilityMismatch) Message() string {
	return fmt.Sprintf("column %q is nullable but the expected shape does not allow null", d.Column)
}

// UnsupportedType reports a result column whose type OID has no TypeTag
// mapping in the catalog.
type UnsupportedType struct {
	Column string
	OID    uint32
}

func (d UnsupportedType) Kind() DiagnosticKind { return DiagUnsupportedType }

func (d UnsupportedType) Message() string {
	return fmt.Sprintf("unsupported PostgreSQL type OID %d for column %q", d.OID, d.Column)
}

// MissingColumn reports an expected column the query does not return.
type MissingColumn struct {
	Name string
}

func (d MissingColumn) Kind() DiagnosticKind { return DiagMissingColumn }

func (d MissingColumn) Message() string {
	return fmt.Sprintf("expected column %q is missing from the query results", d.Name)
}

// ExtraColumn reports a result column beyond the expected shape.
type ExtraColumn struct {
	Name string
}

func (d ExtraColumn) Kind() DiagnosticKind { return DiagExtraColumn }

func (d ExtraColumn) Message() string {
	return fmt.Sprintf("query returns extra column %q not present in the expected shape", d.Name)
}

// DatabaseError carries the driver-reported message for a failed describe,
// plan or catalog request, verbatim.
type DatabaseError struct {
	Err error
}

func (d DatabaseError) Kind() DiagnosticKind { return DiagDatabaseError }

func (d DatabaseError) Message() string {
	if d.Err == nil {
		return "database error"
	}

	return d.Err.Error()
}

// Unwrap exposes the underlying driver error for errors.Is / errors.As.
func (d DatabaseError) Unwrap() error { return d.Err }
