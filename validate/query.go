// Package validate checks registered SQL queries against a live PostgreSQL
// schema, comparing each query's inferred result shape with its declared
// expectation and collecting structured diagnostics.
package validate

import (
	"github.com/calmsql/calmsql/shape"
)

// Query is one registered query with its declared expected shape. The
// engine only reads it. Parameters are positional 1-based placeholders
// ($1, $2, ...); a nil Shape registers the query for describe-only checks.
type Query struct {
	Name   string
	SQL    string
	Shape  shape.Shape
	Source string
}

// Registry collects queries for bulk startup validation, preserving
// registration order.
type Registry struct {
	queries []*Query
}

// Register adds a query and returns it, so call sites can keep the handle
// for execution helpers.
func (r *Registry) Register(name, sql string, s shape.Shape) *Query {
	q := &Query{Name: name, SQL: sql, Shape: s}
	r.queries = append(r.queries, q)

	return q
}

// Add appends an already constructed query.
func (r *Registry) Add(q *Query) {
	r.queries = append(r.queries, q)
}

// Queries returns the registered queries in registration order.
func (r *Registry) Queries() []*Query {
	return r.queries
}
