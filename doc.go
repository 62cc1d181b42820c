// Package calmsql validates hand-written SQL queries against a live
// PostgreSQL schema before they run in production. For each registered
// query it infers the actual result-column set (names, scalar and array
// types, nullability) from catalog metadata and query-plan structure, then
// compares it against a declared expected shape and reports every mismatch
// as a structured diagnostic.
package calmsql
