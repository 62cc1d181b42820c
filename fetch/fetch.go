// Package fetch runs validated queries and maps their rows onto the same
// record types the shapes were declared with.
package fetch

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Queryer is satisfied by *pgx.Conn, pgxpool.Pool and pgx.Tx.
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ErrNoRows is returned by One when the query produced no rows.
var ErrNoRows = pgx.ErrNoRows

// One fetches exactly one row into a named-field record type.
func One[T any](ctx context.Context, q Queryer, sql string, args ...any) (T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		var zero T
		return zero, err
	}

	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[T])
}

// Optional fetches at most one row; the second return value reports
// whether a row was found.
func Optional[T any](ctx context.Context, q Queryer, sql string, args ...any) (T, bool, error) {
	row, err := One[T](ctx, q, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		var zero T
		return zero, false, nil
	}

	if err != nil {
		var zero T
		return zero, false, err
	}

	return row, true, nil
}

// All fetches every row into a slice of records.
func All[T any](ctx context.Context, q Queryer, sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowToStructByNameLax[T])
}

// Value fetches a single scalar from a one-column query.
func Value[T any](ctx context.Context, q Queryer, sql string, args ...any) (T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		var zero T
		return zero, err
	}

	return pgx.CollectExactlyOneRow(rows, pgx.RowTo[T])
}

// Exec runs a statement that returns no rows and reports how many rows it
// affected.
func Exec(ctx context.Context, q Queryer, sql string, args ...any) (int64, error) {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}
