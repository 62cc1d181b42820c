// Package pgsession implements the driver boundary over a native pgx
// connection: statement describe, read-only catalog lookups and plan
// collection inside rolled-back transactions.
package pgsession

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/calmsql/calmsql/describe"
)

// Session owns one pgx connection for the duration of a validation run.
// It is not safe for concurrent use; give each concurrent validation its
// own session.
type Session struct {
	conn *pgx.Conn
	seq  int
}

// New wraps an existing connection. The caller keeps ownership of conn
// unless the session came from Connect.
func New(conn *pgx.Conn) *Session {
	return &Session{conn: conn}
}

// Connect opens a connection from a PostgreSQL URL or DSN.
func Connect(ctx context.Context, url string) (*Session, error) {
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return New(conn), nil
}

// Close releases the connection.
func (s *Session) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

// Conn exposes the underlying connection for execution helpers.
func (s *Session) Conn() *pgx.Conn {
	return s.conn
}

// Describe prepares sql under a fresh statement name and reports the
// result-column metadata PostgreSQL returns for it. Preparing never
// executes the statement. The statement stays allocated on the connection
// so the plan step can EXPLAIN EXECUTE it.
func (s *Session) Describe(ctx context.Context, sql string) (*describe.Statement, error) {
	s.seq++
	name := fmt.Sprintf("calmsql_stmt_%d", s.seq)

	sd, err := s.conn.Prepare(ctx, name, sql)
	if err != nil {
		return nil, err
	}

	stmt := &describe.Statement{
		Name:      name,
		ParamOIDs: sd.ParamOIDs,
		Fields:    make([]describe.Field, len(sd.Fields)),
	}

	for i, f := range sd.Fields {
		stmt.Fields[i] = describe.Field{
			Name:     f.Name,
			TableOID: f.TableOID,
			AttNum:   f.TableAttributeNumber,
			TypeOID:  f.DataTypeOID,
		}
	}

	return stmt, nil
}

// QueryValue runs a read-only catalog query expected to produce a single
// value.
func (s *Session) QueryValue(ctx context.Context, sql string, args ...any) (any, error) {
	var value any
	if err := s.conn.QueryRow(ctx, sql, args...).Scan(&value); err != nil {
		return nil, err
	}

	return value, nil
}

// QueryPlan executes an EXPLAIN statement inside a transaction that is
// rolled back on every path, so plan collection can never commit a data
// change, and returns the raw plan document.
func (s *Session) QueryPlan(ctx context.Context, sql string) ([]byte, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var raw []byte
	if err := tx.QueryRow(ctx, sql).Scan(&raw); err != nil {
		return nil, err
	}

	return raw, nil
}
