package validate

import (
	"context"

	"github.com/calmsql/calmsql"
)

// CloseableSession is a Session the runner owns and must release.
type CloseableSession interface {
	Session
	Close(ctx context.Context) error
}

// Result pairs one query with its diagnostics. An empty Diagnostics slice
// means the query validated cleanly.
type Result struct {
	Query       *Query
	Diagnostics []calmsql.Diagnostic
}

// Ok reports whether the whole batch validated without diagnostics.
func Ok(results []Result) bool {
	for _, r := range results {
		if len(r.Diagnostics) > 0 {
			return false
		}
	}

	return true
}

// Run validates every query over a single session acquired from connect,
// in registration order. A fatal DatabaseError for one query does not stop
// the batch; the session is released on every exit path. Only an
// unavailable connection or a caller mistake aborts the run.
func (v *Validator) Run(ctx context.Context, connect func(context.Context) (CloseableSession, error), queries []*Query) ([]Result, error) {
	if connect == nil {
		return nil, calmsql.ErrNoConnection
	}

	sess, err := connect(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close(ctx)

	results := make([]Result, 0, len(queries))

	for _, q := range queries {
		diags, err := v.Validate(ctx, sess, q)
		if err != nil {
			return results, err
		}

		results = append(results, Result{Query: q, Diagnostics: diags})
	}

	return results, nil
}
