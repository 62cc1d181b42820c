package explain

import (
	"context"
	"fmt"
	"strings"
)

// ExplainQuery builds the EXPLAIN statement that plans an already prepared
// statement with every parameter bound to NULL. The plan is structural
// only; VERBOSE is required for per-node Output lists.
func ExplainQuery(statement string, paramCount int) string {
	var params string

	if paramCount > 0 {
		nulls := strings.TrimSuffix(strings.Repeat("NULL, ", paramCount), ", ")
		params = "(" + nulls + ")"
	}

	return fmt.Sprintf("EXPLAIN (VERBOSE, FORMAT JSON) EXECUTE %s%s", statement, params)
}

// Collect requests the structural plan for a prepared statement and parses
// it into a PlanNode tree.
func Collect(ctx context.Context, q Queryable, statement string, paramCount int) (*PlanNode, error) {
	raw, err := q.QueryPlan(ctx, ExplainQuery(statement, paramCount))
	if err != nil {
		return nil, fmt.Errorf("plan request failed: %w", err)
	}

	return ParsePlan(raw)
}
