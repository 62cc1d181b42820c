package explain

import (
	"regexp"
	"strings"
)

// Nullable folds the plan tree bottom-up and reports, for each root output
// column, whether the plan structure forces it to be nullable beyond what
// the catalog NOT NULL flags prove. The fold only ever adds nullability;
// ambiguous shapes resolve toward nullable.
func Nullable(root *PlanNode) []bool {
	if root == nil {
		return nil
	}

	return fold(root)
}

func fold(node *PlanNode) []bool {
	childFlags := make([][]bool, len(node.Children))
	for i, child := range node.Children {
		childFlags[i] = fold(child)
	}

	// Expressions exposed nullable by the children, keyed by their printed
	// form. A child on the nullable side of an outer join contributes all
	// of its outputs.
	nullable := make(map[string]struct{})

	for i, child := range node.Children {
		forceAll := false

		if node.Kind == NodeJoin {
			switch {
			case node.Join == JoinFull:
				forceAll = true
			case node.Join == JoinLeft && child.Parent == RelationInner:
				forceAll = true
			case node.Join == JoinRight && child.Parent == RelationOuter:
				forceAll = true
			}
		}

		for j, expr := range child.Output {
			if forceAll || (j < len(childFlags[i]) && childFlags[i][j]) {
				nullable[expr] = struct{}{}
			}
		}
	}

	out := make([]bool, len(node.Output))

	for i, expr := range node.Output {
		if _, ok := nullable[expr]; ok {
			out[i] = true
			continue
		}

		if exprNullable(node, expr) {
			out[i] = true
			continue
		}

		// Set operations expose columns positionally, not by name: a column
		// is nullable if it is nullable on either contributing side.
		if node.Kind == NodeAppend || node.Kind == NodeSetOp {
			for _, flags := range childFlags {
				if i < len(flags) && flags[i] {
					out[i] = true
					break
				}
			}
		}
	}

	return out
}

// Aggregates that return NULL for an empty input group. count is absent on
// purpose: it is never null, so the fold simply does not mark it.
var nullableAggregates = []string{
	"sum(", "avg(", "min(", "max(",
	"array_agg(", "string_agg(", "json_agg(", "jsonb_agg(",
	"json_object_agg(", "jsonb_object_agg(",
	"bool_and(", "bool_or(", "every(",
	"bit_and(", "bit_or(",
	"stddev", "variance", "var_pop(", "var_samp(",
	"corr(", "covar_pop(", "covar_samp(", "regr_",
	"mode(", "percentile_",
}

func exprNullable(node *PlanNode, expr string) bool {
	lower := strings.ToLower(strings.TrimSpace(expr))
	lower = strings.TrimPrefix(lower, "pg_catalog.")

	if node.Kind == NodeAggregate {
		for _, prefix := range nullableAggregates {
			if strings.HasPrefix(lower, prefix) {
				return true
			}
		}
	}

	// CASE: proving a branch covers all rows would need expression
	// analysis, so the default case is assumed reachable and nullable.
	if strings.HasPrefix(lower, "case") {
		return true
	}

	// COALESCE is non-null only when its final fallback is a literal
	// non-null constant.
	if strings.HasPrefix(lower, "coalesce(") {
		return !coalesceHasLiteralDefault(expr)
	}

	return false
}

var literalPattern = regexp.MustCompile(`^(-?[0-9]+(\.[0-9]+)?|'[^']*'(::[a-z_ ]+(\([0-9,]*\))?)?|true|false)$`)

func coalesceHasLiteralDefault(expr string) bool {
	open := strings.Index(expr, "(")
	close := strings.LastIndex(expr, ")")

	if open < 0 || close <= open {
		return false
	}

	args := splitTopLevel(expr[open+1 : close])
	if len(args) == 0 {
		return false
	}

	last := strings.ToLower(strings.TrimSpace(args[len(args)-1]))

	return literalPattern.MatchString(last)
}

// splitTopLevel splits a comma-separated argument list, ignoring commas
// inside parentheses and quoted strings.
func splitTopLevel(s string) []string {
	var (
		args    []string
		depth   int
		quoted  bool
		current strings.Builder
	)

	for _, r := range s {
		switch {
		case r == '\'':
			quoted = !quoted
			current.WriteRune(r)
		case quoted:
			current.WriteRune(r)
		case r == '(':
			depth++
			current.WriteRune(r)
		case r == ')':
			depth--
			current.WriteRune(r)
		case r == ',' && depth == 0:
			args = append(args, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		args = append(args, current.String())
	}

	return args
}
