// Package explain refines result-column nullability by walking the
// structural query plan PostgreSQL reports for a prepared statement.
package explain

import "context"

// Queryable runs a plan request. The implementation must execute the
// statement inside a transaction that is always rolled back so plan
// collection never commits data changes.
type Queryable interface {
	QueryPlan(ctx context.Context, sql string) ([]byte, error)
}

// NodeKind classifies a plan node for the nullability fold.
type NodeKind int

const (
	NodeOther NodeKind = iota
	NodeScan
	NodeJoin
	NodeAggregate
	NodeAppend
	NodeSetOp
)

// JoinKind is the "Join Type" of a join node.
type JoinKind string

const (
	JoinInner JoinKind = "Inner"
	JoinLeft  JoinKind = "Left"
	JoinRight JoinKind = "Right"
	JoinFull  JoinKind = "Full"
	JoinSemi  JoinKind = "Semi"
	JoinAnti  JoinKind = "Anti"
)

// Relationship is the "Parent Relationship" of a node, the side it feeds
// into its parent. For a Left join the Inner child is the nullable side;
// for a Right join the planner has swapped the inputs and the Outer child
// is the nullable one.
type Relationship string

const (
	RelationOuter Relationship = "Outer"
	RelationInner Relationship = "Inner"
)

// PlanNode is a single execution-plan node. Only the structural fields the
// nullability fold needs are retained.
type PlanNode struct {
	NodeType  string
	Kind      NodeKind
	Join      JoinKind
	Parent    Relationship
	Relation  string
	Strategy  string
	GroupKeys []string
	Output    []string
	Children  []*PlanNode
}
