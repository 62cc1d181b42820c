package explain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParsePlan converts the raw EXPLAIN (FORMAT JSON) bytes into a PlanNode
// tree. PostgreSQL wraps the plan as a one-element array of {"Plan": ...}.
func ParsePlan(data []byte) (*PlanNode, error) {
	if len(data) == 0 {
		return nil, ErrPlanEmpty
	}

	var container []map[string]any
	if err := json.Unmarshal(data, &container); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}

	if len(container) == 0 {
		return nil, ErrPlanEmpty
	}

	planRaw, ok := container[0]["Plan"].(map[string]any)
	if !ok {
		return nil, ErrPlanShape
	}

	return buildNode(planRaw), nil
}

func buildNode(plan map[string]any) *PlanNode {
	node := &PlanNode{
		NodeType: getString(plan, "Node Type"),
		Join:     JoinKind(getString(plan, "Join Type")),
		Parent:   Relationship(getString(plan, "Parent Relationship")),
		Relation: getString(plan, "Relation Name"),
		Strategy: getString(plan, "Strategy"),
	}
	node.Kind = classify(node.NodeType)
	node.Output = getStrings(plan, "Output")
	node.GroupKeys = getStrings(plan, "Group Key")

	if rawChildren, ok := plan["Plans"].([]any); ok {
		for _, child := range rawChildren {
			if childMap, ok := child.(map[string]any); ok {
				node.Children = append(node.Children, buildNode(childMap))
			}
		}
	}

	return node
}

func classify(nodeType string) NodeKind {
	lower := strings.ToLower(nodeType)

	switch {
	case strings.Contains(lower, "join") || lower == "nested loop":
		return NodeJoin
	case strings.Contains(lower, "aggregate") || lower == "group":
		return NodeAggregate
	case lower == "append" || lower == "merge append" || lower == "recursive union":
		return NodeAppend
	case strings.Contains(lower, "setop"):
		return NodeSetOp
	case strings.Contains(lower, "scan"):
		return NodeScan
	default:
		return NodeOther
	}
}

func getString(obj map[string]any, key string) string {
	if v, ok := obj[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}

	return ""
}

func getStrings(obj map[string]any, key string) []string {
	raw, ok := obj[key].([]any)
	if !ok {
		return nil
	}

	out := make([]string, 0, len(raw))

	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}

	return out
}
