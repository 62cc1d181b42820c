package explain

import "errors"

var (
	// ErrPlanEmpty indicates the EXPLAIN output contained no plan entries.
	ErrPlanEmpty = errors.New("explain: plan json is empty")
	// ErrPlanShape indicates the EXPLAIN output did not have the expected
	// [{"Plan": {...}}] structure.
	ErrPlanShape = errors.New("explain: unexpected plan json structure")
)
