package calmsql

import "errors"

// Common errors used throughout the calmsql package
var (
	// ErrNoConnection is returned when a validation entry point is given a nil
	// session or connection factory.
	ErrNoConnection = errors.New("database connection is not available")
	// ErrConflictingOverride indicates a column alias carries both a '!' and a
	// '?' nullability marker.
	ErrConflictingOverride = errors.New("column alias has conflicting nullability markers")
	// ErrNoResultColumns indicates a statement that produces no result rows
	// was registered with an expected shape.
	ErrNoResultColumns = errors.New("statement does not return result columns")
	// ErrConfigValidation is returned when configuration validation fails.
	ErrConfigValidation = errors.New("configuration validation failed")
)
