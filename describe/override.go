package describe

import (
	"strings"

	"github.com/calmsql/calmsql"
)

// ParseOverride splits a trailing '!' or '?' nullability marker off a column
// alias. '!' forces not null, '?' forces nullable, no marker leaves the
// inferred value in effect. The marker is stripped from the display name.
// An alias carrying more than one marker is rejected.
func ParseOverride(alias string) (string, calmsql.Nullability, error) {
	var override calmsql.Nullability

	name := alias

	switch {
	case strings.HasSuffix(alias, "!"):
		name = strings.TrimSuffix(alias, "!")
		override = calmsql.NotNull
	case strings.HasSuffix(alias, "?"):
		name = strings.TrimSuffix(alias, "?")
		override = calmsql.Nullable
	default:
		return name, calmsql.NullUnknown, nil
	}

	if strings.HasSuffix(name, "!") || strings.HasSuffix(name, "?") {
		return alias, calmsql.NullUnknown, calmsql.ErrConflictingOverride
	}

	return name, override, nil
}
