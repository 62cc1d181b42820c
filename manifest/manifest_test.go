package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/calmsql/calmsql"
)

const sampleManifest = `
queries:
  - name: list_cards
    sql: SELECT id, front, back FROM cards ORDER BY id
    columns:
      - name: id
        type: bigint
      - name: front
        type: text
      - name: back
        type: text
        nullable: true
  - name: card_count
    sql: SELECT count(*) AS "count!" FROM cards
    scalar:
      type: int64
  - name: ping
    sql: SELECT 1
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	assert.NoError(t, err)
	assert.Equal(t, 3, len(m.Queries))

	queries, err := m.BuildQueries()
	assert.NoError(t, err)
	assert.Equal(t, 3, len(queries))

	cols, err := queries[0].Shape.Columns()
	assert.NoError(t, err)
	assert.Equal(t, 3, len(cols))
	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, []calmsql.TypeTag{calmsql.Scalar(calmsql.KindInt64)}, cols[0].Types)
	assert.False(t, cols[0].Nullable)
	assert.True(t, cols[2].Nullable)

	cols, err = queries[1].Shape.Columns()
	assert.NoError(t, err)
	assert.Equal(t, 1, len(cols))
	assert.Equal(t, "", cols[0].Name)
	assert.Equal(t, []calmsql.TypeTag{calmsql.Scalar(calmsql.KindInt64)}, cols[0].Types)

	// No declared shape registers the query for describe-only checks.
	assert.Zero(t, queries[2].Shape)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("queries:\n  - name: x\n    sql: SELECT 1\n    shape: scalar\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(sampleManifest), 0o644))

	m, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(m.Queries))

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestQueryEntryErrors(t *testing.T) {
	_, err := QueryEntry{Name: "", SQL: "SELECT 1"}.Query()
	assert.IsError(t, err, ErrQueryIncomplete)

	_, err = QueryEntry{Name: "x", SQL: "   "}.Query()
	assert.IsError(t, err, ErrQueryIncomplete)

	_, err = QueryEntry{
		Name:    "x",
		SQL:     "SELECT 1",
		Scalar:  &ColumnEntry{Type: "int"},
		Columns: []ColumnEntry{{Name: "a", Type: "int"}},
	}.Query()
	assert.IsError(t, err, ErrShapeConflict)

	_, err = QueryEntry{
		Name:    "x",
		SQL:     "SELECT addr FROM hosts",
		Columns: []ColumnEntry{{Name: "addr", Type: "inet"}},
	}.Query()
	assert.IsError(t, err, ErrUnknownTypeName)
}

func TestParseType(t *testing.T) {
	testCases := []struct {
		name     string
		expected calmsql.TypeTag
	}{
		{"bigint", calmsql.Scalar(calmsql.KindInt64)},
		{"int8", calmsql.Scalar(calmsql.KindInt64)},
		{"integer", calmsql.Scalar(calmsql.KindInt32)},
		{"smallint", calmsql.Scalar(calmsql.KindInt16)},
		{"TEXT", calmsql.Scalar(calmsql.KindText)},
		{" varchar ", calmsql.Scalar(calmsql.KindText)},
		{"datetime", calmsql.Scalar(calmsql.KindTimestamptz)},
		{"jsonb", calmsql.Scalar(calmsql.KindJSON)},
		{"text[]", calmsql.ArrayOf(calmsql.Scalar(calmsql.KindText))},
		{"int[]", calmsql.ArrayOf(calmsql.Scalar(calmsql.KindInt32))},
	}

	for _, tc := range testCases {
		tag, err := ParseType(tc.name)
		assert.NoError(t, err, "ParseType(%q)", tc.name)
		assert.Equal(t, tc.expected, tag)
	}

	_, err := ParseType("complex")
	assert.IsError(t, err, ErrUnknownTypeName)

	_, err = ParseType("complex[]")
	assert.IsError(t, err, ErrUnknownTypeName)
}
