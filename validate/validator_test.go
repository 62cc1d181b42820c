package validate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/calmsql/calmsql"
	"github.com/calmsql/calmsql/describe"
	"github.com/calmsql/calmsql/shape"
)

// fakeSession serves canned describe, catalog and plan answers.
type fakeSession struct {
	stmt        *describe.Statement
	describeErr error
	notNull     map[[2]uint32]bool
	plan        string
	planErr     error
	closed      bool
}

func (f *fakeSession) Describe(_ context.Context, _ string) (*describe.Statement, error) {
	return f.stmt, f.describeErr
}

func (f *fakeSession) QueryValue(_ context.Context, _ string, args ...any) (any, error) {
	key := [2]uint32{args[0].(uint32), uint32(args[1].(uint16))}
	return f.notNull[key], nil
}

func (f *fakeSession) QueryPlan(_ context.Context, _ string) ([]byte, error) {
	if f.planErr != nil {
		return nil, f.planErr
	}

	return []byte(f.plan), nil
}

func (f *fakeSession) Close(_ context.Context) error {
	f.closed = true
	return nil
}

func seqScanPlan(relation string, outputs ...string) string {
	quoted := ""
	for i, out := range outputs {
		if i > 0 {
			quoted += ", "
		}

		quoted += fmt.Sprintf("%q", out)
	}

	return fmt.Sprintf(`[{"Plan": {"Node Type": "Seq Scan", "Relation Name": %q, "Output": [%s]}}]`, relation, quoted)
}

const cardsTable = uint32(5001)

func cardsSession() *fakeSession {
	return &fakeSession{
		stmt: &describe.Statement{
			Name: "calmsql_stmt_1",
			Fields: []describe.Field{
				{Name: "id", TableOID: cardsTable, AttNum: 1, TypeOID: 20},
				{Name: "front", TableOID: cardsTable, AttNum: 2, TypeOID: 25},
				{Name: "back", TableOID: cardsTable, AttNum: 3, TypeOID: 25},
			},
		},
		notNull: map[[2]uint32]bool{
			{cardsTable, 1}: true,
			{cardsTable, 2}: true,
			{cardsTable, 3}: true,
		},
		plan: seqScanPlan("cards", "cards.id", "cards.front", "cards.back"),
	}
}

type cardRow struct {
	ID    int64
	Front string
	Back  string
}

func TestValidateMatchingShape(t *testing.T) {
	v := New(nil)
	q := &Query{Name: "all_cards", SQL: "SELECT id, front, back FROM cards", Shape: shape.RowOf[cardRow]()}

	diags, err := v.Validate(context.Background(), cardsSession(), q)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(diags))
}

func TestValidateIsIdempotent(t *testing.T) {
	v := New(nil)
	q := &Query{Name: "all_cards", SQL: "SELECT id, front, back FROM cards", Shape: shape.RowOf[cardRow]()}
	sess := cardsSession()

	first, err := v.Validate(context.Background(), sess, q)
	assert.NoError(t, err)

	second, err := v.Validate(context.Background(), sess, q)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestValidateTypeMismatch(t *testing.T) {
	sess := &fakeSession{
		stmt: &describe.Statement{
			Name:   "calmsql_stmt_1",
			Fields: []describe.Field{{Name: "id", TableOID: cardsTable, AttNum: 1, TypeOID: 23}},
		},
		notNull: map[[2]uint32]bool{{cardsTable, 1}: true},
		plan:    seqScanPlan("flashcards", "flashcards.id"),
	}
	q := &Query{Name: "card_id", SQL: "SELECT id FROM flashcards", Shape: shape.ScalarOf[string]()}

	diags, err := New(nil).Validate(context.Background(), sess, q)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(diags))

	mismatch, ok := diags[0].(calmsql.TypeMismatch)
	assert.True(t, ok)
	assert.Equal(t, "id", mismatch.Column)
	assert.Equal(t, calmsql.Scalar(calmsql.KindInt32), mismatch.Actual)
	assert.Equal(t, []calmsql.TypeTag{calmsql.Scalar(calmsql.KindText)}, mismatch.Expected)
}

const reviewsTable = uint32(5002)

const leftJoinPlan = `[{"Plan": {
  "Node Type": "Hash Left Join",
  "Join Type": "Left",
  "Output": ["c.id", "r.score"],
  "Plans": [
    {"Node Type": "Seq Scan", "Parent Relationship": "Outer",
     "Relation Name": "cards", "Alias": "c", "Output": ["c.id"]},
    {"Node Type": "Hash", "Parent Relationship": "Inner",
     "Output": ["r.score", "r.card_id"],
     "Plans": [
       {"Node Type": "Seq Scan", "Parent Relationship": "Outer",
        "Relation Name": "reviews", "Alias": "r",
        "Output": ["r.score", "r.card_id"]}]}]}}]`

func TestValidateLeftJoinForcesNullable(t *testing.T) {
	// reviews.score is NOT NULL in the schema, but the left join exposes
	// it from the nullable side.
	sess := &fakeSession{
		stmt: &describe.Statement{
			Name: "calmsql_stmt_1",
			Fields: []describe.Field{
				{Name: "id", TableOID: cardsTable, AttNum: 1, TypeOID: 20},
				{Name: "score", TableOID: reviewsTable, AttNum: 3, TypeOID: 23},
			},
		},
		notNull: map[[2]uint32]bool{
			{cardsTable, 1}:   true,
			{reviewsTable, 3}: true,
		},
		plan: leftJoinPlan,
	}

	type row struct {
		ID    int64
		Score int32
	}

	q := &Query{
		Name:  "card_scores",
		SQL:   "SELECT c.id, r.score FROM cards c LEFT JOIN reviews r ON r.card_id = c.id",
		Shape: shape.RowOf[row](),
	}

	diags, err := New(nil).Validate(context.Background(), sess, q)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(diags))

	mismatch, ok := diags[0].(calmsql.NullabilityMismatch)
	assert.True(t, ok)
	assert.Equal(t, "score", mismatch.Column)
}

func TestValidateOverrideWinsOverInference(t *testing.T) {
	// count(*) has no traceable origin, which would default to nullable;
	// the alias marker forces non-null.
	sess := &fakeSession{
		stmt: &describe.Statement{
			Name:   "calmsql_stmt_1",
			Fields: []describe.Field{{Name: "count!", TypeOID: 20}},
		},
		plan: `[{"Plan": {"Node Type": "Aggregate", "Output": ["count(*)"],
		  "Plans": [{"Node Type": "Seq Scan", "Parent Relationship": "Outer",
		    "Relation Name": "cards", "Output": []}]}}]`,
	}
	q := &Query{Name: "card_count", SQL: `SELECT count(*) AS "count!" FROM cards`, Shape: shape.ScalarOf[int64]()}

	diags, err := New(nil).Validate(context.Background(), sess, q)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(diags))
}

func TestValidateOverrideForcesNullable(t *testing.T) {
	// The '?' marker makes a NOT NULL column nullable regardless of what
	// inference proves.
	sess := cardsSession()
	sess.stmt.Fields[1].Name = "front?"

	q := &Query{Name: "all_cards", SQL: "SELECT ...", Shape: shape.RowOf[cardRow]()}

	diags, err := New(nil).Validate(context.Background(), sess, q)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(diags))

	mismatch, ok := diags[0].(calmsql.NullabilityMismatch)
	assert.True(t, ok)
	assert.Equal(t, "front", mismatch.Column)
}

func TestValidateNonNullSatisfiesNullableExpectation(t *testing.T) {
	type row struct {
		ID    int64
		Front *string
		Back  *string
	}

	diags, err := New(nil).Validate(context.Background(), cardsSession(), &Query{
		Name:  "all_cards",
		SQL:   "SELECT id, front, back FROM cards",
		Shape: shape.RowOf[row](),
	})
	assert.NoError(t, err)
	assert.Equal(t, 0, len(diags))
}

func TestValidateDatabaseError(t *testing.T) {
	sess := &fakeSession{describeErr: errors.New(`relation "not_a_table" does not exist`)}
	q := &Query{Name: "broken", SQL: "SELECT id FROM not_a_table", Shape: shape.ScalarOf[int64]()}

	diags, err := New(nil).Validate(context.Background(), sess, q)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(diags))
	assert.Equal(t, calmsql.DiagDatabaseError, diags[0].Kind())
	assert.Contains(t, diags[0].Message(), "does not exist")
}

func TestValidatePlanFailureIsDatabaseError(t *testing.T) {
	sess := cardsSession()
	sess.planErr = errors.New("could not plan statement")

	q := &Query{Name: "all_cards", SQL: "SELECT ...", Shape: shape.RowOf[cardRow]()}

	diags, err := New(nil).Validate(context.Background(), sess, q)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(diags))
	assert.Equal(t, calmsql.DiagDatabaseError, diags[0].Kind())
}

func TestValidateUnsupportedType(t *testing.T) {
	// inet (OID 869) has no mapping; the diagnostic fires regardless of
	// the declared expectation.
	sess := &fakeSession{
		stmt: &describe.Statement{
			Name:   "calmsql_stmt_1",
			Fields: []describe.Field{{Name: "addr", TableOID: 5003, AttNum: 1, TypeOID: 869}},
		},
		notNull: map[[2]uint32]bool{{5003, 1}: true},
		plan:    seqScanPlan("hosts", "hosts.addr"),
	}
	q := &Query{Name: "host_addr", SQL: "SELECT addr FROM hosts", Shape: shape.ScalarOf[string]()}

	diags, err := New(nil).Validate(context.Background(), sess, q)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(diags))

	unsupported, ok := diags[0].(calmsql.UnsupportedType)
	assert.True(t, ok)
	assert.Equal(t, "addr", unsupported.Column)
	assert.Equal(t, uint32(869), unsupported.OID)
}

func TestValidateColumnCountMismatch(t *testing.T) {
	type row struct {
		ID    int64
		Front string
		Back  string
		Extra string
	}

	diags, err := New(nil).Validate(context.Background(), cardsSession(), &Query{
		Name:  "all_cards",
		SQL:   "SELECT id, front, back FROM cards",
		Shape: shape.RowOf[row](),
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(diags))

	missing, ok := diags[0].(calmsql.MissingColumn)
	assert.True(t, ok)
	assert.Equal(t, "extra", missing.Name)

	type short struct {
		ID int64
	}

	diags, err = New(nil).Validate(context.Background(), cardsSession(), &Query{
		Name:  "all_cards",
		SQL:   "SELECT id, front, back FROM cards",
		Shape: shape.RowOf[short](),
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, len(diags))
	assert.Equal(t, calmsql.DiagExtraColumn, diags[0].Kind())
	assert.Equal(t, calmsql.DiagExtraColumn, diags[1].Kind())
}

func TestValidateCollectsAllDiagnostics(t *testing.T) {
	// One query can report several independent findings at once.
	sess := cardsSession()
	sess.stmt.Fields[0].TypeOID = 23  // int4 against an int64 expectation
	sess.notNull[[2]uint32{cardsTable, 3}] = false

	diags, err := New(nil).Validate(context.Background(), sess, &Query{
		Name:  "all_cards",
		SQL:   "SELECT id, front, back FROM cards",
		Shape: shape.RowOf[cardRow](),
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, len(diags))
	assert.Equal(t, calmsql.DiagTypeMismatch, diags[0].Kind())
	assert.Equal(t, calmsql.DiagNullabilityMismatch, diags[1].Kind())
}

func TestValidateNilShapeChecksDescribeOnly(t *testing.T) {
	diags, err := New(nil).Validate(context.Background(), cardsSession(), &Query{
		Name: "all_cards",
		SQL:  "SELECT id, front, back FROM cards",
	})
	assert.NoError(t, err)
	assert.Equal(t, 0, len(diags))
}

func TestValidateNilSession(t *testing.T) {
	_, err := New(nil).Validate(context.Background(), nil, &Query{Name: "x", SQL: "SELECT 1"})
	assert.IsError(t, err, calmsql.ErrNoConnection)
}

func TestValidateShapeOnNonReturningStatement(t *testing.T) {
	sess := &fakeSession{
		stmt: &describe.Statement{Name: "calmsql_stmt_1", ParamOIDs: []uint32{25}},
	}

	_, err := New(nil).Validate(context.Background(), sess, &Query{
		Name:  "delete_card",
		SQL:   "DELETE FROM cards WHERE front = $1",
		Shape: shape.ScalarOf[int64](),
	})
	assert.IsError(t, err, calmsql.ErrNoResultColumns)
}

func TestValidateConflictingOverrideIsCallerError(t *testing.T) {
	sess := &fakeSession{
		stmt: &describe.Statement{
			Name:   "calmsql_stmt_1",
			Fields: []describe.Field{{Name: "count!?", TypeOID: 20}},
		},
	}

	_, err := New(nil).Validate(context.Background(), sess, &Query{
		Name:  "bad_alias",
		SQL:   `SELECT count(*) AS "count!?" FROM cards`,
		Shape: shape.ScalarOf[int64](),
	})
	assert.IsError(t, err, calmsql.ErrConflictingOverride)
}
