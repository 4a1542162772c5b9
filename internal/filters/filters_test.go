package filters

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/localnerve/shelter-intake/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlank(t *testing.T) {
	f, err := Parse("  ")
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.True(t, f.Empty())
}

func TestParseDefaultsCombinator(t *testing.T) {
	f, err := Parse(`{"clauses":[{"field":"age","op":"gte","value":18}]}`)
	require.NoError(t, err)
	assert.Equal(t, And, f.Combinator)
	require.Len(t, f.Clauses, 1)
	assert.Equal(t, "18", stringify(f.Clauses[0].Value))
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"malformed json", `{"clauses":`},
		{"bad combinator", `{"combinator":"xor","clauses":[]}`},
		{"missing field", `{"clauses":[{"op":"eq","value":"a"}]}`},
		{"unknown op", `{"clauses":[{"field":"a","op":"like","value":"a"}]}`},
		{"missing value", `{"clauses":[{"field":"a","op":"eq"}]}`},
		{"bad timestamp", `{"clauses":[{"field":"submittedAt","op":"gt","value":"yesterday"}]}`},
		{"bad client id", `{"clauses":[{"field":"clientId","op":"eq","value":"abc"}]}`},
		{"bad linked", `{"clauses":[{"field":"linked","op":"eq","value":"maybe"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			require.Error(t, err)
			assert.True(t, types.IsKind(err, types.KindValidation))
		})
	}
}

func TestParseEmptyOpNeedsNoValue(t *testing.T) {
	f, err := Parse(`{"clauses":[{"field":"notes","op":"empty"}]}`)
	require.NoError(t, err)
	assert.Equal(t, OpEmpty, f.Clauses[0].Op)
}

func TestBuildWithoutFilter(t *testing.T) {
	sql, args := Build(nil, 7, "sqlite")
	assert.Equal(t, "SELECT DISTINCT session_id FROM intake_responses WHERE form_id = ?", sql)
	assert.Equal(t, []any{uint64(7)}, args)
}

func TestBuildFieldClauses(t *testing.T) {
	f := &Filter{Combinator: Or, Clauses: []Clause{
		{Field: "housing_status", Op: OpEq, Value: "Shelter"},
		{Field: "age", Op: OpGte, Value: 18.0},
	}}

	sql, args := Build(f, 1, "postgres")

	assert.Contains(t, sql, " OR ")
	assert.Contains(t, sql, "LOWER(r.response_value) = ?")
	assert.Contains(t, sql, "CASE WHEN q.question_type = ? AND r.response_value ~ ? THEN CAST(r.response_value AS NUMERIC) END >= ?")
	assert.Equal(t, 2, strings.Count(sql, "session_id IN (SELECT r.session_id"))
	assert.Contains(t, args, "shelter")
	assert.Contains(t, args, "housing_status")
	assert.Contains(t, args, 18.0)
}

func TestBuildNegativeClausesUseNotIn(t *testing.T) {
	f := &Filter{Combinator: And, Clauses: []Clause{
		{Field: "notes", Op: OpEmpty},
		{Field: "city", Op: OpNeq, Value: "Irvine"},
	}}

	sql, _ := Build(f, 1, "sqlite")
	assert.Equal(t, 2, strings.Count(sql, "session_id NOT IN ("))
}

func TestBuildNonNumericOrderedComparesText(t *testing.T) {
	f := &Filter{Clauses: []Clause{{Field: "move_in", Op: OpLt, Value: "2024-01-01"}}}

	sql, args := Build(f, 1, "mysql")
	assert.NotContains(t, sql, "CAST(")
	assert.Contains(t, sql, "r.response_value < ?")
	assert.Contains(t, args, "2024-01-01")
}

func TestBuildNumericOperandGuardsCast(t *testing.T) {
	tests := []struct {
		dialect string
		value   string
	}{
		{"postgres", "CASE WHEN q.question_type = ? AND r.response_value ~ ? THEN CAST(r.response_value AS NUMERIC) END > ?"},
		{"mysql", "CASE WHEN q.question_type = ? AND r.response_value REGEXP ? THEN CAST(r.response_value AS DECIMAL(20,6)) END > ?"},
		{"sqlserver", "CASE WHEN q.question_type = ? AND r.response_value <> '' THEN TRY_CAST(r.response_value AS FLOAT) END > ?"},
		{"sqlite", "CASE WHEN q.question_type = ? AND r.response_value <> '' THEN CAST(r.response_value AS REAL) END > ?"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			f := &Filter{Clauses: []Clause{{Field: "notes", Op: OpGt, Value: 5.0}}}

			sql, args := Build(f, 1, tt.dialect)
			assert.Contains(t, sql, tt.value)
			assert.Contains(t, sql, "q.question_type <> ? AND r.response_value > ?")
			assert.NotContains(t, sql, "AND CAST(")
			assert.Contains(t, args, "number")
			assert.Contains(t, args, 5.0)
			assert.Contains(t, args, "5")
		})
	}
}

func TestBuildStaticClauses(t *testing.T) {
	f := &Filter{Clauses: []Clause{
		{Field: FieldLinked, Op: OpEq, Value: false},
		{Field: FieldSubmittedAt, Op: OpGte, Value: "2024-03-01"},
		{Field: FieldSessionID, Op: OpContains, Value: "ABC"},
	}}

	sql, args := Build(f, 3, "sqlite")
	assert.Contains(t, sql, "client_id IS NULL")
	assert.Contains(t, sql, "submitted_at >= ?")
	assert.Contains(t, sql, "LOWER(session_id) LIKE ?")
	assert.Contains(t, args, "%abc%")
}

func TestNumericType(t *testing.T) {
	assert.Equal(t, "REAL", numericType("sqlite"))
	assert.Equal(t, "DECIMAL(20,6)", numericType("mysql"))
	assert.Equal(t, "FLOAT", numericType("sqlserver"))
	assert.Equal(t, "NUMERIC", numericType("postgres"))
}

func TestBuildCamelFieldMatchesSnakeKey(t *testing.T) {
	f := &Filter{Clauses: []Clause{{Field: "householdSize", Op: OpGt, Value: json.Number("2")}}}

	sql, args := Build(f, 1, "sqlite")
	assert.Contains(t, sql, "q.field_key IN (?, ?)")
	assert.Contains(t, args, "householdSize")
	assert.Contains(t, args, "household_size")
	assert.Contains(t, args, 2.0)
}
