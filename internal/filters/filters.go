// Package filters turns a structured response filter into a SQL subquery
// selecting the matching session ids.
//
// A filter arrives as JSON:
//
//	{"combinator":"and","clauses":[{"field":"age","op":"gte","value":18}]}
//
// Every clause becomes a session_id IN (subquery) existence check, so a
// clause on a dynamic field only needs the one EAV row that carries it.
package filters

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/localnerve/shelter-intake/internal/models"
	"github.com/localnerve/shelter-intake/internal/types"
	"github.com/localnerve/shelter-intake/internal/values"
)

// Combinator joins clauses
type Combinator string

const (
	And Combinator = "and"
	Or  Combinator = "or"
)

// Op is a clause operator
type Op string

const (
	OpEq       Op = "eq"
	OpNeq      Op = "neq"
	OpContains Op = "contains"
	OpGt       Op = "gt"
	OpGte      Op = "gte"
	OpLt       Op = "lt"
	OpLte      Op = "lte"
	OpEmpty    Op = "empty"
	OpNotEmpty Op = "not_empty"
)

func (o Op) valid() bool {
	switch o {
	case OpEq, OpNeq, OpContains, OpGt, OpGte, OpLt, OpLte, OpEmpty, OpNotEmpty:
		return true
	}
	return false
}

func (o Op) ordered() bool {
	return o == OpGt || o == OpGte || o == OpLt || o == OpLte
}

// Static columns of intake_responses that can be filtered alongside field keys
const (
	FieldSessionID   = "sessionId"
	FieldClientID    = "clientId"
	FieldSubmittedAt = "submittedAt"
	FieldLinked      = "linked"
)

// Clause is a single field test
type Clause struct {
	Field string `json:"field"`
	Op    Op     `json:"op"`
	Value any    `json:"value,omitempty"`
}

// Filter is a list of clauses joined by one combinator
type Filter struct {
	Combinator Combinator `json:"combinator"`
	Clauses    []Clause   `json:"clauses"`
}

// Empty reports whether the filter selects every session
func (f *Filter) Empty() bool {
	return f == nil || len(f.Clauses) == 0
}

// Parse decodes and validates a JSON filter. A blank input yields a nil
// filter and no error.
func Parse(raw string) (*Filter, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var f Filter
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&f); err != nil {
		return nil, types.NewValidationError("invalid filter: %v", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the combinator, operators and values of every clause
func (f *Filter) Validate() error {
	if f == nil {
		return nil
	}

	switch f.Combinator {
	case "":
		f.Combinator = And
	case And, Or:
	default:
		return types.NewValidationError("invalid filter combinator %q", f.Combinator)
	}

	for i, c := range f.Clauses {
		if strings.TrimSpace(c.Field) == "" {
			return types.NewValidationError("filter clause %d: field is required", i)
		}
		if !c.Op.valid() {
			return types.NewValidationError("filter clause %d: unknown operator %q", i, c.Op)
		}
		if c.Op == OpEmpty || c.Op == OpNotEmpty {
			continue
		}
		if c.Value == nil {
			return types.NewValidationError("filter clause %d: value is required for %s", i, c.Op)
		}

		switch c.Field {
		case FieldSubmittedAt:
			if _, err := parseTime(stringify(c.Value)); err != nil {
				return types.NewValidationError("filter clause %d: %v", i, err)
			}
		case FieldClientID:
			if _, err := strconv.ParseUint(stringify(c.Value), 10, 64); err != nil {
				return types.NewValidationError("filter clause %d: clientId must be an integer", i)
			}
		case FieldLinked:
			if _, err := strconv.ParseBool(stringify(c.Value)); err != nil {
				return types.NewValidationError("filter clause %d: linked must be true or false", i)
			}
		}
	}
	return nil
}

// Build returns a SELECT of the session ids of formID matching f. The SQL
// uses ? placeholders so it can be embedded in a gorm expression for any
// dialect. dialect is the gorm dialector name and selects the numeric cast.
func Build(f *Filter, formID uint64, dialect string) (string, []any) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("session_id").Distinct().From("intake_responses")

	where := []string{sb.Equal("form_id", formID)}
	if !f.Empty() {
		conds := make([]string, 0, len(f.Clauses))
		for _, c := range f.Clauses {
			conds = append(conds, clauseCondition(sb, c, formID, dialect))
		}
		if f.Combinator == Or {
			where = append(where, sb.Or(conds...))
		} else {
			where = append(where, sb.And(conds...))
		}
	}
	sb.Where(where...)

	return sb.BuildWithFlavor(sqlbuilder.MySQL)
}

func clauseCondition(sb *sqlbuilder.SelectBuilder, c Clause, formID uint64, dialect string) string {
	switch c.Field {
	case FieldSessionID, FieldClientID, FieldSubmittedAt, FieldLinked:
		sub, negate := staticSubquery(c, formID)
		if negate {
			return sb.NotIn("session_id", sub)
		}
		return sb.In("session_id", sub)
	}

	sub, negate := fieldSubquery(c, formID, dialect)
	if negate {
		return sb.NotIn("session_id", sub)
	}
	return sb.In("session_id", sub)
}

// fieldSubquery selects sessions holding a matching value for a dynamic
// field. Negative operators select the sessions that do match and are
// applied with NOT IN, so sessions without the field count as not equal
// and as empty.
func fieldSubquery(c Clause, formID uint64, dialect string) (*sqlbuilder.SelectBuilder, bool) {
	sub := sqlbuilder.NewSelectBuilder()
	sub.Select("r.session_id").
		From("intake_responses r").
		Join("form_questions q", "q.id = r.question_id")

	conds := []string{
		sub.Equal("r.form_id", formID),
		fieldKeyCondition(sub, c.Field),
	}

	value := stringify(c.Value)
	negate := false

	switch c.Op {
	case OpEq:
		conds = append(conds, sub.Equal("LOWER(r.response_value)", strings.ToLower(value)))
	case OpNeq:
		conds = append(conds, sub.Equal("LOWER(r.response_value)", strings.ToLower(value)))
		negate = true
	case OpContains:
		conds = append(conds, sub.Like("LOWER(r.response_value)", "%"+strings.ToLower(value)+"%"))
	case OpGt, OpGte, OpLt, OpLte:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			conds = append(conds, compare(sub, c.Op, "r.response_value", value))
			break
		}
		number := sub.Var(string(models.QuestionNumber))
		conds = append(conds, sub.Or(
			numericValue(sub, dialect, number)+" "+orderSymbols[c.Op]+" "+sub.Var(n),
			sub.And(
				"q.question_type <> "+number,
				compare(sub, c.Op, "r.response_value", value),
			),
		))
	case OpEmpty:
		conds = append(conds, sub.NotEqual("r.response_value", ""))
		negate = true
	case OpNotEmpty:
		conds = append(conds, sub.NotEqual("r.response_value", ""))
	}

	sub.Where(conds...)
	return sub, negate
}

// fieldKeyCondition matches the field key as given or as its snake_case form
func fieldKeyCondition(sub *sqlbuilder.SelectBuilder, field string) string {
	if snake := values.SnakeKey(field); snake != field {
		return sub.In("q.field_key", field, snake)
	}
	return sub.Equal("q.field_key", field)
}

func staticSubquery(c Clause, formID uint64) (*sqlbuilder.SelectBuilder, bool) {
	sub := sqlbuilder.NewSelectBuilder()
	sub.Select("session_id").From("intake_responses")

	conds := []string{sub.Equal("form_id", formID)}
	value := stringify(c.Value)
	negate := false

	switch c.Field {
	case FieldSessionID:
		switch c.Op {
		case OpContains:
			conds = append(conds, sub.Like("LOWER(session_id)", "%"+strings.ToLower(value)+"%"))
		case OpNeq:
			conds = append(conds, sub.Equal("session_id", value))
			negate = true
		case OpEmpty:
			conds = append(conds, "1 = 0")
		case OpNotEmpty:
		default:
			conds = append(conds, sub.Equal("session_id", value))
		}

	case FieldClientID, FieldLinked:
		linked := true
		switch {
		case c.Op == OpEmpty:
			linked = false
		case c.Op == OpNotEmpty:
		case c.Field == FieldLinked:
			linked, _ = strconv.ParseBool(value)
			if c.Op == OpNeq {
				linked = !linked
			}
		default:
			id, _ := strconv.ParseUint(value, 10, 64)
			if c.Op.ordered() {
				conds = append(conds, compare(sub, c.Op, "client_id", id))
			} else {
				conds = append(conds, sub.Equal("client_id", id))
				negate = c.Op == OpNeq
			}
		}
		if linked {
			conds = append(conds, sub.IsNotNull("client_id"))
		} else {
			conds = append(conds, sub.IsNull("client_id"))
		}

	case FieldSubmittedAt:
		t, _ := parseTime(value)
		switch c.Op {
		case OpEq, OpNeq, OpContains:
			day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
			conds = append(conds,
				sub.GreaterEqualThan("submitted_at", day),
				sub.LessThan("submitted_at", day.AddDate(0, 0, 1)))
			negate = c.Op == OpNeq
		case OpEmpty:
			conds = append(conds, sub.IsNull("submitted_at"))
		case OpNotEmpty:
			conds = append(conds, sub.IsNotNull("submitted_at"))
		default:
			conds = append(conds, compare(sub, c.Op, "submitted_at", t))
		}
	}

	sub.Where(conds...)
	return sub, negate
}

// orderSymbols spell the ordered operators for expressions that already
// carry sqlbuilder vars and so cannot go through the Cond helpers
var orderSymbols = map[Op]string{OpGt: ">", OpGte: ">=", OpLt: "<", OpLte: "<="}

func compare(sb *sqlbuilder.SelectBuilder, op Op, col string, arg any) string {
	switch op {
	case OpGt:
		return sb.GreaterThan(col, arg)
	case OpGte:
		return sb.GreaterEqualThan(col, arg)
	case OpLt:
		return sb.LessThan(col, arg)
	default:
		return sb.LessEqualThan(col, arg)
	}
}

// numericPattern is the stored form of a number answer
const numericPattern = `^-{0,1}[0-9]+([.][0-9]+){0,1}$`

// numericValue is the numeric value of a number answer, or NULL. The cast
// sits inside CASE so no other row is ever cast, whatever order the planner
// evaluates the WHERE predicates in.
func numericValue(sub *sqlbuilder.SelectBuilder, dialect, number string) string {
	cast := fmt.Sprintf("CAST(r.response_value AS %s)", numericType(dialect))
	guard := "r.response_value <> ''"

	switch dialect {
	case "postgres":
		guard = "r.response_value ~ " + sub.Var(numericPattern)
	case "mysql":
		guard = "r.response_value REGEXP " + sub.Var(numericPattern)
	case "sqlserver":
		cast = "TRY_CAST(r.response_value AS FLOAT)"
	}

	return fmt.Sprintf("CASE WHEN q.question_type = %s AND %s THEN %s END", number, guard, cast)
}

func numericType(dialect string) string {
	switch dialect {
	case "postgres":
		return "NUMERIC"
	case "mysql":
		return "DECIMAL(20,6)"
	case "sqlserver":
		return "FLOAT"
	}
	return "REAL"
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a timestamp", s)
}
