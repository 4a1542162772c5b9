// Package values converts answers between their typed form and the text
// stored in intake_responses. The same question type drives both
// directions so the write and read paths cannot drift apart.
package values

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/localnerve/shelter-intake/internal/models"
	"github.com/shopspring/decimal"
)

// Kind is the variant held by a Value
type Kind int

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindBool
	KindDate
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	case KindJSON:
		return "json"
	}
	return "null"
}

// Canonical boolean encodings
const (
	True  = "true"
	False = "false"
)

// DateLayout is the canonical stored date format
const DateLayout = "2006-01-02"

// Value is a decoded answer
type Value struct {
	kind Kind
	text string
	num  float64
	b    bool
	doc  any
}

func Null() Value            { return Value{kind: KindNull} }
func Text(s string) Value    { return Value{kind: KindText, text: s} }
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func Date(s string) Value    { return Value{kind: KindDate, text: s} }
func JSONDoc(doc any) Value  { return Value{kind: KindJSON, doc: doc} }

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) Float() float64 { return v.num }
func (v Value) Boolean() bool  { return v.b }
func (v Value) String() string { return v.text }
func (v Value) Document() any  { return v.doc }

// Interface returns the plain Go value used in materialized records
func (v Value) Interface() any {
	switch v.kind {
	case KindText, KindDate:
		return v.text
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindJSON:
		return v.doc
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// Decode turns a stored response value back into a typed Value.
// Malformed numbers and empty dates decode to Null; a rating grid that is
// not valid JSON is kept as text.
func Decode(qt models.QuestionType, stored string) Value {
	switch qt {
	case models.QuestionNumber:
		s := strings.TrimSpace(stored)
		if s == "" {
			return Null()
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Null()
		}
		return Number(f)

	case models.QuestionBoolean:
		return Bool(isTrue(stored))

	case models.QuestionDate:
		if strings.TrimSpace(stored) == "" {
			return Null()
		}
		return Date(stored)

	case models.QuestionRatingGrid:
		if strings.TrimSpace(stored) == "" {
			return Text("")
		}
		var doc any
		if err := json.Unmarshal([]byte(stored), &doc); err != nil {
			return Text(stored)
		}
		return JSONDoc(doc)
	}

	return Text(stored)
}

// "yes" predates the canonical encoding and is still read as true
func isTrue(s string) bool {
	s = strings.TrimSpace(s)
	return strings.EqualFold(s, True) || strings.EqualFold(s, "yes")
}

// Encode turns a submitted answer into its stored text
func Encode(qt models.QuestionType, raw any) (string, error) {
	if raw == nil {
		return "", nil
	}

	switch qt {
	case models.QuestionBoolean:
		return encodeBool(raw)
	case models.QuestionNumber:
		return encodeNumber(raw)
	case models.QuestionDate:
		return encodeDate(raw)
	case models.QuestionRatingGrid:
		if s, ok := raw.(string); ok {
			return s, nil
		}
		b, err := json.Marshal(raw)
		if err != nil {
			return "", fmt.Errorf("rating grid value: %w", err)
		}
		return string(b), nil
	}

	return encodeText(raw)
}

func encodeBool(raw any) (string, error) {
	switch v := raw.(type) {
	case bool:
		if v {
			return True, nil
		}
		return False, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "":
			return "", nil
		case "true", "yes", "y", "1", "on":
			return True, nil
		case "false", "no", "n", "0", "off":
			return False, nil
		}
		return "", fmt.Errorf("%q is not a boolean", v)
	case float64:
		return encodeBool(v != 0)
	case int:
		return encodeBool(v != 0)
	}
	return "", fmt.Errorf("unsupported boolean value %v", raw)
}

func encodeNumber(raw any) (string, error) {
	switch v := raw.(type) {
	case float64:
		return decimal.NewFromFloat(v).String(), nil
	case float32:
		return decimal.NewFromFloat32(v).String(), nil
	case int:
		return decimal.NewFromInt(int64(v)).String(), nil
	case int64:
		return decimal.NewFromInt(v).String(), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case json.Number:
		return encodeNumber(string(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return "", nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return "", fmt.Errorf("%q is not a number", v)
		}
		return d.String(), nil
	}
	return "", fmt.Errorf("unsupported number value %v", raw)
}

func encodeDate(raw any) (string, error) {
	switch v := raw.(type) {
	case time.Time:
		if v.IsZero() {
			return "", nil
		}
		return v.Format(DateLayout), nil
	case string:
		return strings.TrimSpace(v), nil
	}
	return "", fmt.Errorf("unsupported date value %v", raw)
}

func encodeText(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case bool, float64, float32, int, int64, uint64, json.Number:
		return fmt.Sprint(v), nil
	}
	// multi-select answers and other structured values
	b, err := json.Marshal(raw)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
