package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/localnerve/shelter-intake/internal/models"
	"github.com/localnerve/shelter-intake/internal/types"
	"github.com/localnerve/shelter-intake/internal/values"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ClientFields are the answers used to recognise an existing client
type ClientFields struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	DateOfBirth string `json:"dateOfBirth"`
}

// Complete reports whether every field needed for a match is present
func (f ClientFields) Complete() bool {
	return f.FirstName != "" && f.LastName != "" && f.PhoneNumber != "" && f.DateOfBirth != ""
}

// Alias keys probed in order when a form carries no semantic field registry
var clientFieldAliases = map[models.SemanticField][]string{
	models.SemanticFirstName:   {"firstName", "first_name", "first name", "First Name"},
	models.SemanticLastName:    {"lastName", "last_name", "last name", "Last Name", "what_is_your_last_name"},
	models.SemanticPhoneNumber: {"phoneNumber", "phone_number", "phone number", "Phone Number", "phone"},
	models.SemanticDateOfBirth: {"dateOfBirth", "date_of_birth", "date of birth", "Date of Birth", "dob"},
}

var dobLayouts = []string{
	values.DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"Mon Jan 2 2006",
}

// NormalizeName lower-cases and trims a name
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePhone keeps only the digits of a phone number
func NormalizePhone(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// NormalizeDOB converts a date of birth to YYYY-MM-DD. It accepts
// time.Time and strings in the common layouts; anything else yields "".
func NormalizeDOB(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(values.DateLayout)
	case *time.Time:
		if t == nil {
			return ""
		}
		return NormalizeDOB(*t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return ""
		}
		for _, layout := range dobLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.Format(values.DateLayout)
			}
		}
	}
	return ""
}

// MatchClient finds an existing client by exact name, phone and date of
// birth. Names compare case-insensitively after trimming, phones by digits
// and the birth date either as a normalized date or as the stored text.
// It returns nil when any input is empty or no client matches.
func MatchClient(ctx context.Context, db *gorm.DB, firstName, lastName, phoneNumber string, dateOfBirth any) (*uint64, error) {
	first := NormalizeName(firstName)
	last := NormalizeName(lastName)
	phone := NormalizePhone(phoneNumber)
	dob := NormalizeDOB(dateOfBirth)
	if first == "" || last == "" || phone == "" || dob == "" {
		return nil, nil
	}

	rawDOB := ""
	if s, ok := dateOfBirth.(string); ok {
		rawDOB = strings.TrimSpace(s)
	}

	var candidates []models.Client
	if err := db.WithContext(ctx).
		Where("LOWER(TRIM(first_name)) = ? AND LOWER(TRIM(last_name)) = ?", first, last).
		Order("id").
		Find(&candidates).Error; err != nil {
		return nil, types.WrapDatabaseError(err, "match client")
	}

	for _, c := range candidates {
		if NormalizePhone(c.PhoneNumber) != phone {
			continue
		}
		stored := strings.TrimSpace(c.DateOfBirth)
		if NormalizeDOB(stored) == dob || (rawDOB != "" && stored == rawDOB) {
			id := c.ID
			return &id, nil
		}
	}
	return nil, nil
}

// MatchClientFields runs MatchClient on extracted fields
func MatchClientFields(ctx context.Context, db *gorm.DB, f ClientFields) (*uint64, error) {
	return MatchClient(ctx, db, f.FirstName, f.LastName, f.PhoneNumber, f.DateOfBirth)
}

// ExtractClientFields probes the known aliases of each client field and
// keeps the first non-empty answer.
func ExtractClientFields(formData map[string]any) ClientFields {
	return ClientFields{
		FirstName:   probe(formData, clientFieldAliases[models.SemanticFirstName]),
		LastName:    probe(formData, clientFieldAliases[models.SemanticLastName]),
		PhoneNumber: probe(formData, clientFieldAliases[models.SemanticPhoneNumber]),
		DateOfBirth: probe(formData, clientFieldAliases[models.SemanticDateOfBirth]),
	}
}

// ExtractClientFieldsForForm reads client fields from the questions tagged
// with a semantic field and falls back to alias probing for the rest.
func ExtractClientFieldsForForm(questions []models.FormQuestion, formData map[string]any) ClientFields {
	registered := make(map[models.SemanticField]string)
	for _, q := range questions {
		if q.SemanticField == models.SemanticNone {
			continue
		}
		if v := probe(formData, []string{q.FieldKey, values.CamelKey(q.FieldKey)}); v != "" {
			registered[q.SemanticField] = v
		}
	}

	fields := ExtractClientFields(formData)
	if v, ok := registered[models.SemanticFirstName]; ok {
		fields.FirstName = v
	}
	if v, ok := registered[models.SemanticLastName]; ok {
		fields.LastName = v
	}
	if v, ok := registered[models.SemanticPhoneNumber]; ok {
		fields.PhoneNumber = v
	}
	if v, ok := registered[models.SemanticDateOfBirth]; ok {
		fields.DateOfBirth = v
	}
	return fields
}

// matchSession tries to recognise the client behind a submission. Failures
// are logged and reported as no match.
func matchSession(ctx context.Context, db *gorm.DB, questions []models.FormQuestion, answers map[string]any) *uint64 {
	fields := ExtractClientFieldsForForm(questions, answers)
	if !fields.Complete() {
		return nil
	}

	id, err := MatchClientFields(ctx, db, fields)
	if err != nil {
		zap.L().Warn("client match failed", zap.Error(err))
		return nil
	}
	return id
}

func probe(data map[string]any, keys []string) string {
	for _, k := range keys {
		v, ok := data[k]
		if !ok || v == nil {
			continue
		}
		if s := answerString(v); s != "" {
			return s
		}
	}
	return ""
}

func answerString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case time.Time:
		return NormalizeDOB(t)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
