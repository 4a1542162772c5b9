package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/localnerve/shelter-intake/internal/models"
	"github.com/localnerve/shelter-intake/internal/services"
	"github.com/localnerve/shelter-intake/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "7145551234", services.NormalizePhone("(714) 555-1234"))
	assert.Equal(t, "17145551234", services.NormalizePhone("+1 714.555.1234"))
	assert.Equal(t, "", services.NormalizePhone("n/a"))
}

func TestNormalizeDOB(t *testing.T) {
	born := time.Date(1990, time.January, 15, 8, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"iso", "1990-01-15", "1990-01-15"},
		{"padded", "  1990-01-15 ", "1990-01-15"},
		{"rfc3339", "1990-01-15T08:30:00Z", "1990-01-15"},
		{"us slashes", "01/15/1990", "1990-01-15"},
		{"us short", "1/15/1990", "1990-01-15"},
		{"long month", "January 15, 1990", "1990-01-15"},
		{"time", born, "1990-01-15"},
		{"time pointer", &born, "1990-01-15"},
		{"zero time", time.Time{}, ""},
		{"garbage", "someday", ""},
		{"empty", "", ""},
		{"number", 19900115, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, services.NormalizeDOB(tt.in))
		})
	}
}

func TestMatchClient(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	other := &models.Client{FirstName: "John", LastName: "Doe", PhoneNumber: "555-000-0000", DateOfBirth: "1990-01-15"}
	john := &models.Client{FirstName: "John", LastName: "Doe", PhoneNumber: "714-555-1234", DateOfBirth: "1990-01-15"}
	legacy := &models.Client{FirstName: " Mary ", LastName: "SMITH", PhoneNumber: "7145559999", DateOfBirth: "03/04/1985"}
	testutil.MustCreate(t, db, other)
	testutil.MustCreate(t, db, john)
	testutil.MustCreate(t, db, legacy)

	id, err := services.MatchClient(ctx, db, "John", "Doe", "(714) 555-1234", "1990-01-15")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, john.ID, *id)

	id, err = services.MatchClient(ctx, db, "  JOHN", "doe ", "7145551234", time.Date(1990, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, john.ID, *id)

	id, err = services.MatchClient(ctx, db, "mary", "smith", "714 555 9999", "1985-03-04")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, legacy.ID, *id)
}

func TestMatchClientNoMatch(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	testutil.MustCreate(t, db, &models.Client{FirstName: "John", LastName: "Doe", PhoneNumber: "714-555-1234", DateOfBirth: "1990-01-15"})

	tests := []struct {
		name                    string
		first, last, phone, dob string
	}{
		{"different phone", "John", "Doe", "(714) 555-0000", "1990-01-15"},
		{"different dob", "John", "Doe", "(714) 555-1234", "1990-01-16"},
		{"different name", "Jon", "Doe", "(714) 555-1234", "1990-01-15"},
		{"missing first", "", "Doe", "(714) 555-1234", "1990-01-15"},
		{"missing phone", "John", "Doe", "", "1990-01-15"},
		{"unparseable dob", "John", "Doe", "(714) 555-1234", "sometime in 1990"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := services.MatchClient(ctx, db, tt.first, tt.last, tt.phone, tt.dob)
			require.NoError(t, err)
			assert.Nil(t, id)
		})
	}
}

func TestExtractClientFields(t *testing.T) {
	fields := services.ExtractClientFields(map[string]any{
		"first_name":             "  Ann ",
		"firstName":              "",
		"what_is_your_last_name": "Lee",
		"Phone Number":           "714-555-1234",
		"dateOfBirth":            time.Date(1990, 1, 15, 0, 0, 0, 0, time.UTC),
	})

	assert.Equal(t, services.ClientFields{
		FirstName:   "Ann",
		LastName:    "Lee",
		PhoneNumber: "714-555-1234",
		DateOfBirth: "1990-01-15",
	}, fields)
	assert.True(t, fields.Complete())

	assert.False(t, services.ExtractClientFields(map[string]any{"firstName": "Ann"}).Complete())
}

func TestExtractClientFieldsForFormPrefersRegistry(t *testing.T) {
	questions := []models.FormQuestion{
		{FieldKey: "given_name", SemanticField: models.SemanticFirstName},
		{FieldKey: "family_name", SemanticField: models.SemanticLastName},
		{FieldKey: "notes"},
	}

	fields := services.ExtractClientFieldsForForm(questions, map[string]any{
		"given_name":  "Ann",
		"firstName":   "Bob",
		"familyName":  "Lee",
		"phoneNumber": "714-555-1234",
		"dob":         "1990-01-15",
	})

	assert.Equal(t, "Ann", fields.FirstName)
	assert.Equal(t, "Lee", fields.LastName)
	assert.Equal(t, "714-555-1234", fields.PhoneNumber)
	assert.Equal(t, "1990-01-15", fields.DateOfBirth)
}
