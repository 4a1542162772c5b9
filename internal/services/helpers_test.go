package services_test

import (
	"testing"
	"time"

	"github.com/localnerve/shelter-intake/internal/models"
	"github.com/localnerve/shelter-intake/internal/testutil"
	"gorm.io/gorm"
)

// intakeForm seeds a client intake form with the four identifying questions
// and a few typed ones
func intakeForm(t *testing.T, db *gorm.DB, formKey string) (*models.IntakeForm, []models.FormQuestion) {
	t.Helper()
	return testutil.SeedForm(t, db, formKey,
		models.FormQuestion{FieldKey: "first_name", QuestionText: "First name", IsCore: true, IsVisible: true, SemanticField: models.SemanticFirstName},
		models.FormQuestion{FieldKey: "last_name", QuestionText: "Last name", IsCore: true, IsVisible: true, SemanticField: models.SemanticLastName},
		models.FormQuestion{FieldKey: "phone_number", QuestionText: "Phone number", IsVisible: true, SemanticField: models.SemanticPhoneNumber},
		models.FormQuestion{FieldKey: "date_of_birth", QuestionText: "Date of birth", QuestionType: models.QuestionDate, IsVisible: true, SemanticField: models.SemanticDateOfBirth},
		models.FormQuestion{FieldKey: "household_size", QuestionText: "Household size", QuestionType: models.QuestionNumber, IsVisible: true},
		models.FormQuestion{FieldKey: "has_children", QuestionText: "Children?", QuestionType: models.QuestionBoolean, IsVisible: true},
		models.FormQuestion{FieldKey: "notes", QuestionText: "Notes", QuestionType: models.QuestionTextarea, IsVisible: true},
		models.FormQuestion{FieldKey: "program_ratings", QuestionText: "Ratings", QuestionType: models.QuestionRatingGrid, IsVisible: true},
	)
}

// johnDoe creates the client the matcher examples refer to
func johnDoe(t *testing.T, db *gorm.DB) *models.Client {
	t.Helper()
	c := &models.Client{FirstName: "John", LastName: "Doe", PhoneNumber: "714-555-1234", DateOfBirth: "1990-01-15"}
	testutil.MustCreate(t, db, c)
	return c
}

// backdate moves every response of a session into the past
func backdate(t *testing.T, db *gorm.DB, sessionID string, d time.Duration) {
	t.Helper()
	at := time.Now().UTC().Add(-d)
	if err := db.Model(&models.IntakeResponse{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]any{"submitted_at": at, "updated_at": at}).Error; err != nil {
		t.Fatalf("backdate session %s: %v", sessionID, err)
	}
}

func countRows(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", model, err)
	}
	return n
}
