// Package testutil provides database fixtures shared by package tests and
// the testcontainers command.
package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/localnerve/shelter-intake/internal/database"
	"github.com/localnerve/shelter-intake/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated in-memory SQLite database that lives for the
// duration of the test. The pool is pinned to one connection because every
// new in-memory connection would open an empty database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get underlying SQL DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	t.Cleanup(func() {
		_ = database.Close(db)
	})

	return db
}

// MustCreate inserts value or fails the test
func MustCreate(t *testing.T, db *gorm.DB, value any) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("create %T: %v", value, err)
	}
}

// SeedForm creates a form with the given questions and returns them with ids set
func SeedForm(t *testing.T, db *gorm.DB, formKey string, questions ...models.FormQuestion) (*models.IntakeForm, []models.FormQuestion) {
	t.Helper()

	form := &models.IntakeForm{FormKey: formKey, FormName: formKey, IsActive: true}
	MustCreate(t, db, form)

	for i := range questions {
		questions[i].FormID = form.ID
		if questions[i].QuestionText == "" {
			questions[i].QuestionText = questions[i].FieldKey
		}
		if questions[i].QuestionType == "" {
			questions[i].QuestionType = models.QuestionText
		}
		if questions[i].DisplayOrder == 0 {
			questions[i].DisplayOrder = i + 1
		}
		MustCreate(t, db, &questions[i])
	}

	return form, questions
}
