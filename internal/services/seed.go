package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/localnerve/shelter-intake/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type seedForm struct {
	FormInput
	Questions []QuestionInput `json:"questions"`
}

// SeedForms creates the forms described by the JSON catalog raw that do
// not exist yet, each with its questions in one transaction. Existing forms
// are left untouched. It returns the number of forms created.
func SeedForms(ctx context.Context, db *gorm.DB, raw []byte) (int, error) {
	var forms []seedForm
	if err := json.Unmarshal(raw, &forms); err != nil {
		return 0, fmt.Errorf("invalid seed catalog: %w", err)
	}

	created := 0
	for _, sf := range forms {
		taken, err := exists(ctx, db, &models.IntakeForm{}, "form_key = ?", sf.FormKey)
		if err != nil {
			return created, err
		}
		if taken {
			continue
		}

		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			form, err := CreateForm(ctx, tx, sf.FormInput)
			if err != nil {
				return err
			}
			for _, q := range sf.Questions {
				q.FormID = form.ID
				if _, err := CreateQuestion(ctx, tx, q); err != nil {
					return fmt.Errorf("question %q: %w", q.FieldKey, err)
				}
			}
			return nil
		})
		if err != nil {
			return created, fmt.Errorf("seed form %q: %w", sf.FormKey, err)
		}

		zap.L().Info("seeded form", zap.String("form_key", sf.FormKey), zap.Int("questions", len(sf.Questions)))
		created++
	}
	return created, nil
}
