// catalog.go
//
// Shelter intake case-management data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of shelter-intake.
// shelter-intake is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// shelter-intake is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with shelter-intake.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"context"
	"errors"
	"strings"

	"github.com/localnerve/shelter-intake/internal/models"
	"github.com/localnerve/shelter-intake/internal/types"
	"github.com/localnerve/shelter-intake/internal/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FormInput creates a form
type FormInput struct {
	FormKey     string `json:"formKey" validate:"required,max=100"`
	FormName    string `json:"formName" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	IsActive    *bool  `json:"isActive"`
}

// FormPatch is a partial form update; nil fields are left alone
type FormPatch struct {
	FormName    *string `json:"formName" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IsActive    *bool   `json:"isActive"`
}

// QuestionInput creates a question. Nil flags take their defaults:
// required and visible, not core.
type QuestionInput struct {
	FormID          uint64                  `json:"formId" validate:"required"`
	FieldKey        string                  `json:"fieldKey" validate:"required,max=100"`
	QuestionText    string                  `json:"questionText" validate:"required,max=1000"`
	QuestionType    models.QuestionType     `json:"questionType" validate:"required"`
	Category        string                  `json:"category" validate:"max=100"`
	Options         []models.QuestionOption `json:"options"`
	ValidationRules models.JSON             `json:"validationRules"`
	IsRequired      *bool                   `json:"isRequired"`
	IsVisible       *bool                   `json:"isVisible"`
	IsCore          *bool                   `json:"isCore"`
	DisplayOrder    *int                    `json:"displayOrder"`
	SemanticField   models.SemanticField    `json:"semanticField"`
}

// QuestionPatch is a partial question update. The field key is fixed once
// responses may reference it.
type QuestionPatch struct {
	QuestionText    *string                  `json:"questionText" validate:"omitempty,min=1,max=1000"`
	QuestionType    *models.QuestionType     `json:"questionType"`
	Category        *string                  `json:"category" validate:"omitempty,max=100"`
	Options         *[]models.QuestionOption `json:"options"`
	ValidationRules *models.JSON             `json:"validationRules"`
	IsRequired      *bool                    `json:"isRequired"`
	IsVisible       *bool                    `json:"isVisible"`
	IsCore          *bool                    `json:"isCore"`
	DisplayOrder    *int                     `json:"displayOrder"`
	SemanticField   *models.SemanticField    `json:"semanticField"`
}

// QuestionOrder assigns a display order to one question
type QuestionOrder struct {
	ID           uint64 `json:"id"`
	DisplayOrder int    `json:"displayOrder"`
}

// CreateForm adds a form. The form key must be unused.
func CreateForm(ctx context.Context, db *gorm.DB, in FormInput) (*models.IntakeForm, error) {
	in.FormKey = strings.TrimSpace(in.FormKey)
	in.FormName = strings.TrimSpace(in.FormName)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	taken, err := exists(ctx, db, &models.IntakeForm{}, "form_key = ?", in.FormKey)
	if err != nil {
		return nil, types.WrapDatabaseError(err, "create form")
	}
	if taken {
		return nil, types.NewDuplicateError("form key %q already exists", in.FormKey)
	}

	form := &models.IntakeForm{
		FormKey:     in.FormKey,
		FormName:    in.FormName,
		Description: in.Description,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	if err := db.WithContext(ctx).Create(form).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, types.NewDuplicateError("form key %q already exists", in.FormKey)
		}
		return nil, types.WrapDatabaseError(err, "create form")
	}
	return form, nil
}

// ListForms returns forms ordered by name
func ListForms(ctx context.Context, db *gorm.DB, activeOnly bool) ([]models.IntakeForm, error) {
	q := db.WithContext(ctx).Order("form_name, id")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var forms []models.IntakeForm
	if err := q.Find(&forms).Error; err != nil {
		return nil, types.WrapDatabaseError(err, "list forms")
	}
	return forms, nil
}

// GetForm returns the form with the given id
func GetForm(ctx context.Context, db *gorm.DB, id uint64) (*models.IntakeForm, error) {
	var form models.IntakeForm
	if err := db.WithContext(ctx).First(&form, id).Error; err != nil {
		return nil, notFound(err, "get form", "form %d not found", id)
	}
	return &form, nil
}

// GetFormByKey returns the form with the given key
func GetFormByKey(ctx context.Context, db *gorm.DB, key string) (*models.IntakeForm, error) {
	var form models.IntakeForm
	if err := db.WithContext(ctx).Where("form_key = ?", key).First(&form).Error; err != nil {
		return nil, notFound(err, "get form", "form %q not found", key)
	}
	return &form, nil
}

// ResolveForm finds a form by id, then by key, then falls back to defaultKey
func ResolveForm(ctx context.Context, db *gorm.DB, id uint64, key, defaultKey string) (*models.IntakeForm, error) {
	switch {
	case id > 0:
		return GetForm(ctx, db, id)
	case key != "":
		return GetFormByKey(ctx, db, key)
	case defaultKey != "":
		return GetFormByKey(ctx, db, defaultKey)
	}
	return nil, types.NewValidationError("formId or formKey is required")
}

// UpdateForm applies a partial update to a form
func UpdateForm(ctx context.Context, db *gorm.DB, id uint64, patch FormPatch) (*models.IntakeForm, error) {
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}

	form, err := GetForm(ctx, db, id)
	if err != nil {
		return nil, err
	}

	if patch.FormName != nil {
		form.FormName = strings.TrimSpace(*patch.FormName)
	}
	if patch.Description != nil {
		form.Description = *patch.Description
	}
	if patch.IsActive != nil {
		form.IsActive = *patch.IsActive
	}

	if err := db.WithContext(ctx).Save(form).Error; err != nil {
		return nil, types.WrapDatabaseError(err, "update form")
	}
	return form, nil
}

// DeleteForm removes a form that no question or response references.
// Deactivate a form in use instead.
func DeleteForm(ctx context.Context, db *gorm.DB, id uint64) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var form models.IntakeForm
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&form, id).Error; err != nil {
			return notFound(err, "delete form", "form %d not found", id)
		}

		for _, ref := range []any{&models.FormQuestion{}, &models.IntakeResponse{}} {
			used, err := exists(ctx, tx, ref, "form_id = ?", id)
			if err != nil {
				return types.WrapDatabaseError(err, "delete form")
			}
			if used {
				return types.NewConflictError("form %d has questions or responses; deactivate it instead", id)
			}
		}

		if err := tx.Delete(&form).Error; err != nil {
			return types.WrapDatabaseError(err, "delete form")
		}
		return nil
	})
}

// CreateQuestion adds a question to a form. Without an explicit display
// order the question is appended after the current last one.
func CreateQuestion(ctx context.Context, db *gorm.DB, in QuestionInput) (*models.FormQuestion, error) {
	in.FieldKey = strings.TrimSpace(in.FieldKey)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	q := &models.FormQuestion{
		FormID:          in.FormID,
		FieldKey:        in.FieldKey,
		QuestionText:    in.QuestionText,
		QuestionType:    in.QuestionType,
		Category:        in.Category,
		Options:         in.Options,
		ValidationRules: in.ValidationRules,
		IsRequired:      in.IsRequired == nil || *in.IsRequired,
		IsVisible:       in.IsVisible == nil || *in.IsVisible,
		IsCore:          in.IsCore != nil && *in.IsCore,
		SemanticField:   in.SemanticField,
	}
	if err := checkQuestion(q); err != nil {
		return nil, err
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.IntakeForm{}, in.FormID).Error; err != nil {
			return notFound(err, "create question", "form %d not found", in.FormID)
		}

		taken, err := exists(ctx, tx, &models.FormQuestion{}, "form_id = ? AND field_key = ?", in.FormID, in.FieldKey)
		if err != nil {
			return types.WrapDatabaseError(err, "create question")
		}
		if taken {
			return types.NewDuplicateError("field key %q already exists in form %d", in.FieldKey, in.FormID)
		}

		if err := checkSemanticField(ctx, tx, q); err != nil {
			return err
		}

		if in.DisplayOrder != nil {
			q.DisplayOrder = *in.DisplayOrder
		} else {
			var maxOrder int
			if err := tx.Model(&models.FormQuestion{}).
				Where("form_id = ?", in.FormID).
				Select("COALESCE(MAX(display_order), 0)").
				Scan(&maxOrder).Error; err != nil {
				return types.WrapDatabaseError(err, "create question")
			}
			q.DisplayOrder = maxOrder + 1
		}

		if err := tx.Create(q).Error; err != nil {
			if isDuplicateKey(err) {
				return types.NewDuplicateError("field key %q already exists in form %d", in.FieldKey, in.FormID)
			}
			return types.WrapDatabaseError(err, "create question")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ListQuestions returns the questions of a form by display order
func ListQuestions(ctx context.Context, db *gorm.DB, formID uint64, includeHidden bool) ([]models.FormQuestion, error) {
	q := db.WithContext(ctx).Where("form_id = ?", formID).Order("display_order, id")
	if !includeHidden {
		q = q.Where("is_visible = ?", true)
	}

	var questions []models.FormQuestion
	if err := q.Find(&questions).Error; err != nil {
		return nil, types.WrapDatabaseError(err, "list questions")
	}
	return questions, nil
}

// GetQuestion returns the question with the given id
func GetQuestion(ctx context.Context, db *gorm.DB, id uint64) (*models.FormQuestion, error) {
	var q models.FormQuestion
	if err := db.WithContext(ctx).First(&q, id).Error; err != nil {
		return nil, notFound(err, "get question", "question %d not found", id)
	}
	return &q, nil
}

// UpdateQuestion applies a partial update. Moving a question onto a display
// order another question holds swaps the two; with several holders only
// the lowest id moves.
func UpdateQuestion(ctx context.Context, db *gorm.DB, id uint64, patch QuestionPatch) (*models.FormQuestion, error) {
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}

	var q models.FormQuestion
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&q, id).Error; err != nil {
			return notFound(err, "update question", "question %d not found", id)
		}

		if q.IsCore {
			if patch.IsVisible != nil && !*patch.IsVisible {
				return types.NewForbiddenError("question %q is a core question and cannot be hidden", q.FieldKey)
			}
			if patch.IsCore != nil && !*patch.IsCore {
				return types.NewForbiddenError("question %q is a core question and cannot be demoted", q.FieldKey)
			}
		}

		originalOrder := q.DisplayOrder
		semanticChanged := applyQuestionPatch(&q, patch)

		if err := checkQuestion(&q); err != nil {
			return err
		}
		if semanticChanged {
			if err := checkSemanticField(ctx, tx, &q); err != nil {
				return err
			}
		}

		if q.DisplayOrder != originalOrder {
			var holder models.FormQuestion
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("form_id = ? AND display_order = ? AND id <> ?", q.FormID, q.DisplayOrder, q.ID).
				Order("id").
				First(&holder).Error
			switch {
			case err == nil:
				if err := tx.Model(&holder).Update("display_order", originalOrder).Error; err != nil {
					return types.WrapDatabaseError(err, "swap question order")
				}
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return types.WrapDatabaseError(err, "swap question order")
			}
		}

		if err := tx.Save(&q).Error; err != nil {
			return types.WrapDatabaseError(err, "update question")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// applyQuestionPatch copies the set fields of patch onto q and reports
// whether the semantic field changed
func applyQuestionPatch(q *models.FormQuestion, patch QuestionPatch) bool {
	if patch.QuestionText != nil {
		q.QuestionText = *patch.QuestionText
	}
	if patch.QuestionType != nil {
		q.QuestionType = *patch.QuestionType
	}
	if patch.Category != nil {
		q.Category = *patch.Category
	}
	if patch.Options != nil {
		q.Options = *patch.Options
	}
	if patch.ValidationRules != nil {
		q.ValidationRules = *patch.ValidationRules
	}
	if patch.IsRequired != nil {
		q.IsRequired = *patch.IsRequired
	}
	if patch.IsVisible != nil {
		q.IsVisible = *patch.IsVisible
	}
	if patch.IsCore != nil {
		q.IsCore = *patch.IsCore
	}
	if patch.DisplayOrder != nil {
		q.DisplayOrder = *patch.DisplayOrder
	}
	if patch.SemanticField != nil && *patch.SemanticField != q.SemanticField {
		q.SemanticField = *patch.SemanticField
		return true
	}
	return false
}

// SetVisibility shows or hides a question. Core questions stay visible.
func SetVisibility(ctx context.Context, db *gorm.DB, id uint64, visible bool) (*models.FormQuestion, error) {
	q, err := GetQuestion(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if q.IsCore && !visible {
		return nil, types.NewForbiddenError("question %q is a core question and cannot be hidden", q.FieldKey)
	}

	if err := db.WithContext(ctx).Model(q).Update("is_visible", visible).Error; err != nil {
		return nil, types.WrapDatabaseError(err, "set question visibility")
	}
	q.IsVisible = visible
	return q, nil
}

// ReorderQuestions sets exactly the requested display orders in one
// transaction and returns the form's full question list. A formID of 0
// takes the form of the first listed question.
func ReorderQuestions(ctx context.Context, db *gorm.DB, formID uint64, orders []QuestionOrder) ([]models.FormQuestion, error) {
	if len(orders) == 0 {
		return nil, types.NewValidationError("orders must not be empty")
	}

	ids := make([]uint64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var questions []models.FormQuestion
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "form_id").
			Where("id IN ?", ids).
			Find(&questions).Error; err != nil {
			return types.WrapDatabaseError(err, "reorder questions")
		}

		formOf := make(map[uint64]uint64, len(questions))
		for _, q := range questions {
			formOf[q.ID] = q.FormID
		}

		if formID == 0 {
			formID = formOf[orders[0].ID]
		}
		for _, o := range orders {
			owner, ok := formOf[o.ID]
			if !ok || owner != formID {
				return types.NewNotFoundError("question %d not found in form %d", o.ID, formID)
			}
		}

		for _, o := range orders {
			if err := tx.Model(&models.FormQuestion{}).
				Where("id = ?", o.ID).
				Update("display_order", o.DisplayOrder).Error; err != nil {
				return types.WrapDatabaseError(err, "reorder questions")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ListQuestions(ctx, db, formID, true)
}

// DeleteQuestion removes a question nothing refers to. Core questions are
// never deleted; questions with responses should be hidden instead.
func DeleteQuestion(ctx context.Context, db *gorm.DB, id uint64) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q models.FormQuestion
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&q, id).Error; err != nil {
			return notFound(err, "delete question", "question %d not found", id)
		}
		if q.IsCore {
			return types.NewForbiddenError("question %q is a core question and cannot be deleted", q.FieldKey)
		}

		answered, err := exists(ctx, tx, &models.IntakeResponse{}, "question_id = ?", id)
		if err != nil {
			return types.WrapDatabaseError(err, "delete question")
		}
		if answered {
			return types.NewConflictError("question %q has responses; hide it instead of deleting", q.FieldKey)
		}

		if err := tx.Delete(&q).Error; err != nil {
			return types.WrapDatabaseError(err, "delete question")
		}
		return nil
	})
}

// checkQuestion validates the invariants of a question row
func checkQuestion(q *models.FormQuestion) error {
	if !q.QuestionType.Valid() {
		return types.NewValidationError("unknown question type %q", q.QuestionType)
	}
	if q.QuestionType == models.QuestionSelect && len(q.Options) == 0 {
		return types.NewValidationError("select question %q requires options", q.FieldKey)
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt.Value) == "" {
			return types.NewValidationError("option %d of question %q has no value", i, q.FieldKey)
		}
	}
	if !q.SemanticField.Valid() {
		return types.NewValidationError("unknown semantic field %q", q.SemanticField)
	}
	if q.IsCore && !q.IsVisible {
		return types.NewForbiddenError("question %q is a core question and cannot be hidden", q.FieldKey)
	}
	return nil
}

// checkSemanticField keeps each semantic field on at most one question per form
func checkSemanticField(ctx context.Context, tx *gorm.DB, q *models.FormQuestion) error {
	if q.SemanticField == models.SemanticNone {
		return nil
	}
	taken, err := exists(ctx, tx, &models.FormQuestion{},
		"form_id = ? AND semantic_field = ? AND id <> ?", q.FormID, q.SemanticField, q.ID)
	if err != nil {
		return types.WrapDatabaseError(err, "check semantic field")
	}
	if taken {
		return types.NewDuplicateError("form %d already has a %s question", q.FormID, q.SemanticField)
	}
	return nil
}
